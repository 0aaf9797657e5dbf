package ebitengine

// All shaders use //kage:unit pixels. Color surfaces hold premultiplied
// alpha, data surfaces hold raw bytes; every draw uses BlendCopy so the
// shader output lands in the target unchanged.

const imageShaderSrc = `//kage:unit pixels
package main

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	return imageSrc0At(src)
}
`

// The mask is resampled to the source size before the draw, so one source
// coordinate addresses both images.
const compositeShaderSrc = `//kage:unit pixels
package main

var Invert float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	painted := 0.0
	if imageSrc1At(src).r > 0 {
		painted = 1.0
	}
	if painted != Invert {
		// Luma of premultiplied color is luma times alpha.
		lum := 0.299*c.r + 0.587*c.g + 0.114*c.b
		return vec4(lum, lum, lum, c.a)
	}
	return c
}
`

const flatShaderSrc = `//kage:unit pixels
package main

var Color vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	return Color
}
`
