// Package ebitengine renders a retouch engine with Ebitengine and hosts it
// in a window.
package ebitengine

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/retouch"
)

var shaderSources = map[retouch.Program]string{
	retouch.ProgramImage:     imageShaderSrc,
	retouch.ProgramComposite: compositeShaderSrc,
	retouch.ProgramFlat:      flatShaderSrc,
}

// Backend implements retouch.Backend with Kage shaders.
type Backend struct {
	shaders map[retouch.Program]*ebiten.Shader

	probeOnce sync.Once
	probeErr  error

	// scratch holds mask copies resampled to a source size, keyed by size.
	scratch map[image.Point]*ebiten.Image
}

// NewBackend returns an Ebitengine backend. Shaders are compiled by
// Prepare.
func NewBackend() *Backend {
	return &Backend{
		shaders: make(map[retouch.Program]*ebiten.Shader),
		scratch: make(map[image.Point]*ebiten.Image),
	}
}

// Supported compiles a trivial program once and reports whether the
// shader compiler accepted it.
func (b *Backend) Supported() bool {
	b.probeOnce.Do(func() {
		var s *ebiten.Shader
		s, b.probeErr = ebiten.NewShader([]byte(flatShaderSrc))
		if b.probeErr == nil {
			s.Deallocate()
		}
	})
	if b.probeErr != nil {
		retouch.Logger().Warn("ebitengine: shader probe failed", "err", b.probeErr)
	}
	return b.probeErr == nil
}

// Prepare compiles the Kage source for p.
func (b *Backend) Prepare(p retouch.Program) error {
	if _, ok := b.shaders[p]; ok {
		return nil
	}
	src, ok := shaderSources[p]
	if !ok {
		return fmt.Errorf("ebitengine: unknown program %d", p)
	}
	s, err := ebiten.NewShader([]byte(src))
	if err != nil {
		return fmt.Errorf("ebitengine: compile %s shader: %w", p, err)
	}
	b.shaders[p] = s
	return nil
}

// NewSurface allocates an offscreen image.
func (b *Backend) NewSurface(w, h int, kind retouch.SurfaceKind) (retouch.Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("ebitengine: invalid surface size %dx%d", w, h)
	}
	img := ebiten.NewImageWithOptions(image.Rect(0, 0, w, h), &ebiten.NewImageOptions{
		Unmanaged: kind == retouch.SurfaceData,
	})
	return &surface{img: img, kind: kind, backend: b, w: w, h: h}, nil
}

// Dispose releases compiled shaders and scratch images.
func (b *Backend) Dispose() {
	for p, s := range b.shaders {
		s.Deallocate()
		delete(b.shaders, p)
	}
	for k, img := range b.scratch {
		img.Deallocate()
		delete(b.scratch, k)
	}
}

// resampled returns mask scaled to w x h with nearest filtering. The
// result is owned by the backend and valid until the next call.
func (b *Backend) resampled(mask *ebiten.Image, w, h int) *ebiten.Image {
	mb := mask.Bounds()
	if mb.Dx() == w && mb.Dy() == h {
		return mask
	}
	key := image.Pt(w, h)
	dst, ok := b.scratch[key]
	if !ok {
		dst = ebiten.NewImage(w, h)
		b.scratch[key] = dst
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(float64(w)/float64(mb.Dx()), float64(h)/float64(mb.Dy()))
	op.Filter = ebiten.FilterNearest
	op.Blend = ebiten.BlendCopy
	dst.DrawImage(mask, &op)
	return dst
}

// Image returns the Ebitengine image behind a surface created by this
// package, or nil.
func Image(s retouch.Surface) *ebiten.Image {
	if es, ok := s.(*surface); ok {
		return es.img
	}
	return nil
}

type surface struct {
	img     *ebiten.Image
	kind    retouch.SurfaceKind
	backend *Backend
	w, h    int

	verts []ebiten.Vertex
	op    ebiten.DrawTrianglesShaderOptions
}

func (s *surface) Size() (int, int) { return s.w, s.h }

func (s *surface) Kind() retouch.SurfaceKind { return s.kind }

func (s *surface) Clear(c color.NRGBA) {
	if s.kind == retouch.SurfaceColor {
		s.img.Fill(c)
		return
	}
	// Fill would premultiply; data bytes are written as given.
	pix := make([]byte, 4*s.w*s.h)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	s.img.WritePixels(pix)
}

func (s *surface) WritePixels(pix []byte) {
	if s.kind == retouch.SurfaceColor {
		pix = premultiply(pix)
	}
	s.img.WritePixels(pix)
}

func (s *surface) ReadPixels(r image.Rectangle) []byte {
	out := make([]byte, 4*r.Dx()*r.Dy())
	in := r.Intersect(image.Rect(0, 0, s.w, s.h))
	if in.Empty() {
		return out
	}
	buf := make([]byte, 4*in.Dx()*in.Dy())
	s.img.SubImage(in).(*ebiten.Image).ReadPixels(buf)
	if s.kind == retouch.SurfaceColor {
		unpremultiply(buf)
	}
	n := 4 * in.Dx()
	for y := 0; y < in.Dy(); y++ {
		dst := 4 * ((in.Min.Y-r.Min.Y+y)*r.Dx() + (in.Min.X - r.Min.X))
		copy(out[dst:dst+n], buf[y*n:(y+1)*n])
	}
	return out
}

func (s *surface) Draw(cmd *retouch.DrawCommand) {
	shader := s.backend.shaders[cmd.Program]
	if shader == nil {
		retouch.Logger().Warn("ebitengine: draw with unprepared program", "program", cmd.Program.String())
		return
	}

	s.op = ebiten.DrawTrianglesShaderOptions{Blend: ebiten.BlendCopy}
	var tw, th float64
	switch cmd.Program {
	case retouch.ProgramImage:
		src := Image(cmd.Textures[0])
		if src == nil {
			return
		}
		s.op.Images[0] = src
		tw, th = float64(src.Bounds().Dx()), float64(src.Bounds().Dy())
	case retouch.ProgramComposite:
		src, mask := Image(cmd.Textures[0]), Image(cmd.Textures[1])
		if src == nil || mask == nil {
			return
		}
		sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
		s.op.Images[0] = src
		s.op.Images[1] = s.backend.resampled(mask, sw, sh)
		tw, th = float64(sw), float64(sh)
		invert := float32(0)
		if cmd.Invert {
			invert = 1
		}
		s.op.Uniforms = map[string]any{"Invert": invert}
	case retouch.ProgramFlat:
		c := cmd.Color
		s.op.Uniforms = map[string]any{"Color": []float32{
			float32(c.R) / 0xff, float32(c.G) / 0xff, float32(c.B) / 0xff, float32(c.A) / 0xff,
		}}
	}

	s.verts = s.verts[:0]
	for _, v := range cmd.Vertices {
		p := retouch.DeviceToSurface(cmd.Transform.Apply(v.Pos), s.w, s.h)
		s.verts = append(s.verts, ebiten.Vertex{
			DstX:   float32(p.X),
			DstY:   float32(p.Y),
			SrcX:   float32(v.UV.X * tw),
			SrcY:   float32(v.UV.Y * th),
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		})
	}
	s.img.DrawTrianglesShader(s.verts, cmd.Indices, shader, &s.op)
}

func (s *surface) Dispose() {
	s.img.Deallocate()
}

// premultiply returns a premultiplied copy of straight-alpha bytes.
func premultiply(pix []byte) []byte {
	out := make([]byte, len(pix))
	for i := 0; i < len(pix); i += 4 {
		a := uint32(pix[i+3])
		out[i] = uint8((uint32(pix[i])*a + 127) / 255)
		out[i+1] = uint8((uint32(pix[i+1])*a + 127) / 255)
		out[i+2] = uint8((uint32(pix[i+2])*a + 127) / 255)
		out[i+3] = pix[i+3]
	}
	return out
}

// unpremultiply converts premultiplied bytes to straight alpha in place.
func unpremultiply(pix []byte) {
	for i := 0; i < len(pix); i += 4 {
		a := int(pix[i+3])
		if a > 0 && a < 255 {
			pix[i] = uint8(min(int(pix[i])*255/a, 255))
			pix[i+1] = uint8(min(int(pix[i+1])*255/a, 255))
			pix[i+2] = uint8(min(int(pix[i+2])*255/a, 255))
		}
	}
}
