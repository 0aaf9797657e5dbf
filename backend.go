package retouch

import (
	"image"
	"image/color"
)

// Program selects the fragment stage of a draw.
type Program uint8

const (
	// ProgramImage samples Textures[0].
	ProgramImage Program = iota
	// ProgramComposite samples the source (Textures[0]) and the mask
	// (Textures[1]) at the same coordinate and outputs grayscale where the
	// mask is painted. Invert flips the interpretation.
	ProgramComposite
	// ProgramFlat writes Color unchanged, with no blending and no alpha
	// premultiplication. Used for picking ids, mask coverage and outlines.
	ProgramFlat
)

// Programs lists every program the engine prepares at construction.
var Programs = []Program{ProgramImage, ProgramComposite, ProgramFlat}

// String returns the program name.
func (p Program) String() string {
	switch p {
	case ProgramImage:
		return "image"
	case ProgramComposite:
		return "composite"
	case ProgramFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// SurfaceKind tells the backend how a surface's bytes are interpreted.
type SurfaceKind uint8

const (
	// SurfaceColor holds visible color. Backends may store it premultiplied
	// as long as read-back returns straight alpha.
	SurfaceColor SurfaceKind = iota
	// SurfaceData holds opaque tokens (picking ids, mask coverage). Bytes
	// written must be read back bit-for-bit.
	SurfaceData
)

// Vertex is a quad or triangle corner: Pos in the draw's local space, UV in
// [0, 1] texture space where v = 0 is the first stored row.
type Vertex struct {
	Pos Vec2
	UV  Vec2
}

// DrawCommand is one draw call. Transform maps Vertex.Pos into normalized
// device space; the backend maps device space onto the target surface with
// device Y = -1 on storage row 0.
type DrawCommand struct {
	Program   Program
	Transform Matrix
	Vertices  []Vertex
	Indices   []uint16
	Textures  [2]Surface
	Color     color.NRGBA
	Invert    bool
}

// Surface is a texture that can also be rendered into.
//
// Pixel rows are addressed in storage order: row 0 is the first row written
// by WritePixels, the row sampled at v = 0, and the row that device Y = -1
// lands on. This matches a GL framebuffer, whose row 0 is at the bottom.
type Surface interface {
	// Size returns the surface size in pixels.
	Size() (w, h int)
	// Kind returns how the surface stores its bytes.
	Kind() SurfaceKind
	// Clear fills the surface with c.
	Clear(c color.NRGBA)
	// WritePixels replaces the contents with straight-alpha RGBA bytes,
	// 4*w*h long, row 0 first.
	WritePixels(pix []byte)
	// ReadPixels returns straight-alpha RGBA bytes for r, row r.Min.Y first.
	// Pixels of r outside the surface read as zero.
	ReadPixels(r image.Rectangle) []byte
	// Draw executes cmd with this surface as the render target. Draws
	// replace target pixels; nothing is blended.
	Draw(cmd *DrawCommand)
	// Dispose releases the surface. It must not be used afterwards.
	Dispose()
}

// Backend is the graphics capability surface the engine renders through.
type Backend interface {
	// Supported reports whether this device can render with the backend.
	Supported() bool
	// Prepare compiles and links p. It is called once per program at
	// engine construction; an error is fatal for that engine.
	Prepare(p Program) error
	// NewSurface allocates a w x h surface.
	NewSurface(w, h int, kind SurfaceKind) (Surface, error)
}

// quadIndices triangulates a quad given as top-left, top-right,
// bottom-left, bottom-right.
var quadIndices = []uint16{0, 1, 2, 1, 3, 2}

// DeviceToSurface maps a normalized device point to surface pixel
// coordinates, with Y measured in storage rows.
func DeviceToSurface(p Vec2, w, h int) Vec2 {
	return Vec2{(p.X + 1) / 2 * float64(w), (p.Y + 1) / 2 * float64(h)}
}

// flipRows reverses the row order of a packed RGBA buffer in place.
func flipRows(pix []byte, w, h int) {
	stride := w * 4
	tmp := make([]byte, stride)
	for top, bot := 0, h-1; top < bot; top, bot = top+1, bot-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bot*stride : (bot+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
