package retouch

import (
	"image"
	"image/color"
	"math"
)

// EncodePickID packs id into the four channels of a color, lowest byte in R.
func EncodePickID(id uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(id),
		G: uint8(id >> 8),
		B: uint8(id >> 16),
		A: uint8(id >> 24),
	}
}

// DecodePickID reverses EncodePickID.
func DecodePickID(c color.NRGBA) uint32 {
	return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
}

// PickingLayer answers "did this touch land on the image?" by rendering the
// image silhouette, color-coded with an object id, into a data surface the
// size of the canvas and reading back one pixel.
type PickingLayer struct {
	surface Surface
	id      uint32
	cmd     DrawCommand
	verts   [4]Vertex
}

func newPickingLayer(b Backend, w, h int, id uint32) (*PickingLayer, error) {
	s, err := b.NewSurface(w, h, SurfaceData)
	if err != nil {
		return nil, err
	}
	l := &PickingLayer{surface: s, id: id}
	l.cmd = DrawCommand{
		Program: ProgramFlat,
		Indices: quadIndices,
		Color:   EncodePickID(id),
	}
	return l, nil
}

// Render redraws the silhouette for the given placement.
func (l *PickingLayer) Render(view ViewTransform, display Size) {
	w, h := l.surface.Size()
	l.surface.Clear(colorTransparent)
	l.verts = imageQuad(display.W, display.H)
	l.cmd.Vertices = l.verts[:]
	l.cmd.Transform = placement(Ortho(0, float64(w), 0, float64(h)), view)
	l.surface.Draw(&l.cmd)
}

// TestHit renders the silhouette for the current placement and reports
// whether the screen point p lies on it. The render is not optional: a
// buffer drawn for an earlier placement would answer for the wrong image
// position.
func (l *PickingLayer) TestHit(p Vec2, view ViewTransform, display Size) bool {
	l.Render(view, display)
	w, h := l.surface.Size()
	x := int(math.Floor(p.X))
	y := int(math.Floor(p.Y))
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	// Storage rows grow upward; screen rows grow downward.
	row := h - 1 - y
	px := l.surface.ReadPixels(image.Rect(x, row, x+1, row+1))
	got := DecodePickID(color.NRGBA{R: px[0], G: px[1], B: px[2], A: px[3]})
	return got == l.id
}

// ID returns the object id written by the layer.
func (l *PickingLayer) ID() uint32 { return l.id }

func (l *PickingLayer) dispose() {
	l.surface.Dispose()
}
