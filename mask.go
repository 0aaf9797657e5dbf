package retouch

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// PaintMaskLayer holds the persistent paint mask. The mask lives in
// image-local space with its origin at the top-left of the displayed image,
// so it never needs re-rasterising when the view changes. Touch points are
// projected into that frame before each draw.
type PaintMaskLayer struct {
	surface Surface
	size    Size
	// splash is the stroke half-width in screen pixels.
	splash float64
	caps   bool

	cmd   DrawCommand
	verts [4]Vertex
}

func newPaintMaskLayer(b Backend, size Size, splash float64, caps bool) (*PaintMaskLayer, error) {
	w, h := surfaceSize(size)
	s, err := b.NewSurface(w, h, SurfaceData)
	if err != nil {
		return nil, err
	}
	l := &PaintMaskLayer{surface: s, size: size, splash: splash, caps: caps}
	l.cmd = DrawCommand{
		Program:   ProgramFlat,
		Indices:   quadIndices,
		Color:     colorPainted,
		Transform: Ortho(0, float64(w), float64(h), 0),
	}
	l.Clear()
	return l, nil
}

// surfaceSize rounds a display size to whole pixels, at least 1x1.
func surfaceSize(s Size) (int, int) {
	return max(1, int(math.Round(s.W))), max(1, int(math.Round(s.H)))
}

// Clear resets every pixel to the unpainted sentinel.
func (l *PaintMaskLayer) Clear() {
	l.surface.Clear(colorTransparent)
}

// ToMask maps a screen point into mask pixel coordinates.
func (l *PaintMaskLayer) ToMask(screen Vec2, view ViewTransform) Vec2 {
	local := view.ToLocal(screen)
	return Vec2{local.X + l.size.W/2, local.Y + l.size.H/2}
}

// Stroke paints the segment from -> to, both given in screen space, with a
// half-width of the splash size in mask pixels. It reports false, drawing
// nothing, when the points coincide.
func (l *PaintMaskLayer) Stroke(from, to Vec2, view ViewTransform) bool {
	a := l.ToMask(from, view)
	b := l.ToMask(to, view)
	quad, ok := strokeQuad(a, b, l.splash, l.caps)
	if !ok {
		Logger().Debug("mask: skipped zero-length segment", "x", from.X, "y", from.Y)
		return false
	}
	l.fill(quad)
	return true
}

// Dab paints a square of the stroke width centred on the screen point p.
func (l *PaintMaskLayer) Dab(p Vec2, view ViewTransform) {
	c := l.ToMask(p, view)
	hw := l.splash
	l.fill([4]Vec2{
		{c.X - hw, c.Y - hw},
		{c.X + hw, c.Y - hw},
		{c.X - hw, c.Y + hw},
		{c.X + hw, c.Y + hw},
	})
}

func (l *PaintMaskLayer) fill(quad [4]Vec2) {
	for i, p := range quad {
		l.verts[i] = Vertex{Pos: p}
	}
	l.cmd.Vertices = l.verts[:]
	l.surface.Draw(&l.cmd)
}

// strokeQuad builds the quad covering the segment a -> b with the given
// half-width, ordered top-left, top-right, bottom-left, bottom-right
// relative to the segment direction. With caps the quad extends half-width
// past both ends so consecutive segments overlap.
func strokeQuad(a, b Vec2, half float64, caps bool) ([4]Vec2, bool) {
	va := r2.Vec{X: a.X, Y: a.Y}
	vb := r2.Vec{X: b.X, Y: b.Y}
	d := r2.Sub(vb, va)
	if r2.Norm(d) < 1e-9 {
		return [4]Vec2{}, false
	}
	u := r2.Unit(d)
	perp := r2.Scale(half, r2.Vec{X: -u.Y, Y: u.X})
	if caps {
		ext := r2.Scale(half, u)
		va = r2.Sub(va, ext)
		vb = r2.Add(vb, ext)
	}
	corners := [4]r2.Vec{
		r2.Add(va, perp),
		r2.Add(vb, perp),
		r2.Sub(va, perp),
		r2.Sub(vb, perp),
	}
	var q [4]Vec2
	for i, c := range corners {
		q[i] = Vec2{c.X, c.Y}
	}
	return q, true
}

// Size returns the mask size in display pixels.
func (l *PaintMaskLayer) Size() Size { return l.size }

// Surface returns the mask surface.
func (l *PaintMaskLayer) Surface() Surface { return l.surface }

// Pixels reads the whole mask back, top row first.
func (l *PaintMaskLayer) Pixels() []byte {
	w, h := l.surface.Size()
	return l.surface.ReadPixels(image.Rect(0, 0, w, h))
}

// Painted reports whether the mask pixel at (x, y), measured from the
// top-left of the image, is painted.
func (l *PaintMaskLayer) Painted(x, y int) bool {
	px := l.surface.ReadPixels(image.Rect(x, y, x+1, y+1))
	return px[0] > 0
}

func (l *PaintMaskLayer) dispose() {
	l.surface.Dispose()
}
