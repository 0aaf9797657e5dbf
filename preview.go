package retouch

import (
	"image"
	"math"
)

const (
	brushRingSegments = 24
	brushRingWidth    = 1.5
)

// PreviewMagnifier shows an enlarged copy of the frame around the active
// touch. It reads back already-composited pixels, so it must run after the
// frame render it is meant to magnify.
type PreviewMagnifier struct {
	pool *surfacePool
	// size is the side of the on-screen preview square; ratio is the
	// magnification.
	size, ratio float64
	rect        Rect
	shown       Rect

	img   DrawCommand
	verts [4]Vertex
	ring  DrawCommand
}

func newPreviewMagnifier(pool *surfacePool, size, ratio float64, rect Rect) *PreviewMagnifier {
	m := &PreviewMagnifier{pool: pool, size: size, ratio: ratio, rect: rect}
	m.img = DrawCommand{Program: ProgramImage, Indices: quadIndices}
	m.ring = DrawCommand{Program: ProgramFlat, Color: colorBrush}
	m.ring.Vertices = make([]Vertex, 2*brushRingSegments)
	for i := 0; i < brushRingSegments; i++ {
		j := (i + 1) % brushRingSegments
		o0, i0 := uint16(2*i), uint16(2*i+1)
		o1, i1 := uint16(2*j), uint16(2*j+1)
		m.ring.Indices = append(m.ring.Indices, o0, o1, i0, o1, i1, i0)
	}
	return m
}

// Window returns the side, in frame pixels, of the region read back.
func (m *PreviewMagnifier) Window() int {
	return max(1, int(math.Round(m.size/m.ratio)))
}

// Placement returns where the preview is drawn for a touch at p: the
// configured rectangle, mirrored to the other side of the frame when the
// finger would cover it.
func (m *PreviewMagnifier) Placement(p Vec2, frameW int) Rect {
	r := m.rect
	if r.Contains(p.X, p.Y) {
		r.X = float64(frameW) - r.X - r.Width
	}
	return r
}

// Show reads the window centred on p from frame and draws it enlarged into
// the preview rectangle of the same frame, with an outline of a brush whose
// on-screen half-width is brush.
func (m *PreviewMagnifier) Show(frame Surface, p Vec2, brush float64) error {
	fw, fh := frame.Size()
	win := m.Window()

	cx := int(math.Floor(p.X))
	row := fh - 1 - int(math.Floor(p.Y))
	x0 := cx - win/2
	r0 := row - win/2
	pix := frame.ReadPixels(image.Rect(x0, r0, x0+win, r0+win))

	tex, err := m.pool.Acquire(win, win, SurfaceColor)
	if err != nil {
		return err
	}
	defer m.pool.Release(tex)
	tex.WritePixels(pix)

	dst := m.Placement(p, fw)
	m.shown = dst
	proj := Ortho(0, float64(fw), 0, float64(fh))

	// Row 0 of the window is its bottom edge, so v = 0 sits at the
	// bottom of the quad.
	l, t := dst.X, dst.Y
	r, b := dst.X+dst.Width, dst.Y+dst.Height
	m.verts = [4]Vertex{
		{Pos: Vec2{l, t}, UV: Vec2{0, 1}},
		{Pos: Vec2{r, t}, UV: Vec2{1, 1}},
		{Pos: Vec2{l, b}, UV: Vec2{0, 0}},
		{Pos: Vec2{r, b}, UV: Vec2{1, 0}},
	}
	m.img.Vertices = m.verts[:]
	m.img.Transform = proj
	m.img.Textures[0] = tex
	frame.Draw(&m.img)
	m.img.Textures[0] = nil

	m.drawRing(frame, proj, Vec2{l + dst.Width/2, t + dst.Height/2}, brush*m.ratio)
	return nil
}

func (m *PreviewMagnifier) drawRing(frame Surface, proj Matrix, c Vec2, radius float64) {
	inner := math.Max(0, radius-brushRingWidth)
	for i := 0; i < brushRingSegments; i++ {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / brushRingSegments)
		m.ring.Vertices[2*i] = Vertex{Pos: Vec2{c.X + radius*cos, c.Y + radius*sin}}
		m.ring.Vertices[2*i+1] = Vertex{Pos: Vec2{c.X + inner*cos, c.Y + inner*sin}}
	}
	m.ring.Transform = proj
	frame.Draw(&m.ring)
}

// Shown returns the rectangle used by the most recent Show.
func (m *PreviewMagnifier) Shown() Rect { return m.shown }
