package retouch

import "math"

// Matrix is a 2D affine matrix stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// Identity is the identity matrix.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Ortho returns the orthographic projection mapping the pixel box
// [left, right] x [top, bottom] onto normalized device space [-1, 1]².
// With top < bottom the Y axis is flipped (raster rows grow downward, device
// space grows upward); Ortho(0, w, h, 0) keeps Y pointing the same way.
func Ortho(left, right, top, bottom float64) Matrix {
	return Matrix{
		2 / (right - left), 0,
		0, -2 / (bottom - top),
		-(right + left) / (right - left), (top + bottom) / (bottom - top),
	}
}

// Translate returns a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{1, 0, 0, 1, x, y}
}

// RotateDegrees returns a standard 2D rotation by deg degrees.
func RotateDegrees(deg float64) Matrix {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// Scale returns a uniform scale matrix.
func Scale(s float64) Matrix {
	return Matrix{s, 0, 0, s, 0, 0}
}

// Mul returns m * n, so that n is applied to a point first.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// Invert returns the inverse of m, or Identity if m is singular.
func (m Matrix) Invert() Matrix {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return Identity
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms p by m.
func (m Matrix) Apply(p Vec2) Vec2 {
	return Vec2{m[0]*p.X + m[2]*p.Y + m[4], m[1]*p.X + m[3]*p.Y + m[5]}
}

// ViewTransform places the image quad on the canvas. The quad is centred on
// its local origin; Translate moves that origin in screen pixels.
type ViewTransform struct {
	TranslateX, TranslateY float64
	// Rotation is in degrees and is never normalized.
	Rotation float64
	// Scale is always positive. It may leave [MinScale, MaxScale] while a
	// gesture is in progress.
	Scale float64
}

// Matrix returns translate * rotate * scale.
func (v ViewTransform) Matrix() Matrix {
	return Translate(v.TranslateX, v.TranslateY).
		Mul(RotateDegrees(v.Rotation)).
		Mul(Scale(v.Scale))
}

// ToScreen maps an image-local point to screen space.
func (v ViewTransform) ToScreen(local Vec2) Vec2 {
	return v.Matrix().Apply(local)
}

// ToLocal maps a screen point back to image-local space by undoing the
// placement in reverse order: un-translate, un-rotate, un-scale.
func (v ViewTransform) ToLocal(screen Vec2) Vec2 {
	p := Vec2{screen.X - v.TranslateX, screen.Y - v.TranslateY}
	p = RotateDegrees(-v.Rotation).Apply(p)
	return p.Mul(1 / v.Scale)
}

// placement is the chain shared by every pass that draws the image
// silhouette: projection * translate * rotate * scale.
func placement(projection Matrix, v ViewTransform) Matrix {
	return projection.Mul(v.Matrix())
}

// fitScale returns the factor that fits a w x h image inside the canvas.
func fitScale(w, h, canvasW, canvasH float64) float64 {
	return math.Min(canvasW/w, canvasH/h)
}

// imageQuad returns the four corners of a w x h quad centred on the origin,
// in the order top-left, top-right, bottom-left, bottom-right, with texture
// coordinates where v = 0 is the top row of the uploaded image.
func imageQuad(w, h float64) [4]Vertex {
	l, r := -w/2, w/2
	t, b := -h/2, h/2
	return [4]Vertex{
		{Pos: Vec2{l, t}, UV: Vec2{0, 0}},
		{Pos: Vec2{r, t}, UV: Vec2{1, 0}},
		{Pos: Vec2{l, b}, UV: Vec2{0, 1}},
		{Pos: Vec2{r, b}, UV: Vec2{1, 1}},
	}
}
