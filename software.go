package retouch

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/vector"
)

// SoftwareBackend renders on the CPU. Coverage comes from an
// x/image/vector rasteriser thresholded at half a pixel, so edges are hard
// and repeated draws of the same geometry touch exactly the same pixels.
// Surfaces are gg pixmaps holding straight-alpha bytes.
type SoftwareBackend struct {
	prepared map[Program]bool
}

// NewSoftwareBackend returns a backend that needs no GPU.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{prepared: make(map[Program]bool)}
}

// Supported always reports true.
func (b *SoftwareBackend) Supported() bool { return true }

// Prepare validates p. Every built-in program is implemented in Go.
func (b *SoftwareBackend) Prepare(p Program) error {
	switch p {
	case ProgramImage, ProgramComposite, ProgramFlat:
		b.prepared[p] = true
		return nil
	}
	return fmt.Errorf("software: unknown program %d", p)
}

// NewSurface allocates a pixmap-backed surface.
func (b *SoftwareBackend) NewSurface(w, h int, kind SurfaceKind) (Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("software: invalid surface size %dx%d", w, h)
	}
	return &softSurface{pm: gg.NewPixmap(w, h), kind: kind, backend: b}, nil
}

type softSurface struct {
	pm      *gg.Pixmap
	kind    SurfaceKind
	backend *SoftwareBackend

	rast *vector.Rasterizer
	cov  *image.Alpha
}

func (s *softSurface) Size() (int, int) { return s.pm.Width(), s.pm.Height() }

func (s *softSurface) Kind() SurfaceKind { return s.kind }

func (s *softSurface) Clear(c color.NRGBA) {
	pix := s.pm.Data()
	for i := 0; i < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
}

func (s *softSurface) WritePixels(pix []byte) {
	copy(s.pm.Data(), pix)
}

// ReadPixels copies bytes without going through gg's float colour type, so
// packed ids come back unchanged.
func (s *softSurface) ReadPixels(r image.Rectangle) []byte {
	w, h := s.Size()
	if r == s.pm.Bounds() {
		return s.pm.ToImage().Pix
	}
	out := make([]byte, 4*r.Dx()*r.Dy())
	in := r.Intersect(image.Rect(0, 0, w, h))
	if in.Empty() {
		return out
	}
	pix := s.pm.Data()
	n := 4 * in.Dx()
	for y := in.Min.Y; y < in.Max.Y; y++ {
		src := 4 * (y*w + in.Min.X)
		dst := 4 * ((y-r.Min.Y)*r.Dx() + (in.Min.X - r.Min.X))
		copy(out[dst:dst+n], pix[src:src+n])
	}
	return out
}

func (s *softSurface) Dispose() {
	s.pm = gg.NewPixmap(1, 1)
	s.rast = nil
	s.cov = nil
}

// triangle is one rasterised triangle with its corners in surface pixels.
type triangle struct {
	p  [3]Vec2
	uv [3]Vec2
}

func (s *softSurface) Draw(cmd *DrawCommand) {
	if !s.backend.prepared[cmd.Program] {
		Logger().Warn("software: draw with unprepared program", "program", cmd.Program)
		return
	}
	w, h := s.Size()

	pts := make([]Vec2, len(cmd.Vertices))
	for i, v := range cmd.Vertices {
		pts[i] = DeviceToSurface(cmd.Transform.Apply(v.Pos), w, h)
	}

	tris := make([]triangle, 0, len(cmd.Indices)/3)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i+2 < len(cmd.Indices); i += 3 {
		i0, i1, i2 := cmd.Indices[i], cmd.Indices[i+1], cmd.Indices[i+2]
		t := triangle{
			p:  [3]Vec2{pts[i0], pts[i1], pts[i2]},
			uv: [3]Vec2{cmd.Vertices[i0].UV, cmd.Vertices[i1].UV, cmd.Vertices[i2].UV},
		}
		// Same winding for every triangle, so the coverage of adjacent
		// triangles adds up along shared edges.
		if cross(t.p[0], t.p[1], t.p[2]) < 0 {
			t.p[1], t.p[2] = t.p[2], t.p[1]
			t.uv[1], t.uv[2] = t.uv[2], t.uv[1]
		}
		tris = append(tris, t)
		for _, p := range t.p {
			minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
			maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
		}
	}
	if len(tris) == 0 {
		return
	}

	bounds := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	).Intersect(image.Rect(0, 0, w, h))
	if bounds.Empty() {
		return
	}

	cov := s.coverage(tris, bounds)
	pix := s.pm.Data()
	bw := bounds.Dx()
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bw; x++ {
			if cov.Pix[y*cov.Stride+x] < 0x80 {
				continue
			}
			sx, sy := bounds.Min.X+x, bounds.Min.Y+y
			uv := interpolateUV(tris, Vec2{float64(sx) + 0.5, float64(sy) + 0.5})
			c := shade(cmd, uv)
			i := 4 * (sy*w + sx)
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
}

// coverage rasterises the union of tris into an alpha mask covering bounds.
func (s *softSurface) coverage(tris []triangle, bounds image.Rectangle) *image.Alpha {
	bw, bh := bounds.Dx(), bounds.Dy()
	if s.rast == nil {
		s.rast = vector.NewRasterizer(bw, bh)
	} else {
		s.rast.Reset(bw, bh)
	}
	s.rast.DrawOp = draw.Src
	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	for _, t := range tris {
		s.rast.MoveTo(float32(t.p[0].X-ox), float32(t.p[0].Y-oy))
		s.rast.LineTo(float32(t.p[1].X-ox), float32(t.p[1].Y-oy))
		s.rast.LineTo(float32(t.p[2].X-ox), float32(t.p[2].Y-oy))
		s.rast.ClosePath()
	}
	r := image.Rect(0, 0, bw, bh)
	if s.cov == nil || !s.cov.Rect.Eq(r) {
		s.cov = image.NewAlpha(r)
	}
	s.rast.Draw(s.cov, r, image.Opaque, image.Point{})
	return s.cov
}

func cross(a, b, c Vec2) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// interpolateUV returns the texture coordinate at p, taken from the
// triangle that contains p most deeply.
func interpolateUV(tris []triangle, p Vec2) Vec2 {
	best := math.Inf(-1)
	var uv Vec2
	for _, t := range tris {
		area := cross(t.p[0], t.p[1], t.p[2])
		if area == 0 {
			continue
		}
		l0 := cross(t.p[1], t.p[2], p) / area
		l1 := cross(t.p[2], t.p[0], p) / area
		l2 := 1 - l0 - l1
		depth := math.Min(l0, math.Min(l1, l2))
		if depth > best {
			best = depth
			uv = Vec2{
				l0*t.uv[0].X + l1*t.uv[1].X + l2*t.uv[2].X,
				l0*t.uv[0].Y + l1*t.uv[1].Y + l2*t.uv[2].Y,
			}
		}
	}
	return uv
}

func shade(cmd *DrawCommand, uv Vec2) color.NRGBA {
	switch cmd.Program {
	case ProgramImage:
		return sampleNearest(cmd.Textures[0], uv)
	case ProgramComposite:
		src := sampleNearest(cmd.Textures[0], uv)
		painted := sampleNearest(cmd.Textures[1], uv).R > 0
		if painted != cmd.Invert {
			return grayscale(src)
		}
		return src
	default:
		return cmd.Color
	}
}

func sampleNearest(tex Surface, uv Vec2) color.NRGBA {
	s, ok := tex.(*softSurface)
	if !ok || s == nil {
		return color.NRGBA{}
	}
	w, h := s.Size()
	x := clampInt(int(math.Floor(uv.X*float64(w))), 0, w-1)
	y := clampInt(int(math.Floor(uv.Y*float64(h))), 0, h-1)
	i := 4 * (y*w + x)
	pix := s.pm.Data()
	return color.NRGBA{R: pix[i], G: pix[i+1], B: pix[i+2], A: pix[i+3]}
}

// grayscale replaces the color channels with Rec. 601 luma, keeping alpha.
func grayscale(c color.NRGBA) color.NRGBA {
	l := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	g := uint8(math.Min(255, math.Round(l)))
	return color.NRGBA{R: g, G: g, B: g, A: c.A}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
