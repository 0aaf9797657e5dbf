package retouch

import (
	"image"
	"image/color"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if !scalar.EqualWithinAbs(got, want, epsilon) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertVec(t *testing.T, name string, got, want Vec2) {
	t.Helper()
	if !scalar.EqualWithinAbs(got.X, want.X, epsilon) || !scalar.EqualWithinAbs(got.Y, want.Y, epsilon) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Matrix) {
	t.Helper()
	for i := range got {
		if !scalar.EqualWithinAbs(got[i], want[i], epsilon) {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// newTestBackend returns a software backend with every program prepared.
func newTestBackend(t *testing.T) *SoftwareBackend {
	t.Helper()
	b := NewSoftwareBackend()
	for _, p := range Programs {
		if err := b.Prepare(p); err != nil {
			t.Fatalf("Prepare(%s): %v", p, err)
		}
	}
	return b
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.CanvasWidth == 0 {
		cfg.CanvasWidth, cfg.CanvasHeight = 300, 300
	}
	e, err := New(NewSoftwareBackend(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Destroy)
	return e
}

var testRed = color.NRGBA{R: 200, G: 40, B: 40, A: 0xff}

// testRedGray is the Rec. 601 luma of testRed, rounded.
var testRedGray = color.NRGBA{R: 88, G: 88, B: 88, A: 0xff}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// classify waits out the debounce so a pending touch is resolved.
func classify(e *Engine) {
	e.Update(100 * time.Millisecond)
}

func pixelAt(img *image.NRGBA, x, y int) color.NRGBA {
	return img.NRGBAAt(x, y)
}
