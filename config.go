package retouch

import (
	"image/color"
	"time"

	"github.com/tanema/gween/ease"
)

// Config holds engine construction parameters. Zero fields take the
// defaults listed on each field; only the canvas size is required.
type Config struct {
	// CanvasWidth and CanvasHeight are the frame size in pixels.
	CanvasWidth, CanvasHeight int

	// MinScale and MaxScale bound the zoom once a gesture ends.
	// Defaults 0.5 and 3.
	MinScale, MaxScale float64

	// SplashSize is the brush half-width in mask pixels. Default 10.
	SplashSize float64
	// NoStrokeCaps stops stroke quads from extending past their endpoints.
	NoStrokeCaps bool

	// Debounce is how long a first contact waits for a second finger
	// before it is classified. Default 100ms.
	Debounce time.Duration

	// PreviewSize is the side of the magnifier rectangle. Default 100.
	PreviewSize float64
	// PreviewRatio is the magnification. Default 2.
	PreviewRatio float64
	// PreviewRect is where the magnifier is drawn. Default is a
	// PreviewSize square 8 pixels from the top-left corner.
	PreviewRect Rect

	// EnableRotation lets two-finger gestures rotate the image.
	EnableRotation bool

	// SettleDuration animates the zoom back into range after a gesture.
	// Zero snaps immediately.
	SettleDuration time.Duration
	// SettleEase is the settle easing function. Default ease.OutQuad.
	SettleEase ease.TweenFunc

	// Background fills the frame outside the image.
	Background color.NRGBA

	// Format selects the Output encoding. Default FormatPNG.
	Format Format
	// JPEGQuality is used with FormatJPEG. Default 90.
	JPEGQuality int

	// PickID is the object id written by the picking pass. Default 1;
	// zero is the cleared background and cannot be used.
	PickID uint32
}

func (c Config) withDefaults() Config {
	if c.MinScale <= 0 {
		c.MinScale = 0.5
	}
	if c.MaxScale <= 0 {
		c.MaxScale = 3
	}
	if c.MaxScale < c.MinScale {
		c.MaxScale = c.MinScale
	}
	if c.SplashSize <= 0 {
		c.SplashSize = 10
	}
	if c.Debounce <= 0 {
		c.Debounce = 100 * time.Millisecond
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 100
	}
	if c.PreviewRatio <= 0 {
		c.PreviewRatio = 2
	}
	if c.PreviewRect.Width <= 0 || c.PreviewRect.Height <= 0 {
		c.PreviewRect = Rect{X: 8, Y: 8, Width: c.PreviewSize, Height: c.PreviewSize}
	}
	if c.SettleEase == nil {
		c.SettleEase = ease.OutQuad
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = 90
	}
	if c.PickID == 0 {
		c.PickID = 1
	}
	return c
}
