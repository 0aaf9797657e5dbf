package retouch

import "image/color"

// Vec2 is a 2D vector used for touch points, offsets and sizes throughout the
// API. Screen coordinates have their origin at the top-left of the canvas,
// with Y increasing downward.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Mul returns v scaled by f.
func (v Vec2) Mul(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }

// Rect is an axis-aligned rectangle in screen space.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Size is a width/height pair in pixels.
type Size struct {
	W, H float64
}

// Mode selects how single-finger drags are routed and how painted mask
// pixels are interpreted by the composite pass.
type Mode uint8

const (
	ModeMove  Mode = iota // single-finger drags pan the image
	ModeColor             // drags paint; painted pixels render grayscale
	ModeGray              // drags paint; painted pixels keep their color, the rest renders grayscale
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeMove:
		return "move"
	case ModeColor:
		return "color"
	case ModeGray:
		return "gray"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name produced by [Mode.String] back to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "move":
		return ModeMove, true
	case "color":
		return ModeColor, true
	case "gray":
		return ModeGray, true
	}
	return ModeMove, false
}

// painting reports whether drags in this mode paint the mask.
func (m Mode) painting() bool {
	return m == ModeColor || m == ModeGray
}

// EventType identifies an engine notification.
type EventType uint8

const (
	EventModeChange EventType = iota // fires after SwitchMode changes the mode
	EventReset                       // fires after a new image is loaded
	EventOutput                      // fires after Output encodes an image
)

// GestureState is the state of the gesture interpreter.
type GestureState uint8

const (
	StateIdle         GestureState = iota // no session
	StatePending                          // touch seen, classification debounced
	StateSingleActive                     // one-finger pan or paint
	StateDoubleActive                     // two-finger pinch
)

// String returns the state name.
func (s GestureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSingleActive:
		return "single"
	case StateDoubleActive:
		return "double"
	default:
		return "unknown"
	}
}

// Colors written by the flat passes.
var (
	colorTransparent = color.NRGBA{}
	colorPainted     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorBrush       = color.NRGBA{R: 0xff, G: 0x40, B: 0x40, A: 0xff}
)
