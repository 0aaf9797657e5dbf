package retouch

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// settleTween animates the view from an out-of-range zoom back to its
// clamped target. Tweened values are float32, so the exact target is
// written when the tween finishes or is interrupted.
type settleTween struct {
	tweens [3]*gween.Tween
	target ViewTransform
	Done   bool
}

func newSettleTween(from, to ViewTransform, d time.Duration, fn ease.TweenFunc) *settleTween {
	if fn == nil {
		fn = ease.OutQuad
	}
	sec := float32(d.Seconds())
	return &settleTween{
		tweens: [3]*gween.Tween{
			gween.New(float32(from.Scale), float32(to.Scale), sec, fn),
			gween.New(float32(from.TranslateX), float32(to.TranslateX), sec, fn),
			gween.New(float32(from.TranslateY), float32(to.TranslateY), sec, fn),
		},
		target: to,
	}
}

// Update advances the tween by dt and returns the view to display.
func (s *settleTween) Update(dt time.Duration, v ViewTransform) ViewTransform {
	if s.Done {
		return s.target
	}
	allDone := true
	var vals [3]float32
	for i, tw := range s.tweens {
		val, finished := tw.Update(float32(dt.Seconds()))
		vals[i] = val
		if !finished {
			allDone = false
		}
	}
	s.Done = allDone
	if allDone {
		return s.target
	}
	v.Scale = float64(vals[0])
	v.TranslateX = float64(vals[1])
	v.TranslateY = float64(vals[2])
	return v
}

// Finish stops the tween and returns its target.
func (s *settleTween) Finish() ViewTransform {
	s.Done = true
	return s.target
}
