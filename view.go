package retouch

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// panView moves the view by a screen-space delta.
func panView(v ViewTransform, d Vec2) ViewTransform {
	v.TranslateX += d.X
	v.TranslateY += d.Y
	return v
}

// pinchView applies one two-finger move. The scale changes by the ratio of
// the contact distances and the translation is recomputed so the point under
// the previous centroid lands under the new centroid. With rotate set, the
// change in angle between the contacts is applied around the same anchor.
func pinchView(v ViewTransform, prev, cur [2]Vec2, rotate bool) ViewTransform {
	dPrev := r2.Sub(toR2(prev[1]), toR2(prev[0]))
	dCur := r2.Sub(toR2(cur[1]), toR2(cur[0]))
	d2Prev := r2.Dot(dPrev, dPrev)
	d2Cur := r2.Dot(dCur, dCur)
	if d2Prev == 0 || d2Cur == 0 {
		return v
	}
	factor := math.Sqrt(d2Cur / d2Prev)
	pc := prev[0].Add(prev[1]).Mul(0.5)
	nc := cur[0].Add(cur[1]).Mul(0.5)

	off := Vec2{v.TranslateX - pc.X, v.TranslateY - pc.Y}.Mul(factor)
	if rotate {
		dRot := (math.Atan2(dCur.Y, dCur.X) - math.Atan2(dPrev.Y, dPrev.X)) * 180 / math.Pi
		off = RotateDegrees(dRot).Apply(off)
		v.Rotation += dRot
	}
	v.Scale *= factor
	v.TranslateX = nc.X + off.X
	v.TranslateY = nc.Y + off.Y
	return v
}

// clampView brings the scale back into [lo, hi], keeping the image point
// under anchor fixed. It reports whether the view changed.
func clampView(v ViewTransform, anchor Vec2, lo, hi float64) (ViewTransform, bool) {
	s := math.Min(math.Max(v.Scale, lo), hi)
	if s == v.Scale {
		return v, false
	}
	factor := s / v.Scale
	v.Scale = s
	v.TranslateX = factor*(v.TranslateX-anchor.X) + anchor.X
	v.TranslateY = factor*(v.TranslateY-anchor.Y) + anchor.Y
	return v, true
}

func toR2(p Vec2) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }
