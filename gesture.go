package retouch

import "time"

// MoveEvent is one pointer-move sample. Touches holds the current contact
// positions and PreTouches, when the host tracks them, the positions of the
// same contacts at the previous sample.
type MoveEvent struct {
	Touches    []Vec2
	PreTouches []Vec2
}

// gestureHandler receives classified gestures. The engine implements it.
type gestureHandler interface {
	mode() Mode
	hitTest(p Vec2) bool
	pan(d Vec2)
	stroke(from, to Vec2)
	pinch(prev, cur [2]Vec2)
	tap(p Vec2)
	release(p Vec2, kind GestureState)
}

// GestureInterpreter turns raw touch events into pan, stroke and pinch
// calls. Classification waits for a short debounce after the first contact
// because a second finger often lands a few milliseconds late.
type GestureInterpreter struct {
	h        gestureHandler
	sched    *Scheduler
	debounce time.Duration

	state    GestureState
	contacts int
	// pending holds the contact points seen while classification waits.
	pending [2]Vec2
	timer   *Timer
	// last holds the session's most recent point(s) once classified.
	last [2]Vec2
}

func newGestureInterpreter(h gestureHandler, sched *Scheduler, debounce time.Duration) *GestureInterpreter {
	return &GestureInterpreter{h: h, sched: sched, debounce: debounce}
}

// State returns the current state.
func (g *GestureInterpreter) State() GestureState { return g.state }

// TouchStart registers a new contact.
func (g *GestureInterpreter) TouchStart(p Vec2) {
	switch g.state {
	case StateIdle:
		g.contacts = 1
		g.pending[0] = p
		g.setState(StatePending)
		g.timer = g.sched.AfterFunc(g.debounce, g.resolve)
	case StatePending:
		if g.contacts >= 2 {
			return
		}
		g.contacts = 2
		g.pending[1] = p
		g.resolve()
	case StateSingleActive:
		g.contacts = 2
		g.last[1] = p
		g.setState(StateDoubleActive)
	default:
		Logger().Debug("gesture: extra contact ignored", "x", p.X, "y", p.Y)
	}
}

// resolve classifies the pending session. It runs from the debounce timer
// or early, when a second contact arrives.
func (g *GestureInterpreter) resolve() {
	g.stopTimer()
	if g.state != StatePending {
		return
	}
	if !g.h.hitTest(g.pending[0]) {
		Logger().Debug("gesture: touch missed image", "x", g.pending[0].X, "y", g.pending[0].Y)
		g.reset()
		return
	}
	g.last = g.pending
	if g.contacts >= 2 {
		g.setState(StateDoubleActive)
	} else {
		g.setState(StateSingleActive)
	}
}

// TouchMove applies a move sample to the active session.
func (g *GestureInterpreter) TouchMove(e MoveEvent) {
	n := len(e.Touches)
	if n == 0 {
		return
	}
	switch g.state {
	case StatePending:
		g.pending[0] = e.Touches[0]
		if n >= 2 {
			g.pending[1] = e.Touches[1]
			g.contacts = 2
		}
	case StateSingleActive:
		prev := g.last[0]
		if len(e.PreTouches) == 1 {
			prev = e.PreTouches[0]
		}
		cur := e.Touches[0]
		if g.h.mode().painting() {
			g.h.stroke(prev, cur)
		} else {
			g.h.pan(cur.Sub(prev))
		}
		g.last[0] = cur
	case StateDoubleActive:
		if n < 2 {
			return
		}
		prev := g.last
		if len(e.PreTouches) == 2 {
			prev = [2]Vec2{e.PreTouches[0], e.PreTouches[1]}
		}
		cur := [2]Vec2{e.Touches[0], e.Touches[1]}
		g.h.pinch(prev, cur)
		g.last = cur
	}
}

// TouchEnd ends the session. A touch lifted before classification is a tap.
func (g *GestureInterpreter) TouchEnd(p Vec2) {
	switch g.state {
	case StatePending:
		g.stopTimer()
		tap := g.pending[0]
		g.reset()
		if g.h.mode().painting() && g.h.hitTest(tap) {
			g.h.tap(tap)
		}
	case StateSingleActive, StateDoubleActive:
		kind := g.state
		g.reset()
		g.h.release(p, kind)
	}
}

// Cancel drops the session without notifying the handler.
func (g *GestureInterpreter) Cancel() {
	g.stopTimer()
	g.reset()
}

func (g *GestureInterpreter) stopTimer() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *GestureInterpreter) reset() {
	g.contacts = 0
	g.pending = [2]Vec2{}
	g.last = [2]Vec2{}
	g.setState(StateIdle)
}

func (g *GestureInterpreter) setState(s GestureState) {
	if g.state == s {
		return
	}
	Logger().Debug("gesture: state", "from", g.state.String(), "to", s.String())
	g.state = s
}
