package retouch

import (
	"encoding/json"
	"fmt"
)

// scriptStep is one action in a touch script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	// Second contact of a pinch.
	From2X float64 `json:"from2X,omitempty"`
	From2Y float64 `json:"from2Y,omitempty"`
	To2X   float64 `json:"to2X,omitempty"`
	To2Y   float64 `json:"to2Y,omitempty"`
	Frames int     `json:"frames,omitempty"`
	// Hold is the number of idle frames after a drag's first contact,
	// giving the debounce time to classify it.
	Hold int `json:"hold,omitempty"`
}

type script struct {
	Steps []scriptStep `json:"steps"`
}

type injectKind uint8

const (
	injectIdle injectKind = iota
	injectStart
	injectMove
	injectEnd
)

type injected struct {
	kind injectKind
	p    Vec2
	move MoveEvent
}

// defaultHold covers the default debounce at 60 ticks per second.
const defaultHold = 8

// ScriptRunner replays a JSON touch script against an engine, one queued
// event per frame.
//
// Supported actions:
//
//	touchStart {x, y}          tap {x, y}
//	touchEnd   {x, y}          wait {frames}
//	drag  {fromX, fromY, toX, toY, frames, hold}
//	pinch {fromX, fromY, toX, toY, from2X, from2Y, to2X, to2Y, frames}
//	mode  {mode}               output {label}
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	queue     []injected
	outputs   map[string][]byte
	done      bool
}

// LoadScript parses a JSON touch script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var s script
	if err := json.Unmarshal(jsonData, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range s.Steps {
		switch st.Action {
		case "touchStart", "touchEnd", "tap", "drag", "pinch", "wait", "output":
		case "mode":
			if _, ok := ParseMode(st.Mode); !ok {
				return nil, fmt.Errorf("parse script: step %d: unknown mode %q", i, st.Mode)
			}
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: s.Steps, outputs: make(map[string][]byte)}, nil
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool { return r.done }

// Output returns the payload captured by the output step with the given
// label.
func (r *ScriptRunner) Output(label string) ([]byte, bool) {
	b, ok := r.outputs[label]
	return b, ok
}

// Step advances the script by one frame. Call it once per tick before
// Engine.Update.
func (r *ScriptRunner) Step(e *Engine) error {
	if r.done {
		return nil
	}
	if len(r.queue) > 0 {
		ev := r.queue[0]
		r.queue = r.queue[1:]
		switch ev.kind {
		case injectStart:
			e.TouchStart(ev.p)
		case injectMove:
			e.TouchMove(ev.move)
		case injectEnd:
			e.TouchEnd(ev.p)
		}
		r.checkDone()
		return nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		r.checkDone()
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++

	var err error
	switch st.Action {
	case "touchStart":
		e.TouchStart(Vec2{st.X, st.Y})
	case "touchEnd":
		e.TouchEnd(Vec2{st.X, st.Y})
	case "tap":
		e.TouchStart(Vec2{st.X, st.Y})
		r.queue = append(r.queue, injected{kind: injectEnd, p: Vec2{st.X, st.Y}})
	case "drag":
		r.queueDrag(st)
	case "pinch":
		r.queuePinch(st)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1
		}
	case "mode":
		m, _ := ParseMode(st.Mode)
		e.SwitchMode(m)
	case "output":
		var data []byte
		data, err = e.Output()
		if err == nil {
			r.outputs[st.Label] = data
		}
	}
	r.checkDone()
	return err
}

func (r *ScriptRunner) checkDone() {
	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(r.queue) == 0 {
		r.done = true
	}
}

// queueDrag queues a press, hold frames of nothing, linearly interpolated
// moves and a release. The moves take frames-2 frames.
func (r *ScriptRunner) queueDrag(st scriptStep) {
	from, to := Vec2{st.FromX, st.FromY}, Vec2{st.ToX, st.ToY}
	hold := st.Hold
	if hold <= 0 {
		hold = defaultHold
	}
	r.queue = append(r.queue, injected{kind: injectStart, p: from})
	for i := 0; i < hold; i++ {
		r.queue = append(r.queue, injected{kind: injectIdle})
	}
	steps := max(1, st.Frames-2)
	prev := from
	for i := 1; i <= steps; i++ {
		cur := lerp(from, to, float64(i)/float64(steps))
		r.queue = append(r.queue, injected{kind: injectMove, move: MoveEvent{
			Touches:    []Vec2{cur},
			PreTouches: []Vec2{prev},
		}})
		prev = cur
	}
	r.queue = append(r.queue, injected{kind: injectEnd, p: to})
}

// queuePinch queues two presses and interpolated two-contact moves. The
// second press resolves classification at once, so no hold is needed.
func (r *ScriptRunner) queuePinch(st scriptStep) {
	a0, a1 := Vec2{st.FromX, st.FromY}, Vec2{st.ToX, st.ToY}
	b0, b1 := Vec2{st.From2X, st.From2Y}, Vec2{st.To2X, st.To2Y}
	r.queue = append(r.queue,
		injected{kind: injectStart, p: a0},
		injected{kind: injectStart, p: b0},
	)
	steps := max(1, st.Frames-2)
	pa, pb := a0, b0
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		ca, cb := lerp(a0, a1, t), lerp(b0, b1, t)
		r.queue = append(r.queue, injected{kind: injectMove, move: MoveEvent{
			Touches:    []Vec2{ca, cb},
			PreTouches: []Vec2{pa, pb},
		}})
		pa, pb = ca, cb
	}
	r.queue = append(r.queue, injected{kind: injectEnd, p: a1})
}

func lerp(a, b Vec2, t float64) Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}
