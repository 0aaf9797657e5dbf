package retouch

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/draw"
)

// state is everything a gesture or a mode switch may change. It is owned by
// one Engine and only mutated from its methods.
type state struct {
	mode Mode
	// paintMode is the last paint mode selected. It decides how the
	// composite pass reads the mask and survives switches to ModeMove.
	paintMode Mode
	view      ViewTransform

	source  *image.NRGBA
	display Size

	// previewOn asks render to draw the magnifier at previewAt;
	// previewShown records whether the current frame carries it.
	previewOn    bool
	previewAt    Vec2
	previewShown bool
}

// Engine is one retouching canvas. All methods must be called from the same
// goroutine, normally the host's update loop.
type Engine struct {
	backend Backend
	cfg     Config
	st      state

	bus     *EventBus
	sched   *Scheduler
	gesture *GestureInterpreter
	settle  *settleTween
	pool    *surfacePool

	frame     Surface
	sourceTex Surface
	picking   *PickingLayer
	mask      *PaintMaskLayer
	composite *CompositeRenderer
	preview   *PreviewMagnifier

	destroyed bool
}

// New probes the backend, prepares every program and allocates the
// canvas-sized surfaces. Any failure is final and no engine is returned.
func New(b Backend, cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if cfg.CanvasWidth <= 0 || cfg.CanvasHeight <= 0 {
		return nil, fmt.Errorf("retouch: invalid canvas size %dx%d", cfg.CanvasWidth, cfg.CanvasHeight)
	}
	if b == nil || !b.Supported() {
		return nil, ErrUnsupported
	}
	for _, p := range Programs {
		if err := b.Prepare(p); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrProgram, p, err)
		}
	}

	frame, err := b.NewSurface(cfg.CanvasWidth, cfg.CanvasHeight, SurfaceColor)
	if err != nil {
		return nil, fmt.Errorf("retouch: frame surface: %w", err)
	}
	picking, err := newPickingLayer(b, cfg.CanvasWidth, cfg.CanvasHeight, cfg.PickID)
	if err != nil {
		frame.Dispose()
		return nil, fmt.Errorf("retouch: picking surface: %w", err)
	}

	e := &Engine{
		backend:   b,
		cfg:       cfg,
		bus:       NewEventBus(),
		sched:     &Scheduler{},
		pool:      newSurfacePool(b),
		frame:     frame,
		picking:   picking,
		composite: newCompositeRenderer(),
	}
	e.st.mode = ModeMove
	e.st.paintMode = ModeColor
	e.preview = newPreviewMagnifier(e.pool, cfg.PreviewSize, cfg.PreviewRatio, cfg.PreviewRect)
	e.gesture = newGestureInterpreter(e, e.sched, cfg.Debounce)
	e.render()
	return e, nil
}

// Reset loads img, fits it inside the canvas, centres it with no rotation
// and unit scale, and clears the mask.
func (e *Engine) Reset(img image.Image) error {
	if e.destroyed {
		return ErrDestroyed
	}
	b := img.Bounds()
	if b.Empty() {
		return ErrEmptyImage
	}
	src := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)

	tex, err := e.backend.NewSurface(b.Dx(), b.Dy(), SurfaceColor)
	if err != nil {
		return fmt.Errorf("retouch: source texture: %w", err)
	}
	tex.WritePixels(src.Pix)

	w, h := float64(b.Dx()), float64(b.Dy())
	fit := fitScale(w, h, float64(e.cfg.CanvasWidth), float64(e.cfg.CanvasHeight))
	display := Size{W: w * fit, H: h * fit}
	mask, err := newPaintMaskLayer(e.backend, display, e.cfg.SplashSize, !e.cfg.NoStrokeCaps)
	if err != nil {
		tex.Dispose()
		return fmt.Errorf("retouch: mask surface: %w", err)
	}

	e.gesture.Cancel()
	e.settle = nil
	if e.sourceTex != nil {
		e.sourceTex.Dispose()
	}
	if e.mask != nil {
		e.mask.dispose()
	}
	e.sourceTex = tex
	e.mask = mask
	e.st.source = src
	e.st.display = display
	e.st.previewOn = false
	e.st.view = ViewTransform{
		TranslateX: float64(e.cfg.CanvasWidth) / 2,
		TranslateY: float64(e.cfg.CanvasHeight) / 2,
		Scale:      1,
	}
	e.render()

	Logger().Info("retouch: image loaded",
		"width", b.Dx(), "height", b.Dy(),
		"display_w", display.W, "display_h", display.H)
	e.bus.Emit(Event{Type: EventReset, Display: display})
	return nil
}

// SwitchMode selects how drags are routed. Selecting a paint mode also
// changes how the existing mask is interpreted; nothing is repainted.
func (e *Engine) SwitchMode(m Mode) {
	if e.destroyed {
		return
	}
	prev := e.st.mode
	e.st.mode = m
	if m.painting() {
		e.st.paintMode = m
	}
	e.render()
	e.bus.Emit(Event{Type: EventModeChange, Mode: m, PrevMode: prev})
}

// Mode returns the current mode.
func (e *Engine) Mode() Mode { return e.st.mode }

// On subscribes fn to events of type t.
func (e *Engine) On(t EventType, fn func(Event)) SubscriptionID {
	return e.bus.On(t, fn)
}

// Off removes a subscription made with On.
func (e *Engine) Off(t EventType, id SubscriptionID) {
	e.bus.Off(t, id)
}

// TouchStart feeds a pointer-down at screen point p.
func (e *Engine) TouchStart(p Vec2) {
	if e.destroyed {
		return
	}
	if e.settle != nil {
		e.st.view = e.settle.Finish()
		e.settle = nil
	}
	e.gesture.TouchStart(p)
}

// TouchMove feeds a pointer-move sample.
func (e *Engine) TouchMove(m MoveEvent) {
	if e.destroyed {
		return
	}
	e.gesture.TouchMove(m)
}

// TouchEnd feeds a pointer-up at screen point p.
func (e *Engine) TouchEnd(p Vec2) {
	if e.destroyed {
		return
	}
	e.gesture.TouchEnd(p)
}

// Update advances time by dt: pending gesture classification fires and a
// settle animation moves one step.
func (e *Engine) Update(dt time.Duration) {
	if e.destroyed {
		return
	}
	e.sched.Advance(dt)
	if e.settle != nil {
		e.st.view = e.settle.Update(dt, e.st.view)
		if e.settle.Done {
			e.settle = nil
		}
		e.render()
	}
}

// TestHit reports whether screen point p lands on the image as currently
// placed. It re-renders the picking buffer.
func (e *Engine) TestHit(p Vec2) bool {
	if e.destroyed || e.st.source == nil {
		return false
	}
	hit := e.picking.TestHit(p, e.st.view, e.st.display)
	Logger().Debug("retouch: hit test", "x", p.X, "y", p.Y, "hit", hit)
	return hit
}

// render redraws the frame and the picking buffer for the current state.
func (e *Engine) render() {
	e.frame.Clear(e.cfg.Background)
	e.st.previewShown = false
	if e.st.source == nil {
		return
	}
	fw, fh := e.frame.Size()
	proj := Ortho(0, float64(fw), 0, float64(fh))
	e.composite.Draw(e.frame, placement(proj, e.st.view), e.st.display,
		e.sourceTex, e.mask.Surface(), invertFor(e.st.paintMode))
	e.picking.Render(e.st.view, e.st.display)
	if e.st.previewOn {
		// The mask brush is fixed in image pixels, so its screen size follows the zoom.
		brush := e.cfg.SplashSize * e.st.view.Scale
		if err := e.preview.Show(e.frame, e.st.previewAt, brush); err != nil {
			Logger().Warn("retouch: preview", "err", err)
		} else {
			e.st.previewShown = true
		}
	}
}

// Destroy detaches every subscriber, cancels pending timers and releases
// all surfaces. Later calls are no-ops.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.bus.Clear()
	e.gesture.Cancel()
	e.sched.StopAll()
	e.settle = nil
	e.pool.Dispose()
	if e.mask != nil {
		e.mask.dispose()
		e.mask = nil
	}
	if e.sourceTex != nil {
		e.sourceTex.Dispose()
		e.sourceTex = nil
	}
	e.picking.dispose()
	e.frame.Dispose()
	e.st.source = nil
}

// View returns the current view transform.
func (e *Engine) View() ViewTransform { return e.st.view }

// DisplaySize returns the fitted image size, zero before the first Reset.
func (e *Engine) DisplaySize() Size { return e.st.display }

// Frame returns the rendered frame surface.
func (e *Engine) Frame() Surface { return e.frame }

// Mask returns the paint mask, nil before the first Reset.
func (e *Engine) Mask() *PaintMaskLayer { return e.mask }

// State returns the gesture state.
func (e *Engine) State() GestureState { return e.gesture.State() }

// Settling reports whether a settle animation is running.
func (e *Engine) Settling() bool { return e.settle != nil }

// PreviewVisible reports whether the magnifier is drawn on the frame.
func (e *Engine) PreviewVisible() bool { return e.st.previewShown }

// Snapshot returns the frame as an image with the top row first.
func (e *Engine) Snapshot() *image.NRGBA {
	w, h := e.frame.Size()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, e.frame.ReadPixels(img.Rect))
	flipRows(img.Pix, w, h)
	return img
}

// gestureHandler

func (e *Engine) mode() Mode { return e.st.mode }

func (e *Engine) hitTest(p Vec2) bool { return e.TestHit(p) }

func (e *Engine) pan(d Vec2) {
	e.st.view = panView(e.st.view, d)
	e.render()
}

func (e *Engine) pinch(prev, cur [2]Vec2) {
	e.st.view = pinchView(e.st.view, prev, cur, e.cfg.EnableRotation)
	e.render()
}

func (e *Engine) stroke(from, to Vec2) {
	e.mask.Stroke(from, to, e.st.view)
	e.st.previewOn = true
	e.st.previewAt = to
	e.render()
}

func (e *Engine) tap(p Vec2) {
	e.mask.Dab(p, e.st.view)
	e.render()
}

func (e *Engine) release(p Vec2, kind GestureState) {
	// A paint stroke gets one last preview at the release point; the next
	// render drops it.
	e.st.previewOn = kind == StateSingleActive && e.st.mode.painting()
	e.st.previewAt = p
	target, changed := clampView(e.st.view, p, e.cfg.MinScale, e.cfg.MaxScale)
	if changed {
		Logger().Debug("retouch: scale clamped", "gesture", kind.String(),
			"from", e.st.view.Scale, "to", target.Scale)
		if e.cfg.SettleDuration > 0 {
			e.settle = newSettleTween(e.st.view, target, e.cfg.SettleDuration, e.cfg.SettleEase)
		} else {
			e.st.view = target
		}
	}
	e.render()
	e.st.previewOn = false
}
