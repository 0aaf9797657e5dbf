package retouch

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
	"time"
)

// --- construction ---

type stubBackend struct {
	*SoftwareBackend
	unsupported bool
	failOn      Program
	failErr     error
}

func (b *stubBackend) Supported() bool { return !b.unsupported }

func (b *stubBackend) Prepare(p Program) error {
	if b.failErr != nil && p == b.failOn {
		return b.failErr
	}
	return b.SoftwareBackend.Prepare(p)
}

func TestNewUnsupported(t *testing.T) {
	b := &stubBackend{SoftwareBackend: NewSoftwareBackend(), unsupported: true}
	e, err := New(b, Config{CanvasWidth: 10, CanvasHeight: 10})
	if !errors.Is(err, ErrUnsupported) || e != nil {
		t.Errorf("New = %v, %v; want nil, ErrUnsupported", e, err)
	}
}

func TestNewProgramFailure(t *testing.T) {
	compile := errors.New("compile failed")
	b := &stubBackend{SoftwareBackend: NewSoftwareBackend(), failOn: ProgramComposite, failErr: compile}
	e, err := New(b, Config{CanvasWidth: 10, CanvasHeight: 10})
	if e != nil {
		t.Fatal("engine returned despite program failure")
	}
	if !errors.Is(err, ErrProgram) || !errors.Is(err, compile) {
		t.Errorf("err = %v, want ErrProgram wrapping the backend error", err)
	}
}

func TestNewInvalidCanvas(t *testing.T) {
	if _, err := New(NewSoftwareBackend(), Config{}); err == nil {
		t.Error("New accepted a zero canvas")
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.MinScale != 0.5 || c.MaxScale != 3 || c.SplashSize != 10 {
		t.Errorf("scale/splash defaults = %v %v %v", c.MinScale, c.MaxScale, c.SplashSize)
	}
	if c.Debounce != 100*time.Millisecond || c.PickID != 1 || c.JPEGQuality != 90 {
		t.Errorf("debounce/pick/quality defaults = %v %v %v", c.Debounce, c.PickID, c.JPEGQuality)
	}
	if c.PreviewRect != (Rect{X: 8, Y: 8, Width: 100, Height: 100}) {
		t.Errorf("preview rect = %+v", c.PreviewRect)
	}
}

// --- reset ---

func TestResetFitsAndCentres(t *testing.T) {
	e := newTestEngine(t, Config{})
	if err := e.Reset(solidImage(200, 100, testRed)); err != nil {
		t.Fatal(err)
	}
	if d := e.DisplaySize(); d != (Size{W: 300, H: 150}) {
		t.Errorf("DisplaySize = %+v, want 300x150", d)
	}
	want := ViewTransform{TranslateX: 150, TranslateY: 150, Scale: 1}
	if v := e.View(); v != want {
		t.Errorf("View = %+v, want %+v", v, want)
	}
	if s := e.Mask().Size(); s != e.DisplaySize() {
		t.Errorf("mask size %+v differs from display size", s)
	}
	if e.Mode() != ModeMove {
		t.Errorf("initial mode = %s, want move", e.Mode())
	}
}

func TestResetEmptyImage(t *testing.T) {
	e := newTestEngine(t, Config{})
	if err := e.Reset(image.NewNRGBA(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Reset = %v, want ErrEmptyImage", err)
	}
}

func TestResetClearsMaskAndView(t *testing.T) {
	e := newTestEngine(t, Config{})
	e.Reset(solidImage(300, 300, testRed))
	e.SwitchMode(ModeColor)
	e.TouchStart(Vec2{150, 150})
	e.TouchEnd(Vec2{150, 150})
	e.SwitchMode(ModeMove)
	e.TouchStart(Vec2{150, 150})
	classify(e)
	e.TouchMove(move(Vec2{170, 150}))

	e.Reset(solidImage(300, 300, testRed))
	if n := countPainted(e.Mask().Pixels()); n != 0 {
		t.Errorf("painted pixels after Reset = %d", n)
	}
	if e.View().TranslateX != 150 || e.State() != StateIdle {
		t.Errorf("view %+v state %s after Reset", e.View(), e.State())
	}
}

// --- gestures through the engine ---

func TestPanMovesTranslation(t *testing.T) {
	e := newTestEngine(t, Config{})
	e.Reset(solidImage(200, 100, testRed))
	e.TouchStart(Vec2{150, 150})
	classify(e)
	e.TouchMove(move(Vec2{160, 155}))
	e.TouchEnd(Vec2{160, 155})
	v := e.View()
	assertNear(t, "tx", v.TranslateX, 160)
	assertNear(t, "ty", v.TranslateY, 155)
	// The image now spans y 80..230.
	if !e.TestHit(Vec2{150, 228}) || e.TestHit(Vec2{150, 78}) {
		t.Error("hit test does not follow the pan")
	}
}

func TestTouchOffImageIsDiscarded(t *testing.T) {
	e := newTestEngine(t, Config{})
	e.Reset(solidImage(200, 100, testRed))
	e.TouchStart(Vec2{10, 10})
	classify(e)
	if e.State() != StateIdle {
		t.Fatalf("state = %s, want idle", e.State())
	}
	e.TouchMove(move(Vec2{20, 15}))
	if e.View().TranslateX != 150 {
		t.Error("discarded touch panned the image")
	}
}

func pinch(e *Engine, prev, cur [2]Vec2, end Vec2) {
	e.TouchStart(prev[0])
	e.TouchStart(prev[1])
	e.TouchMove(MoveEvent{Touches: cur[:], PreTouches: prev[:]})
	e.TouchEnd(end)
}

func TestPinchZoom(t *testing.T) {
	tests := []struct {
		name      string
		cur       [2]Vec2
		wantScale float64
	}{
		{"double", [2]Vec2{{100, 150}, {200, 150}}, 2},
		{"quadruple clamps", [2]Vec2{{50, 150}, {250, 150}}, 3},
		{"shrink clamps", [2]Vec2{{145, 150}, {155, 150}}, 0.5},
	}
	prev := [2]Vec2{{125, 150}, {175, 150}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, Config{})
			e.Reset(solidImage(200, 100, testRed))
			pinch(e, prev, tt.cur, Vec2{150, 150})
			v := e.View()
			assertNear(t, "scale", v.Scale, tt.wantScale)
			assertNear(t, "tx", v.TranslateX, 150)
			assertNear(t, "ty", v.TranslateY, 150)
		})
	}
}

func TestScaleClampedAfterAnyPinchSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := newTestEngine(t, Config{})
	e.Reset(solidImage(300, 300, testRed))
	for round := 0; round < 50; round++ {
		c := Vec2{150, 150}
		e.Reset(solidImage(300, 300, testRed))
		// Pinches zoom in every mode, so the clamp must hold in each.
		e.SwitchMode([]Mode{ModeMove, ModeColor, ModeGray}[round%3])
		e.TouchStart(Vec2{c.X - 10, c.Y})
		e.TouchStart(Vec2{c.X + 10, c.Y})
		prev := [2]Vec2{{c.X - 10, c.Y}, {c.X + 10, c.Y}}
		for i := 0; i < 5; i++ {
			half := 1 + rng.Float64()*60
			cur := [2]Vec2{{c.X - half, c.Y}, {c.X + half, c.Y}}
			e.TouchMove(MoveEvent{Touches: cur[:], PreTouches: prev[:]})
			prev = cur
		}
		e.TouchEnd(prev[0])
		if s := e.View().Scale; s < 0.5-epsilon || s > 3+epsilon {
			t.Fatalf("round %d: scale %v outside [0.5, 3]", round, s)
		}
	}
}

func TestRotationOptional(t *testing.T) {
	prev := [2]Vec2{{125, 150}, {175, 150}}
	cur := [2]Vec2{{150, 125}, {150, 175}}
	for _, enabled := range []bool{false, true} {
		e := newTestEngine(t, Config{EnableRotation: enabled})
		e.Reset(solidImage(200, 100, testRed))
		pinch(e, prev, cur, Vec2{150, 150})
		want := 0.0
		if enabled {
			want = 90
		}
		assertNear(t, "rotation", e.View().Rotation, want)
	}
}

func TestSettleAnimatesClamp(t *testing.T) {
	e := newTestEngine(t, Config{SettleDuration: 100 * time.Millisecond})
	e.Reset(solidImage(200, 100, testRed))
	pinch(e, [2]Vec2{{125, 150}, {175, 150}}, [2]Vec2{{50, 150}, {250, 150}}, Vec2{150, 150})

	if !e.Settling() {
		t.Fatal("no settle animation after an out-of-range zoom")
	}
	assertNear(t, "scale before update", e.View().Scale, 4)
	e.Update(50 * time.Millisecond)
	if s := e.View().Scale; s <= 3 || s >= 4 {
		t.Errorf("mid-settle scale = %v, want in (3, 4)", s)
	}
	e.Update(100 * time.Millisecond)
	if e.Settling() {
		t.Error("settle still running after its duration")
	}
	assertNear(t, "settled scale", e.View().Scale, 3)
}

func TestTouchStartFinishesSettle(t *testing.T) {
	e := newTestEngine(t, Config{SettleDuration: time.Second})
	e.Reset(solidImage(200, 100, testRed))
	pinch(e, [2]Vec2{{125, 150}, {175, 150}}, [2]Vec2{{50, 150}, {250, 150}}, Vec2{150, 150})
	e.TouchStart(Vec2{150, 150})
	if e.Settling() {
		t.Error("settle survived a new touch")
	}
	assertNear(t, "scale", e.View().Scale, 3)
}

// --- painting and composite ---

// paintStroke paints (50,50)->(60,60) on a 300x300 image that fills a
// 300x300 canvas, so screen and mask coordinates coincide.
func paintStroke(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.Reset(solidImage(300, 300, testRed)); err != nil {
		t.Fatal(err)
	}
	e.SwitchMode(ModeColor)
	e.TouchStart(Vec2{50, 50})
	classify(e)
	e.TouchMove(move(Vec2{60, 60}))
	if !e.PreviewVisible() {
		t.Error("preview hidden while painting")
	}
	e.TouchEnd(Vec2{60, 60})
	if !e.PreviewVisible() {
		t.Error("preview not refreshed at touch end")
	}
}

func TestStrokeEndRefreshesPreviewOnce(t *testing.T) {
	e := newTestEngine(t, Config{})
	paintStroke(t, e)
	// The touch ended inside the default preview rectangle, so the preview
	// sits in the top-right corner and magnifies the painted end point.
	if got := pixelAt(e.Snapshot(), 242, 58); got != testRedGray {
		t.Errorf("preview centre = %v, want %v", got, testRedGray)
	}

	e.SwitchMode(ModeColor)
	if e.PreviewVisible() {
		t.Error("preview survived the next render")
	}
	if got := pixelAt(e.Snapshot(), 242, 58); got != testRed {
		t.Errorf("pixel under the old preview = %v, want %v", got, testRed)
	}
}

func TestPanEndShowsNoPreview(t *testing.T) {
	e := newTestEngine(t, Config{})
	e.Reset(solidImage(300, 300, testRed))
	e.TouchStart(Vec2{150, 150})
	classify(e)
	e.TouchMove(move(Vec2{160, 150}))
	e.TouchEnd(Vec2{160, 150})
	if e.PreviewVisible() {
		t.Error("preview shown after a pan")
	}
}

func TestZoomedStrokeKeepsMaskWidth(t *testing.T) {
	e := newTestEngine(t, Config{})
	e.Reset(solidImage(300, 300, testRed))
	pinch(e, [2]Vec2{{100, 150}, {200, 150}}, [2]Vec2{{50, 150}, {250, 150}}, Vec2{150, 150})
	assertNear(t, "scale", e.View().Scale, 2)

	e.SwitchMode(ModeColor)
	e.TouchStart(Vec2{100, 150})
	classify(e)
	e.TouchMove(move(Vec2{200, 150}))
	// Brush ring: SplashSize 10 at zoom 2, magnified 2x around (58, 58).
	if got := pixelAt(e.Snapshot(), 97, 58); got != colorBrush {
		t.Errorf("ring pixel = %v, want %v", got, colorBrush)
	}
	e.TouchEnd(Vec2{200, 150})

	// The segment lands on mask y = 150 and keeps a half-width of 10 mask
	// pixels whatever the zoom.
	tests := []struct {
		x, y int
		want bool
	}{
		{150, 150, true},
		{150, 158, true},
		{150, 142, true},
		{150, 162, false},
		{150, 137, false},
	}
	for _, tt := range tests {
		if got := e.Mask().Painted(tt.x, tt.y); got != tt.want {
			t.Errorf("Painted(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPaintStrokeRendersGray(t *testing.T) {
	e := newTestEngine(t, Config{})
	paintStroke(t, e)

	if !e.Mask().Painted(55, 55) {
		t.Error("mask not painted on the stroke")
	}
	if e.Mask().Painted(55, 30) {
		t.Error("mask painted away from the stroke")
	}
	snap := e.Snapshot()
	if got := pixelAt(snap, 55, 55); got != testRedGray {
		t.Errorf("stroke pixel = %v, want %v", got, testRedGray)
	}
	if got := pixelAt(snap, 200, 200); got != testRed {
		t.Errorf("unpainted pixel = %v, want %v", got, testRed)
	}
}

func TestSwitchModeInvertsWithoutRepaint(t *testing.T) {
	e := newTestEngine(t, Config{})
	paintStroke(t, e)
	before := e.Mask().Pixels()

	e.SwitchMode(ModeGray)
	if !bytes.Equal(before, e.Mask().Pixels()) {
		t.Error("mode switch changed the mask")
	}
	snap := e.Snapshot()
	if got := pixelAt(snap, 55, 55); got != testRed {
		t.Errorf("painted pixel in gray mode = %v, want %v", got, testRed)
	}
	if got := pixelAt(snap, 200, 200); got != testRedGray {
		t.Errorf("unpainted pixel in gray mode = %v, want %v", got, testRedGray)
	}

	e.SwitchMode(ModeMove)
	if got := pixelAt(e.Snapshot(), 55, 55); got != testRed {
		t.Errorf("move mode changed the interpretation: %v", got)
	}
}

func TestTapPaintsDab(t *testing.T) {
	e := newTestEngine(t, Config{})
	e.Reset(solidImage(200, 100, testRed))
	e.SwitchMode(ModeGray)
	e.TouchStart(Vec2{150, 150})
	e.TouchEnd(Vec2{150, 150})
	if !e.Mask().Painted(150, 75) {
		t.Error("tap did not paint")
	}
	if e.State() != StateIdle {
		t.Errorf("state after tap = %s", e.State())
	}
}

func TestPaintFollowsZoomedView(t *testing.T) {
	e := newTestEngine(t, Config{})
	e.Reset(solidImage(300, 300, testRed))
	pinch(e, [2]Vec2{{100, 150}, {200, 150}}, [2]Vec2{{50, 150}, {250, 150}}, Vec2{150, 150})
	e.SwitchMode(ModeColor)
	// At 2x around the centre, screen (200,150) shows mask (175,150).
	e.TouchStart(Vec2{200, 150})
	e.TouchEnd(Vec2{200, 150})
	if !e.Mask().Painted(175, 150) {
		t.Error("dab not projected through the zoom")
	}
	if e.Mask().Painted(200, 150) {
		t.Error("dab painted at the unprojected screen point")
	}
}

// --- output ---

func TestOutputBeforeReset(t *testing.T) {
	e := newTestEngine(t, Config{})
	data, err := e.Output()
	if data != nil || err != nil {
		t.Errorf("Output = %v, %v; want nil, nil", data, err)
	}
}

func TestOutputAtSourceResolution(t *testing.T) {
	e := newTestEngine(t, Config{})
	e.Reset(solidImage(200, 100, testRed))
	e.SwitchMode(ModeColor)
	e.TouchStart(Vec2{150, 150})
	e.TouchEnd(Vec2{150, 150})
	// Zoom and pan must not affect the export.
	e.SwitchMode(ModeMove)
	pinch(e, [2]Vec2{{125, 150}, {175, 150}}, [2]Vec2{{100, 150}, {200, 150}}, Vec2{150, 150})

	data, err := e.Output()
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("output = %dx%d, want 200x100", b.Dx(), b.Dy())
	}
	if got := color.NRGBAModel.Convert(img.At(100, 50)); got != testRedGray {
		t.Errorf("painted source pixel = %v, want %v", got, testRedGray)
	}
	if got := color.NRGBAModel.Convert(img.At(10, 10)); got != testRed {
		t.Errorf("unpainted source pixel = %v, want %v", got, testRed)
	}
}

func TestOutputJPEG(t *testing.T) {
	e := newTestEngine(t, Config{Format: FormatJPEG})
	e.Reset(solidImage(64, 32, testRed))
	data, err := e.Output()
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("output = %dx%d, want 64x32", b.Dx(), b.Dy())
	}
}

// --- events and lifecycle ---

func TestModeChangeEvent(t *testing.T) {
	e := newTestEngine(t, Config{})
	var got []Event
	id := e.On(EventModeChange, func(ev Event) { got = append(got, ev) })
	e.SwitchMode(ModeGray)
	e.Off(EventModeChange, id)
	e.SwitchMode(ModeColor)
	if len(got) != 1 {
		t.Fatalf("events = %d, want 1", len(got))
	}
	if got[0].Mode != ModeGray || got[0].PrevMode != ModeMove {
		t.Errorf("event = %+v", got[0])
	}
}

func TestResetAndOutputEvents(t *testing.T) {
	e := newTestEngine(t, Config{})
	var resets, outputs []Event
	e.On(EventReset, func(ev Event) { resets = append(resets, ev) })
	e.On(EventOutput, func(ev Event) { outputs = append(outputs, ev) })
	e.Reset(solidImage(200, 100, testRed))
	data, _ := e.Output()
	if len(resets) != 1 || resets[0].Display != (Size{W: 300, H: 150}) {
		t.Errorf("reset events = %+v", resets)
	}
	if len(outputs) != 1 || outputs[0].Bytes != len(data) {
		t.Errorf("output events = %+v", outputs)
	}
}

func TestDestroy(t *testing.T) {
	e, err := New(NewSoftwareBackend(), Config{CanvasWidth: 100, CanvasHeight: 100})
	if err != nil {
		t.Fatal(err)
	}
	e.Reset(solidImage(10, 10, testRed))
	calls := 0
	e.On(EventModeChange, func(Event) { calls++ })
	e.TouchStart(Vec2{50, 50})

	e.Destroy()
	e.Destroy()
	e.SwitchMode(ModeGray)
	e.TouchStart(Vec2{50, 50})
	e.Update(time.Second)
	if calls != 0 {
		t.Error("subscriber called after Destroy")
	}
	if e.State() != StateIdle {
		t.Errorf("state after Destroy = %s", e.State())
	}
	if err := e.Reset(solidImage(10, 10, testRed)); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Reset after Destroy = %v", err)
	}
	if _, err := e.Output(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Output after Destroy = %v", err)
	}
	if e.TestHit(Vec2{50, 50}) {
		t.Error("hit after Destroy")
	}
}
