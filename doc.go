// Package retouch is a touch-driven image retouching engine.
//
// A photograph is loaded into a canvas, panned and zoomed with one and two
// finger gestures, and painted with a binary mask. Painted regions render in
// grayscale ([ModeColor]) or keep their color while everything else turns
// gray ([ModeGray]). A magnifier shows the area under the finger while
// painting, and [Engine.Output] encodes the result at source resolution.
//
// # Quick start
//
// The engine renders through a [Backend]. [NewSoftwareBackend] needs no GPU;
// the ebitengine sub-package provides a shader backend and a window host:
//
//	eng, err := retouch.New(retouch.NewSoftwareBackend(), retouch.Config{
//		CanvasWidth: 300, CanvasHeight: 300,
//	})
//	if err != nil {
//		return err
//	}
//	defer eng.Destroy()
//
//	eng.Reset(img)
//	eng.SwitchMode(retouch.ModeColor)
//	eng.TouchStart(retouch.Vec2{X: 150, Y: 150})
//	eng.Update(100 * time.Millisecond) // classify the touch
//	eng.TouchMove(retouch.MoveEvent{Touches: []retouch.Vec2{{X: 170, Y: 160}}})
//	eng.TouchEnd(retouch.Vec2{X: 170, Y: 160})
//	png, err := eng.Output()
//
// # Coordinates
//
// Touch points are in canvas pixels, origin top-left, Y down. The image
// quad is centred on its local origin and placed by [ViewTransform] as
// translate * rotate * scale. The mask lives in image-local space, so it is
// never redrawn when the view changes.
//
// # Gestures
//
// A first contact waits [Config.Debounce] for a second finger before it is
// classified, and is dropped if it does not land on the image. Time only
// advances through [Engine.Update]. One finger pans in [ModeMove] and paints
// otherwise; two fingers zoom around their midpoint, and rotate when
// [Config.EnableRotation] is set. Zoom is clamped to
// [Config.MinScale, Config.MaxScale] when the gesture ends.
//
// # Events
//
// [Engine.On] subscribes to [EventModeChange], [EventReset] and
// [EventOutput]. [Engine.Destroy] removes every subscriber.
//
// # Scripts
//
// [LoadScript] parses a JSON list of touch actions that a [ScriptRunner]
// replays one frame at a time, for demos and automated checks.
//
// # Logging
//
// Nothing is logged by default. [SetLogger] installs a [log/slog] logger.
package retouch
