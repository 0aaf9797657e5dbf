package ebitengine

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/retouch"
)

// Game hosts an engine as an ebiten.Game. Touches are forwarded in press
// order; the mouse acts as a single touch when no finger is down.
//
// Keys: M, C and G switch mode, S writes the output, Escape quits.
type Game struct {
	engine *retouch.Engine
	cfg    RunConfig

	justPressed []ebiten.TouchID
	order       []ebiten.TouchID
	last        map[ebiten.TouchID]retouch.Vec2

	mouseDown bool
	mouseLast retouch.Vec2

	frameOp ebiten.DrawImageOptions
	status  string
}

// NewGame wraps engine. The engine must render through a Backend from this
// package.
func NewGame(engine *retouch.Engine, cfg RunConfig) *Game {
	return &Game{
		engine: engine,
		cfg:    cfg.withDefaults(),
		last:   make(map[ebiten.TouchID]retouch.Vec2),
	}
}

// Update runs the script, forwards input and advances engine time by one
// tick.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if s := g.cfg.Script; s != nil && !s.Done() {
		if err := s.Step(g.engine); err != nil {
			return fmt.Errorf("script: %w", err)
		}
	}
	g.processKeys()
	g.processTouches()
	if len(g.order) == 0 {
		g.processMouse()
	}
	g.engine.Update(time.Second / time.Duration(ebiten.TPS()))
	return nil
}

func (g *Game) processKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		g.engine.SwitchMode(retouch.ModeMove)
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.engine.SwitchMode(retouch.ModeColor)
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		g.engine.SwitchMode(retouch.ModeGray)
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		path, err := g.engine.WriteOutput(g.cfg.OutputDir, "retouch")
		switch {
		case err != nil:
			retouch.Logger().Warn("ebitengine: write output", "err", err)
			g.status = "output failed"
		case path == "":
			g.status = "no image loaded"
		default:
			g.status = "saved " + path
		}
	}
}

func (g *Game) processTouches() {
	g.justPressed = inpututil.AppendJustPressedTouchIDs(g.justPressed[:0])
	for _, id := range g.justPressed {
		x, y := ebiten.TouchPosition(id)
		p := retouch.Vec2{X: float64(x), Y: float64(y)}
		g.order = append(g.order, id)
		g.last[id] = p
		g.engine.TouchStart(p)
	}

	var cur, prev []retouch.Vec2
	moved := false
	for _, id := range g.order {
		if inpututil.IsTouchJustReleased(id) || len(cur) == 2 {
			continue
		}
		x, y := ebiten.TouchPosition(id)
		p := retouch.Vec2{X: float64(x), Y: float64(y)}
		if p != g.last[id] {
			moved = true
		}
		cur = append(cur, p)
		prev = append(prev, g.last[id])
		g.last[id] = p
	}
	if moved {
		g.engine.TouchMove(retouch.MoveEvent{Touches: cur, PreTouches: prev})
	}

	kept := g.order[:0]
	for _, id := range g.order {
		if inpututil.IsTouchJustReleased(id) {
			g.engine.TouchEnd(g.last[id])
			delete(g.last, id)
			continue
		}
		kept = append(kept, id)
	}
	g.order = kept
}

func (g *Game) processMouse() {
	x, y := ebiten.CursorPosition()
	p := retouch.Vec2{X: float64(x), Y: float64(y)}
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.mouseDown = true
		g.mouseLast = p
		g.engine.TouchStart(p)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		if g.mouseDown {
			g.mouseDown = false
			g.engine.TouchEnd(p)
		}
	case g.mouseDown && p != g.mouseLast:
		g.engine.TouchMove(retouch.MoveEvent{
			Touches:    []retouch.Vec2{p},
			PreTouches: []retouch.Vec2{g.mouseLast},
		})
		g.mouseLast = p
	}
}

// Draw presents the engine frame. Frame rows are stored bottom-up, so the
// image is flipped vertically.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.cfg.ClearColor)
	frame := Image(g.engine.Frame())
	if frame == nil {
		return
	}
	h := float64(frame.Bounds().Dy())
	g.frameOp.GeoM.Reset()
	g.frameOp.GeoM.Scale(1, -1)
	g.frameOp.GeoM.Translate(0, h)
	screen.DrawImage(frame, &g.frameOp)

	if g.cfg.ShowHUD {
		v := g.engine.View()
		msg := fmt.Sprintf("mode: %s  gesture: %s  zoom: %.2f\nFPS: %.1f",
			g.engine.Mode(), g.engine.State(), v.Scale, ebiten.ActualFPS())
		if g.status != "" {
			msg += "\n" + g.status
		}
		ebitenutil.DebugPrintAt(screen, msg, 4, int(h)-48)
	}
}

// Layout returns the canvas size.
func (g *Game) Layout(_, _ int) (int, int) {
	w, h := g.engine.Frame().Size()
	return w, h
}

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title string
	// Width and Height are the window size. Defaults to the canvas size.
	Width, Height int
	// ShowHUD draws mode, gesture state and FPS over the frame.
	ShowHUD bool
	// OutputDir receives files written with the S key. Default ".".
	OutputDir string
	// ClearColor fills the window behind the frame.
	ClearColor color.Color
	// Script, when set, is replayed one step per tick.
	Script *retouch.ScriptRunner
	// ExitOnScriptDone quits once the script has run.
	ExitOnScriptDone bool
}

func (c RunConfig) withDefaults() RunConfig {
	if c.Title == "" {
		c.Title = "retouch"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.ClearColor == nil {
		c.ClearColor = color.NRGBA{R: 0x1e, G: 0x1e, B: 0x28, A: 0xff}
	}
	return c
}

// Run opens a window and blocks until it is closed.
func Run(engine *retouch.Engine, cfg RunConfig) error {
	g := NewGame(engine, cfg)
	w, h := engine.Frame().Size()
	if g.cfg.Width <= 0 || g.cfg.Height <= 0 {
		g.cfg.Width, g.cfg.Height = w, h
	}
	ebiten.SetWindowTitle(g.cfg.Title)
	ebiten.SetWindowSize(g.cfg.Width, g.cfg.Height)
	var game ebiten.Game = g
	if g.cfg.ExitOnScriptDone && g.cfg.Script != nil {
		game = &scriptedGame{Game: g}
	}
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// scriptedGame stops the loop once the script finishes.
type scriptedGame struct {
	*Game
}

func (s *scriptedGame) Update() error {
	if err := s.Game.Update(); err != nil {
		return err
	}
	if s.cfg.Script.Done() {
		return ebiten.Termination
	}
	return nil
}
