package main

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/robalobadob/geoquest/internal/game"
)

const frameRate = 100 * time.Millisecond

// App drives one session on a terminal screen.
type App struct {
	screen tcell.Screen
	sess   *game.Session

	vp      Viewport
	msg     string
	lastBtn tcell.ButtonMask
}

func NewApp(screen tcell.Screen, sess *game.Session) *App {
	return &App{screen: screen, sess: sess}
}

// Run polls input on a goroutine and ticks the round timer once a second
// until the player quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	defer close(quit)
	go a.poll(events, quit)

	ticks := time.NewTicker(time.Second)
	defer ticks.Stop()
	frames := time.NewTicker(frameRate)
	defer frames.Stop()

	a.draw()
	for {
		select {
		case <-ctx.Done():
			a.sess.Abort()
			return
		case ev, ok := <-events:
			if !ok || !a.handle(ev) {
				a.sess.Abort()
				return
			}
			a.draw()
		case <-ticks.C:
			a.sess.Tick()
		case <-frames.C:
			a.draw()
		}
	}
}

// poll forwards screen events until the screen is finalized or quit closes.
func (a *App) poll(events chan<- tcell.Event, quit <-chan struct{}) {
	defer close(events)
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-quit:
			return
		}
	}
}

// handle applies one input event. It returns false when the player quits.
func (a *App) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q', 'Q':
				return false
			case 'r', 'R':
				a.msg = ""
				a.sess.Start()
			}
		}
	case *tcell.EventMouse:
		btn := ev.Buttons()
		pressed := btn&tcell.Button1 != 0 && a.lastBtn&tcell.Button1 == 0
		a.lastBtn = btn
		if pressed {
			a.click(ev.Position())
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

func (a *App) click(x, y int) {
	p, ok := a.vp.ToCanvas(x, y)
	if !ok {
		return
	}
	switch a.sess.Click(p) {
	case game.OutcomeWrong:
		a.msg = "Not that one, try again"
	case game.OutcomeNone:
		a.msg = "Click closer to a line"
	}
}

func (a *App) draw() {
	a.screen.Clear()
	v := a.sess.Snapshot()
	a.vp = Draw(a.screen, v, statusLine(v, a.msg))
	a.screen.Show()
}
