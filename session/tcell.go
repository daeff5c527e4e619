package session

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/tui-counter/terminal"
	"github.com/lixenwraith/tui-counter/terminal/tui"
)

// TcellSession drives the terminal through a tcell.Screen.
// PollEvent selects on the screen's event and stop queues with a timer.
type TcellSession struct {
	screen tcell.Screen
	cells  []terminal.Cell
	log    zerolog.Logger

	once sync.Once
}

func openTcell(opts Options) (*TcellSession, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, &terminal.OpError{Op: "init", Err: err}
	}
	return OpenScreen(screen, opts.Logger)
}

// OpenScreen initializes screen and wraps it as a registered session
func OpenScreen(screen tcell.Screen, log zerolog.Logger) (*TcellSession, error) {
	if err := screen.Init(); err != nil {
		return nil, &terminal.OpError{Op: "init", Err: err}
	}
	screen.HideCursor()
	screen.Clear()

	s := &TcellSession{
		screen: screen,
		log:    log,
	}
	register(s)
	return s, nil
}

// Draw renders a blank frame sized to the screen and shows it
func (s *TcellSession) Draw(render func(frame tui.Region)) error {
	w, h := s.screen.Size()
	if cap(s.cells) < w*h {
		s.cells = make([]terminal.Cell, w*h)
	}
	s.cells = s.cells[:w*h]
	clear(s.cells)

	render(tui.NewRegion(s.cells, w, 0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := s.cells[y*w+x]
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			s.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		}
	}
	s.screen.Show()
	return nil
}

// PollEvent waits at most timeout for one event tcell can be mapped to
func (s *TcellSession) PollEvent(timeout time.Duration) (terminal.Event, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	events, stop := s.screen.EventQ(), s.screen.StopQ()
	for {
		select {
		case ev := <-events:
			if out, ok := convertEvent(ev); ok {
				return out, true, nil
			}
		case <-stop:
			return terminal.Event{}, false, &terminal.OpError{Op: "read", Err: terminal.ErrInputClosed}
		case <-timer.C:
			return terminal.Event{}, false, nil
		}
	}
}

// Restore finalizes the tcell screen, which leaves alternate screen and raw mode
func (s *TcellSession) Restore() error {
	s.once.Do(func() {
		unregister(s)
		s.screen.Fini()
		s.log.Debug().Msg("session restored")
	})
	return nil
}

var tcellKeys = map[tcell.Key]terminal.Key{
	tcell.KeyUp:         terminal.KeyUp,
	tcell.KeyDown:       terminal.KeyDown,
	tcell.KeyLeft:       terminal.KeyLeft,
	tcell.KeyRight:      terminal.KeyRight,
	tcell.KeyHome:       terminal.KeyHome,
	tcell.KeyEnd:        terminal.KeyEnd,
	tcell.KeyPgUp:       terminal.KeyPageUp,
	tcell.KeyPgDn:       terminal.KeyPageDown,
	tcell.KeyInsert:     terminal.KeyInsert,
	tcell.KeyDelete:     terminal.KeyDelete,
	tcell.KeyEnter:      terminal.KeyEnter,
	tcell.KeyTab:        terminal.KeyTab,
	tcell.KeyBacktab:    terminal.KeyBacktab,
	tcell.KeyEscape:     terminal.KeyEscape,
	tcell.KeyBackspace:  terminal.KeyBackspace,
	tcell.KeyBackspace2: terminal.KeyBackspace,
	tcell.KeyCtrlC:      terminal.KeyCtrlC,
}

// convertEvent maps tcell events onto terminal events; tcell reports presses only
func convertEvent(ev tcell.Event) (terminal.Event, bool) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		out := terminal.Event{
			Type:      terminal.EventKey,
			Modifiers: convertModifiers(e.Modifiers()),
		}
		if e.Key() == tcell.KeyRune {
			out.Key = terminal.KeyRune
			out.Rune = e.Rune()
			// Shift is already folded into the rune
			out.Modifiers &^= terminal.ModShift
			return out, true
		}
		key, ok := tcellKeys[e.Key()]
		if !ok {
			key = terminal.KeyNone
		}
		out.Key = key
		return out, true
	case *tcell.EventResize:
		w, h := e.Size()
		return terminal.Event{Type: terminal.EventResize, Width: w, Height: h}, true
	case *tcell.EventFocus:
		return terminal.Event{Type: terminal.EventFocus}, true
	}
	return terminal.Event{}, false
}

func convertModifiers(m tcell.ModMask) terminal.Modifier {
	var out terminal.Modifier
	if m&tcell.ModShift != 0 {
		out |= terminal.ModShift
	}
	if m&tcell.ModAlt != 0 {
		out |= terminal.ModAlt
	}
	if m&tcell.ModCtrl != 0 {
		out |= terminal.ModCtrl
	}
	return out
}
