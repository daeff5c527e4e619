package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/tui-counter/terminal"
	"github.com/lixenwraith/tui-counter/terminal/tui"
)

// NativeSession drives the terminal through direct ANSI output
type NativeSession struct {
	term  terminal.Terminal
	cells []terminal.Cell
	log   zerolog.Logger

	once sync.Once
}

func openNative(opts Options) (*NativeSession, error) {
	term := terminal.New(terminal.WithEnhancedKeys(opts.EnhancedKeys))
	return OpenTerminal(term, opts.Logger)
}

// OpenTerminal initializes term and wraps it as a registered session
func OpenTerminal(term terminal.Terminal, log zerolog.Logger) (*NativeSession, error) {
	if err := term.Init(); err != nil {
		return nil, err
	}
	s := &NativeSession{term: term, log: log}
	register(s)
	return s, nil
}

// Draw renders a blank frame sized to the terminal and flushes it
func (s *NativeSession) Draw(render func(frame tui.Region)) error {
	w, h := s.term.Size()
	if cap(s.cells) < w*h {
		s.cells = make([]terminal.Cell, w*h)
	}
	s.cells = s.cells[:w*h]
	clear(s.cells)

	render(tui.NewRegion(s.cells, w, 0, 0, w, h))
	return s.term.Flush(s.cells, w, h)
}

// PollEvent waits at most timeout for one input event
func (s *NativeSession) PollEvent(timeout time.Duration) (terminal.Event, bool, error) {
	return s.term.PollEvent(timeout)
}

// Restore leaves alternate screen and raw mode
func (s *NativeSession) Restore() error {
	var err error
	s.once.Do(func() {
		unregister(s)
		err = s.term.Fini()
		s.log.Debug().Err(err).Msg("session restored")
	})
	return err
}
