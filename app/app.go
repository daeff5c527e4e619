package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/tui-counter/terminal"
	"github.com/lixenwraith/tui-counter/terminal/tui"
)

// PollInterval bounds how long Update waits for input before returning
const PollInterval = 100 * time.Millisecond

// Screen is the terminal surface the loop draws to and reads input from
type Screen interface {
	// Draw hands render a blank frame sized to the terminal and presents it
	Draw(render func(frame tui.Region)) error

	// PollEvent waits at most timeout for one input event
	PollEvent(timeout time.Duration) (ev terminal.Event, ok bool, err error)
}

// App holds the counter and run state.
// Counter arithmetic wraps on overflow (two's complement), no clamping.
type App struct {
	counter int64
	state   RunState

	pollInterval time.Duration
	log          zerolog.Logger
}

// Option configures an App
type Option func(*App)

// WithLogger attaches a logger, default discards
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) {
		a.log = l
	}
}

// WithPollInterval overrides the input wait
func WithPollInterval(d time.Duration) Option {
	return func(a *App) {
		a.pollInterval = d
	}
}

// WithCounter sets the starting counter value
func WithCounter(v int64) Option {
	return func(a *App) {
		a.counter = v
	}
}

// New returns an App with counter 0 in the Running state
func New(opts ...Option) *App {
	a := &App{
		state:        Running,
		pollInterval: PollInterval,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Counter returns the current counter value
func (a *App) Counter() int64 {
	return a.counter
}

// State returns the current run state
func (a *App) State() RunState {
	return a.state
}

// Run draws and updates until the quit key is pressed.
// Any draw or input error aborts the loop and is returned unchanged.
func (a *App) Run(screen Screen) error {
	a.log.Info().Int64("counter", a.counter).Msg("loop started")

	for a.state == Running {
		if err := screen.Draw(a.Render); err != nil {
			a.log.Error().Err(err).Msg("draw failed")
			return fmt.Errorf("draw frame: %w", err)
		}
		if err := a.Update(screen); err != nil {
			a.log.Error().Err(err).Msg("poll failed")
			return fmt.Errorf("poll input: %w", err)
		}
	}

	a.log.Info().Int64("counter", a.counter).Msg("loop finished")
	return nil
}

// Update waits at most the poll interval for one event and applies it.
// Non-key events are ignored; a timeout changes nothing.
func (a *App) Update(screen Screen) error {
	ev, ok, err := screen.PollEvent(a.pollInterval)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	switch ev.Type {
	case terminal.EventKey:
		a.HandleKeyEvent(ev)
	case terminal.EventResize:
		a.log.Debug().Int("width", ev.Width).Int("height", ev.Height).Msg("resize")
	}
	return nil
}

// HandleKeyEvent applies a key press; releases and repeats are ignored.
//
//	q          -> Done
//	j, Down    -> counter - 1
//	k, Up      -> counter + 1
func (a *App) HandleKeyEvent(ev terminal.Event) {
	if ev.Type != terminal.EventKey || ev.Action != terminal.KeyActionPress {
		return
	}

	switch keyAction(ev) {
	case actionQuit:
		a.state = Done
	case actionDecrement:
		a.counter--
	case actionIncrement:
		a.counter++
	default:
		return
	}

	a.log.Debug().
		Str("key", describeKey(ev)).
		Int64("counter", a.counter).
		Stringer("state", a.state).
		Msg("key handled")
}

type keyActionKind uint8

const (
	actionNone keyActionKind = iota
	actionQuit
	actionDecrement
	actionIncrement
)

// keyAction maps a key to its effect; character keys are case-sensitive and
// ignored when Ctrl or Alt is held
func keyAction(ev terminal.Event) keyActionKind {
	switch ev.Key {
	case terminal.KeyDown:
		return actionDecrement
	case terminal.KeyUp:
		return actionIncrement
	case terminal.KeyRune:
		if ev.Modifiers&(terminal.ModCtrl|terminal.ModAlt) != 0 {
			return actionNone
		}
		switch ev.Rune {
		case 'q':
			return actionQuit
		case 'j':
			return actionDecrement
		case 'k':
			return actionIncrement
		}
	}
	return actionNone
}

func describeKey(ev terminal.Event) string {
	if ev.Key == terminal.KeyRune {
		return string(ev.Rune)
	}
	return ev.Key.String()
}
