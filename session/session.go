// Package session acquires and releases the interactive terminal.
//
// A Session is exclusively owned by the entry point, handed to the app loop
// for its duration, and restored exactly once on every exit path. The most
// recently opened session is registered process-wide so Guard can restore it
// when a panic unwinds main.
package session

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/tui-counter/app"
)

// Backend names accepted by Open
const (
	BackendNative = "native"
	BackendTcell  = "tcell"
)

// Backends lists the accepted backend names
func Backends() []string {
	return []string{BackendNative, BackendTcell}
}

// ValidBackend reports whether name is an accepted backend
func ValidBackend(name string) bool {
	for _, b := range Backends() {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}

// Session is a live terminal the app loop can draw to and poll
type Session interface {
	app.Screen

	// Restore returns the terminal to its pre-program state.
	// Only the first call acts, later calls return nil.
	Restore() error
}

// Options selects and tunes the backend
type Options struct {
	Backend      string
	EnhancedKeys bool
	Logger       zerolog.Logger
}

// Open switches the terminal to alternate screen and raw mode and registers the session for Guard
func Open(opts Options) (Session, error) {
	var (
		s   Session
		err error
	)

	switch strings.ToLower(opts.Backend) {
	case "", BackendNative:
		s, err = openNative(opts)
	case BackendTcell:
		s, err = openTcell(opts)
	default:
		return nil, fmt.Errorf("unknown backend %q (want one of %s)", opts.Backend, strings.Join(Backends(), ", "))
	}
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug().Str("backend", opts.Backend).Msg("session opened")
	return s, nil
}
