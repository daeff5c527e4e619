package session

import (
	"io"
	"os"
	"sync"

	"github.com/lixenwraith/tui-counter/terminal"
)

var active struct {
	mu sync.Mutex
	s  Session
}

func register(s Session) {
	active.mu.Lock()
	active.s = s
	active.mu.Unlock()
}

func unregister(s Session) {
	active.mu.Lock()
	if active.s == s {
		active.s = nil
	}
	active.mu.Unlock()
}

// Active returns the registered session, nil when none is open
func Active() Session {
	active.mu.Lock()
	defer active.mu.Unlock()
	return active.s
}

// Guard is the process failure hook. Defer it first in main:
//
//	defer session.Guard()
//
// On panic it restores the active session, then re-panics with the original
// value so the runtime's crash report is unchanged. Restore failures are not
// reported; they fall back to EmergencyReset.
func Guard() {
	r := recover()
	if r == nil {
		return
	}
	restoreForCrash(Active(), os.Stdout)
	panic(r)
}

// restoreForCrash restores s without letting a secondary failure mask the
// original crash; on failure the reset sequences go to w
func restoreForCrash(s Session, w io.Writer) {
	if s == nil {
		return
	}
	defer func() {
		if recover() != nil {
			terminal.EmergencyReset(w)
		}
	}()
	if err := s.Restore(); err != nil {
		terminal.EmergencyReset(w)
	}
}
