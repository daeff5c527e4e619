package terminal

import (
	"io"
	"os"
	"sync"
	"time"
)

// Terminal provides low-level terminal access
type Terminal interface {
	// Init enters raw mode, alternate screen buffer, hides cursor
	Init() error

	// Fini restores terminal state. Safe to call multiple times, only the first call acts
	Fini() error

	// Size returns current terminal dimensions
	Size() (width, height int)

	// Flush writes cell buffer to terminal
	// Cells are row-major: cells[y*width + x]
	Flush(cells []Cell, width, height int) error

	// PollEvent waits at most timeout for the next input event
	// Returns ok=false when the timeout elapsed with no event
	PollEvent(timeout time.Duration) (ev Event, ok bool, err error)
}

// Option configures a Terminal created by New
type Option func(*termImpl)

// WithBackend replaces the platform backend, used by tests and alternate devices
func WithBackend(b Backend) Option {
	return func(t *termImpl) {
		t.backend = b
	}
}

// WithEnhancedKeys toggles the kitty keyboard protocol request on Init
func WithEnhancedKeys(enabled bool) Option {
	return func(t *termImpl) {
		t.enhancedKeys = enabled
	}
}

// termImpl implements Terminal using the Backend interface
type termImpl struct {
	backend      Backend
	enhancedKeys bool

	output  *outputBuffer
	decoder *inputDecoder
	queue   []Event

	// Arrival of the pending escape prefix
	escapeAt time.Time

	width  int
	height int

	mu          sync.Mutex
	initialized bool
	finalized   bool
}

// New creates a new Terminal instance bound to stdin/stdout unless a backend is supplied
func New(opts ...Option) Terminal {
	t := &termImpl{
		enhancedKeys: true,
		decoder:      newInputDecoder(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.backend == nil {
		t.backend = newBackend()
	}

	t.output = newOutputBuffer(backendWriter{b: t.backend})
	return t
}

// Init enters raw mode and sets up terminal
func (t *termImpl) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}

	// Initialize backend (raw mode)
	if err := t.backend.Init(); err != nil {
		return wrapOp("init", err)
	}

	t.width, t.height = t.backend.Size()
	t.output.resize(t.width, t.height)

	// Enter alternate screen, hide cursor, disable auto-wrap
	// Auto-wrap off prevents terminal scroll on bottom-right corner write
	seqs := [][]byte{csiAltScreenEnter, csiCursorHide, csiAutoWrapOff}
	if t.enhancedKeys {
		seqs = append(seqs, csiKeyboardPush)
	}
	if err := t.output.raw(seqs...); err != nil {
		t.backend.Fini()
		return wrapOp("write", err)
	}

	if err := t.output.clear(); err != nil {
		t.backend.Fini()
		return wrapOp("write", err)
	}

	t.initialized = true
	return nil
}

// Fini restores terminal state
func (t *termImpl) Fini() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return nil
	}
	t.finalized = true

	var seqs [][]byte
	if t.enhancedKeys {
		seqs = append(seqs, csiKeyboardPop)
	}
	// Re-enable auto-wrap after leaving alt screen so the main buffer has wrap enabled
	seqs = append(seqs, csiCursorShow, csiAltScreenExit, csiAutoWrapOn, csiSGR0)
	writeErr := t.output.raw(seqs...)

	// Backend cleanup runs even if the escape sequences failed
	finiErr := t.backend.Fini()

	if writeErr != nil {
		return wrapOp("write", writeErr)
	}
	return wrapOp("restore", finiErr)
}

// Size returns current terminal dimensions
func (t *termImpl) Size() (int, int) {
	return t.backend.Size()
}

// Flush writes cell buffer to terminal
func (t *termImpl) Flush(cells []Cell, width, height int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return nil
	}

	return wrapOp("write", t.output.flush(cells, width, height))
}

// PollEvent returns queued events first, then waits on the backend for at most timeout.
// An ambiguous escape prefix resolves once escapeTimeout has passed since it
// arrived; when the caller's deadline comes first it stays pending for the next poll.
func (t *termImpl) PollEvent(timeout time.Duration) (Event, bool, error) {
	if ev, ok := t.checkResize(); ok {
		return ev, true, nil
	}

	if ev, ok := t.dequeue(); ok {
		return ev, true, nil
	}

	deadline := time.Now().Add(timeout)
	for {
		wait := max(time.Until(deadline), 0)
		escapeWait := false
		if t.decoder.pendingEscape() {
			if left := max(escapeTimeout-time.Since(t.escapeAt), 0); left <= wait {
				wait = left
				escapeWait = true
			}
		}

		data, err := t.backend.Read(wait)
		if err != nil {
			return Event{}, false, wrapOp("read", err)
		}

		if len(data) > 0 {
			wasPending := t.decoder.pendingEscape()
			t.queue = append(t.queue, t.decoder.feed(data)...)
			if t.decoder.pendingEscape() && !wasPending {
				t.escapeAt = time.Now()
			}
		} else if escapeWait {
			if ev, ok := t.decoder.flushEscape(); ok {
				t.queue = append(t.queue, ev)
			}
		}

		if ev, ok := t.dequeue(); ok {
			return ev, true, nil
		}
		if ev, ok := t.checkResize(); ok {
			return ev, true, nil
		}

		// Keep waiting after a swallowed sequence or a fresh escape prefix
		if time.Until(deadline) <= 0 || len(data) == 0 && !escapeWait {
			return Event{}, false, nil
		}
	}
}

// dequeue pops the oldest decoded event
func (t *termImpl) dequeue() (Event, bool) {
	if len(t.queue) == 0 {
		return Event{}, false
	}
	ev := t.queue[0]
	t.queue = t.queue[1:]
	if len(t.queue) == 0 {
		t.queue = nil
	}
	return ev, true
}

// checkResize compares backend size with the last known size
func (t *termImpl) checkResize() (Event, bool) {
	w, h := t.backend.Size()
	if w == t.width && h == t.height {
		return Event{}, false
	}
	t.width, t.height = w, h
	return Event{Type: EventResize, Width: w, Height: h}, true
}

// EmergencyReset attempts to restore terminal to sane state
// Call this from panic recovery if Fini() cannot be called normally
func EmergencyReset(w io.Writer) {
	w.Write(csiKeyboardPop)
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)
	w.Write(csiRIS)

	// Flush if it's a file
	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Attempt raw mode reset via termios - escape sequences alone don't restore it
	// This is best-effort; ignore errors in crash context
	resetTerminalMode()
}
