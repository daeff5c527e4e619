package session

import (
	"bytes"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/tui-counter/app"
	"github.com/lixenwraith/tui-counter/terminal"
	"github.com/lixenwraith/tui-counter/terminal/tui"
)

// fakeTerminal records lifecycle calls and the last flushed frame
type fakeTerminal struct {
	w, h    int
	events  []terminal.Event
	initErr error
	finiErr error

	initCalls int
	finiCalls int
	flushed   []terminal.Cell
}

func (f *fakeTerminal) Init() error {
	f.initCalls++
	return f.initErr
}

func (f *fakeTerminal) Fini() error {
	f.finiCalls++
	return f.finiErr
}

func (f *fakeTerminal) Size() (int, int) { return f.w, f.h }

func (f *fakeTerminal) Flush(cells []terminal.Cell, w, h int) error {
	f.flushed = append(f.flushed[:0], cells...)
	return nil
}

func (f *fakeTerminal) PollEvent(timeout time.Duration) (terminal.Event, bool, error) {
	if len(f.events) == 0 {
		return terminal.Event{}, false, nil
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, true, nil
}

func (f *fakeTerminal) line(y int) string {
	return tui.NewRegion(f.flushed, f.w, 0, 0, f.w, f.h).Line(y)
}

func TestNativeSessionRunsApp(t *testing.T) {
	ft := &fakeTerminal{w: 30, h: 3, events: []terminal.Event{
		{Type: terminal.EventKey, Key: terminal.KeyUp},
		{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: 'q'},
	}}

	s, err := OpenTerminal(ft, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenTerminal failed: %v", err)
	}
	if Active() != s {
		t.Error("Expected opened session to be registered")
	}

	a := app.New()
	if err := a.Run(s); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := strings.TrimRight(ft.line(0), " "); got != "Counter: 1" {
		t.Errorf("Expected last frame Counter: 1, got %q", got)
	}

	if err := s.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if Active() != nil {
		t.Error("Expected restored session to be unregistered")
	}
}

func TestNativeSessionRestoreOnce(t *testing.T) {
	ft := &fakeTerminal{w: 10, h: 1, finiErr: errors.New("tcsetattr")}
	s, err := OpenTerminal(ft, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenTerminal failed: %v", err)
	}

	if err := s.Restore(); err == nil {
		t.Error("Expected first Restore to report failure")
	}
	if err := s.Restore(); err != nil {
		t.Errorf("Expected later Restore to be a no-op, got %v", err)
	}
	if ft.finiCalls != 1 {
		t.Errorf("Expected one Fini, got %d", ft.finiCalls)
	}
}

func TestNativeSessionInitFailure(t *testing.T) {
	ft := &fakeTerminal{w: 10, h: 1, initErr: &terminal.OpError{Op: "init", Err: terminal.ErrNotTerminal}}
	s, err := OpenTerminal(ft, zerolog.Nop())
	if err == nil || s != nil {
		t.Fatalf("Expected init failure, got session=%v err=%v", s, err)
	}
	if !errors.Is(err, terminal.ErrNotTerminal) {
		t.Errorf("Expected ErrNotTerminal, got %v", err)
	}
	if Active() != nil {
		t.Error("Failed open must not register a session")
	}
}

func TestNativeSessionDrawClearsPreviousFrame(t *testing.T) {
	ft := &fakeTerminal{w: 12, h: 1}
	s, err := OpenTerminal(ft, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenTerminal failed: %v", err)
	}
	defer s.Restore()

	s.Draw(func(frame tui.Region) { frame.Text(0, 0, "Counter: -10") })
	s.Draw(func(frame tui.Region) { frame.Text(0, 0, "Counter: 5") })

	if got := ft.line(0); got != "Counter: 5  " {
		t.Errorf("Expected fresh frame, got %q", got)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(Options{Backend: "curses", Logger: zerolog.Nop()}); err == nil {
		t.Fatal("Expected error for unknown backend")
	}
}

func TestValidBackend(t *testing.T) {
	for _, name := range []string{"native", "tcell", "TCELL"} {
		if !ValidBackend(name) {
			t.Errorf("Expected %q to be valid", name)
		}
	}
	if ValidBackend("curses") {
		t.Error("Expected curses to be invalid")
	}
}

func newSimScreen(t *testing.T, w, h int) (tcell.SimulationScreen, *TcellSession) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	s, err := OpenScreen(sim, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenScreen failed: %v", err)
	}
	sim.SetSize(w, h)
	return sim, s
}

// nextKey skips resize and focus events tcell posts on its own
func nextKey(t *testing.T, s *TcellSession) terminal.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ev, ok, err := s.PollEvent(app.PollInterval)
		if err != nil {
			t.Fatalf("PollEvent failed: %v", err)
		}
		if ok && ev.Type == terminal.EventKey {
			return ev
		}
	}
	t.Fatal("Timed out waiting for key event")
	return terminal.Event{}
}

func TestTcellSessionDraw(t *testing.T) {
	sim, s := newSimScreen(t, 30, 3)
	defer s.Restore()

	a := app.New(app.WithCounter(-4))
	if err := s.Draw(a.Render); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	var sb strings.Builder
	for x := 0; x < 30; x++ {
		r, _, _, _ := sim.GetContent(x, 0)
		sb.WriteRune(r)
	}
	if got := strings.TrimRight(sb.String(), " "); got != "Counter: -4" {
		t.Errorf("Expected Counter: -4 on screen, got %q", got)
	}
}

func TestTcellSessionKeyEvents(t *testing.T) {
	sim, s := newSimScreen(t, 30, 3)
	defer s.Restore()

	sim.InjectKey(tcell.KeyRune, 'k', tcell.ModNone)
	ev := nextKey(t, s)
	if ev.Key != terminal.KeyRune || ev.Rune != 'k' || ev.Action != terminal.KeyActionPress {
		t.Errorf("Expected k press, got %+v", ev)
	}

	sim.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
	ev = nextKey(t, s)
	if ev.Key != terminal.KeyDown {
		t.Errorf("Expected Down, got %+v", ev)
	}
}

func TestTcellSessionTimeout(t *testing.T) {
	_, s := newSimScreen(t, 10, 1)
	defer s.Restore()

	// Drain events posted during init
	for {
		_, ok, err := s.PollEvent(20 * time.Millisecond)
		if err != nil {
			t.Fatalf("PollEvent failed: %v", err)
		}
		if !ok {
			break
		}
	}

	start := time.Now()
	_, ok, err := s.PollEvent(50 * time.Millisecond)
	if err != nil || ok {
		t.Fatalf("Expected timeout, got ok=%v err=%v", ok, err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("PollEvent returned early after %v", elapsed)
	}
}

func TestTcellSessionStartsNoGoroutine(t *testing.T) {
	_, s := newSimScreen(t, 10, 1)
	defer s.Restore()

	buf := make([]byte, 1<<20)
	stacks := string(buf[:runtime.Stack(buf, true)])
	for _, frame := range []string{"session.OpenScreen", "session.(*TcellSession)"} {
		if strings.Contains(stacks, frame) {
			t.Errorf("Expected no goroutine running %s, stacks:\n%s", frame, stacks)
		}
	}
}

func TestTcellSessionPollAfterRestore(t *testing.T) {
	_, s := newSimScreen(t, 10, 1)
	s.Restore()

	// Buffered init events may still drain before the stop queue is seen
	for i := 0; i < 16; i++ {
		_, ok, err := s.PollEvent(app.PollInterval)
		if err != nil {
			if !errors.Is(err, terminal.ErrInputClosed) {
				t.Fatalf("Expected ErrInputClosed, got %v", err)
			}
			return
		}
		if !ok {
			t.Fatal("Expected closed input, got timeout")
		}
	}
	t.Fatal("Expected closed input after restore")
}

func TestTcellSessionRestoreIdempotent(t *testing.T) {
	_, s := newSimScreen(t, 10, 1)
	if Active() != s {
		t.Error("Expected tcell session to be registered")
	}
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if err := s.Restore(); err != nil {
		t.Fatalf("Second Restore failed: %v", err)
	}
	if Active() != nil {
		t.Error("Expected session to be unregistered")
	}
}

func TestConvertModifiersFoldShiftIntoRune(t *testing.T) {
	ev, ok := convertEvent(tcell.NewEventKey(tcell.KeyRune, 'Q', tcell.ModShift))
	if !ok || ev.Rune != 'Q' || ev.Modifiers != terminal.ModNone {
		t.Errorf("Expected bare Q, got %+v", ev)
	}

	ev, ok = convertEvent(tcell.NewEventKey(tcell.KeyRune, 'k', tcell.ModAlt))
	if !ok || ev.Modifiers != terminal.ModAlt {
		t.Errorf("Expected Alt modifier kept, got %+v", ev)
	}
}

func TestGuardRestoresAndRepanics(t *testing.T) {
	ft := &fakeTerminal{w: 10, h: 1}
	if _, err := OpenTerminal(ft, zerolog.Nop()); err != nil {
		t.Fatalf("OpenTerminal failed: %v", err)
	}

	crash := errors.New("boom")
	defer func() {
		r := recover()
		if r != crash {
			t.Fatalf("Expected original panic value, got %v", r)
		}
		if ft.finiCalls != 1 {
			t.Errorf("Expected terminal restored once, got %d", ft.finiCalls)
		}
		if Active() != nil {
			t.Error("Expected session unregistered after crash restore")
		}
	}()

	func() {
		defer Guard()
		panic(crash)
	}()
}

func TestGuardWithoutPanicIsNoop(t *testing.T) {
	ft := &fakeTerminal{w: 10, h: 1}
	s, err := OpenTerminal(ft, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenTerminal failed: %v", err)
	}
	defer s.Restore()

	func() {
		defer Guard()
	}()

	if ft.finiCalls != 0 {
		t.Errorf("Guard must not restore without a panic, got %d Fini calls", ft.finiCalls)
	}
}

func TestGuardWithoutSessionRepanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "early" {
			t.Fatalf("Expected original panic value, got %v", r)
		}
	}()

	func() {
		defer Guard()
		panic("early")
	}()
}

// stubSession fails Restore by error or panic
type stubSession struct {
	*fakeTerminal
	restoreErr   error
	restorePanic bool
	restores     int
}

func (s *stubSession) Draw(render func(frame tui.Region)) error { return nil }

func (s *stubSession) Restore() error {
	s.restores++
	if s.restorePanic {
		panic("restore exploded")
	}
	return s.restoreErr
}

func TestRestoreForCrashFallsBackToEmergencyReset(t *testing.T) {
	tests := []struct {
		name string
		s    *stubSession
	}{
		{"restore error", &stubSession{fakeTerminal: &fakeTerminal{}, restoreErr: errors.New("tcsetattr")}},
		{"restore panic", &stubSession{fakeTerminal: &fakeTerminal{}, restorePanic: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			restoreForCrash(tc.s, &out)

			if tc.s.restores != 1 {
				t.Errorf("Expected one restore attempt, got %d", tc.s.restores)
			}
			for _, seq := range []string{"\x1b[?1049l", "\x1b[?25h", "\x1bc"} {
				if !strings.Contains(out.String(), seq) {
					t.Errorf("Expected emergency reset output to contain %q, got %q", seq, out.String())
				}
			}
		})
	}
}

func TestRestoreForCrashSkipsResetOnSuccess(t *testing.T) {
	var out bytes.Buffer
	s := &stubSession{fakeTerminal: &fakeTerminal{}}
	restoreForCrash(s, &out)

	if s.restores != 1 {
		t.Errorf("Expected one restore, got %d", s.restores)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no emergency output after clean restore, got %q", out.String())
	}
}

func TestRestoreForCrashWithoutSession(t *testing.T) {
	var out bytes.Buffer
	restoreForCrash(nil, &out)
	if out.Len() != 0 {
		t.Errorf("Expected terminal untouched without a session, got %q", out.String())
	}
}
