package terminal

import (
	"time"
	"unicode/utf8"
)

// EventType distinguishes input event categories
type EventType uint8

const (
	EventKey EventType = iota
	EventResize
	EventFocus // Focus in/out reports, decoded but carries no payload
)

// Event represents a terminal input event
type Event struct {
	Type      EventType
	Key       Key
	Rune      rune
	Modifiers Modifier
	Action    KeyAction // Press unless the terminal reports otherwise
	Width     int       // For EventResize
	Height    int       // For EventResize
}

// escapeTimeout is the duration to wait after ESC to distinguish
// standalone ESC from escape sequence start
const escapeTimeout = 50 * time.Millisecond

// maxPendingSequence bounds how long an unterminated escape sequence may grow before it is dropped
const maxPendingSequence = 64

// inputDecoder assembles raw bytes into events.
// Bytes of an incomplete escape or UTF-8 sequence stay buffered until the next feed.
type inputDecoder struct {
	// Persistent buffer for stream assembly, not fixed size to avoid corrupting partial UTF-8 at boundary
	buf []byte
}

func newInputDecoder() *inputDecoder {
	return &inputDecoder{buf: make([]byte, 0, 256)}
}

// feed appends data and returns every complete event in arrival order
func (d *inputDecoder) feed(data []byte) []Event {
	d.buf = append(d.buf, data...)

	var events []Event
	consumed := d.parse(d.buf, func(ev Event) {
		events = append(events, ev)
	})

	// Compact buffer
	if consumed > 0 {
		if consumed >= len(d.buf) {
			d.buf = d.buf[:0]
		} else {
			copy(d.buf, d.buf[consumed:])
			d.buf = d.buf[:len(d.buf)-consumed]
		}
	}

	// Runaway sequence without terminator
	if len(d.buf) > maxPendingSequence {
		d.buf = d.buf[:0]
	}
	return events
}

// pendingEscape reports whether the buffer holds only an ambiguous escape
// prefix: a lone ESC, or ESC followed by the CSI/SS3 introducer that legacy
// terminals also send for Alt+[ and Alt+O
func (d *inputDecoder) pendingEscape() bool {
	switch len(d.buf) {
	case 1:
		return d.buf[0] == 0x1b
	case 2:
		return d.buf[0] == 0x1b && (d.buf[1] == '[' || d.buf[1] == 'O')
	}
	return false
}

// flushEscape resolves a pending prefix as Escape, Alt+[ or Alt+O
func (d *inputDecoder) flushEscape() (Event, bool) {
	if !d.pendingEscape() {
		return Event{}, false
	}
	ev := Event{Type: EventKey, Key: KeyEscape}
	if len(d.buf) == 2 {
		ev = Event{Type: EventKey, Key: KeyRune, Rune: rune(d.buf[1]), Modifiers: ModAlt}
	}
	d.buf = d.buf[:0]
	return ev, true
}

// parse parses raw bytes into events and returns bytes consumed (stop on incomplete sequence)
func (d *inputDecoder) parse(data []byte, emit func(Event)) int {
	i := 0
	n := len(data)

	for i < n {
		b := data[i]

		// Fast path: printable ASCII
		if b >= 0x20 && b < 0x7f {
			emit(Event{Type: EventKey, Key: KeyRune, Rune: rune(b)})
			i++
			continue
		}

		// Escape sequence
		if b == 0x1b {
			// Need at least 2 bytes to determine sequence type
			if i+1 >= n {
				return i // Wait for more data
			}

			consumed, ev := parseEscape(data[i:])
			if consumed == 0 {
				// Incomplete sequence, wait for more data
				return i
			}

			// Only emit if not a swallowed unknown sequence
			if ev.Key != KeyNone || ev.Type != EventKey {
				emit(ev)
			}
			i += consumed
			continue
		}

		// Control characters
		if b < 0x20 {
			emit(parseControl(b))
			i++
			continue
		}

		// DEL
		if b == 0x7f {
			emit(Event{Type: EventKey, Key: KeyBackspace})
			i++
			continue
		}

		// UTF-8 multibyte
		if !utf8.FullRune(data[i:]) {
			// Incomplete UTF-8, wait for more data
			return i
		}
		rn, size := utf8.DecodeRune(data[i:])
		if rn != utf8.RuneError {
			emit(Event{Type: EventKey, Key: KeyRune, Rune: rn})
		}
		i += size
	}
	return i
}

// parseEscape attempts to parse an escape sequence, returns 0 on incomplete
func parseEscape(data []byte) (int, Event) {
	if len(data) < 2 {
		return 0, Event{} // Incomplete, wait for more
	}

	// ESC ESC -> Alt+Escape
	if data[1] == 0x1b {
		return 2, Event{Type: EventKey, Key: KeyEscape, Modifiers: ModAlt}
	}

	if data[1] == '[' {
		return parseCSI(data)
	}
	if data[1] == 'O' {
		return parseSS3(data)
	}

	// Alt+Control character (ESC + 0x00-0x1F)
	if data[1] < 0x20 {
		ev := parseControl(data[1])
		ev.Modifiers |= ModAlt
		return 2, ev
	}

	// Alt+printable
	if data[1] >= 0x20 && data[1] < 0x7f {
		return 2, Event{Type: EventKey, Key: KeyRune, Rune: rune(data[1]), Modifiers: ModAlt}
	}

	// Unknown, drop the ESC alone
	return 1, Event{Type: EventKey, Key: KeyNone}
}

// parseCSI parses ESC [ params final
func parseCSI(data []byte) (int, Event) {
	if len(data) < 3 {
		return 0, Event{}
	}

	end := 2
	for end < len(data) {
		b := data[end]
		if b >= 0x40 && b <= 0x7e {
			break
		}
		if b < 0x20 || b > 0x3f {
			// Malformed, consume up to the offending byte
			return end, Event{Type: EventKey, Key: KeyNone}
		}
		end++
	}
	if end >= len(data) {
		return 0, Event{} // Incomplete
	}

	final := data[end]
	body := data[2:end]
	consumed := end + 1

	// Private-marker sequences (mouse, mode reports) are swallowed
	if len(body) > 0 && body[0] >= '<' && body[0] <= '?' {
		return consumed, Event{Type: EventKey, Key: KeyNone}
	}

	params := parseParams(body)

	switch final {
	case 'u':
		return consumed, decodeKitty(params)
	case '~':
		key, ok := csiTildeKeys[param(params, 0, 0, 0)]
		if !ok {
			return consumed, Event{Type: EventKey, Key: KeyNone}
		}
		return consumed, keyEvent(key, params)
	case 'I', 'O':
		if len(body) == 0 {
			return consumed, Event{Type: EventFocus}
		}
	}

	if key, ok := csiFinalKeys[final]; ok {
		ev := keyEvent(key, params)
		if key == KeyBacktab {
			ev.Modifiers |= ModShift
		}
		return consumed, ev
	}

	// Unknown but valid CSI syntax - consume and return KeyNone
	return consumed, Event{Type: EventKey, Key: KeyNone}
}

// keyEvent builds a key event from the modifier field (index 1) of legacy CSI params
func keyEvent(key Key, params [][]int) Event {
	return Event{
		Type:      EventKey,
		Key:       key,
		Modifiers: decodeModifiers(param(params, 1, 0, 1)),
		Action:    decodeAction(param(params, 1, 1, 1)),
	}
}

// decodeKitty interprets CSI code[:shifted[:base]] ; mods[:event] ; text u
func decodeKitty(params [][]int) Event {
	code := param(params, 0, 0, 0)
	shifted := param(params, 0, 1, 0)
	modParam := param(params, 1, 0, 1)
	mods := decodeModifiers(modParam)
	action := decodeAction(param(params, 1, 1, 1))
	capsLock := modParam > 1 && (modParam-1)&64 != 0

	ev := Event{Type: EventKey, Modifiers: mods, Action: action}

	if key, ok := kittyFunctionalKeys[code]; ok {
		ev.Key = key
		return ev
	}

	// Ctrl+letter reports as the legacy control key
	if mods&ModCtrl != 0 && code >= 'a' && code <= 'z' {
		ev.Key = KeyCtrlA + Key(code-'a')
		ev.Modifiers &^= ModCtrl
		return ev
	}

	if code < 0x20 || !utf8.ValidRune(rune(code)) || code >= 57344 && code <= 63743 {
		// Private-use area holds kitty's functional keys (keypad, media, modifiers)
		ev.Key = KeyNone
		return ev
	}

	r := rune(code)
	switch {
	case mods&ModShift != 0 && shifted > 0:
		r = rune(shifted)
	case mods&ModShift != 0 && r >= 'a' && r <= 'z':
		r -= 'a' - 'A'
	case capsLock && r >= 'a' && r <= 'z':
		r -= 'a' - 'A'
	}
	ev.Key = KeyRune
	ev.Rune = r
	// Shift is folded into the rune
	ev.Modifiers &^= ModShift
	return ev
}

// decodeAction maps the kitty event-type sub-parameter
func decodeAction(v int) KeyAction {
	switch v {
	case 2:
		return KeyActionRepeat
	case 3:
		return KeyActionRelease
	}
	return KeyActionPress
}

// parseParams splits "a:b;c:d" into [[a b] [c d]]; empty fields read as -1
func parseParams(body []byte) [][]int {
	if len(body) == 0 {
		return nil
	}
	params := make([][]int, 0, 3)
	field := make([]int, 0, 3)
	val := -1

	for _, b := range body {
		switch {
		case b >= '0' && b <= '9':
			if val < 0 {
				val = 0
			}
			if val < 1<<20 { // Sanity limit
				val = val*10 + int(b-'0')
			}
		case b == ':':
			field = append(field, val)
			val = -1
		case b == ';':
			field = append(field, val)
			params = append(params, field)
			field = make([]int, 0, 3)
			val = -1
		}
	}
	field = append(field, val)
	return append(params, field)
}

// param returns params[i][j], or def if missing or empty
func param(params [][]int, i, j, def int) int {
	if i >= len(params) || j >= len(params[i]) || params[i][j] < 0 {
		return def
	}
	return params[i][j]
}

// parseSS3 parses SS3 sequence, returns length even for unknown sequences
func parseSS3(data []byte) (int, Event) {
	if len(data) < 3 {
		return 0, Event{}
	}
	if key, ok := ss3Keys[data[2]]; ok {
		return 3, Event{Type: EventKey, Key: key}
	}
	// Unknown SS3 - consume to prevent garbage
	return 3, Event{Type: EventKey, Key: KeyNone}
}

// parseControl maps control characters to keys
func parseControl(b byte) Event {
	switch b {
	case 0x00: // Ctrl+Space or Ctrl+@
		return Event{Type: EventKey, Key: KeyCtrlSpace}
	case 0x08: // Ctrl+H or Backspace
		return Event{Type: EventKey, Key: KeyBackspace}
	case 0x09: // Tab
		return Event{Type: EventKey, Key: KeyTab}
	case 0x0a, 0x0d: // LF, CR (Enter)
		return Event{Type: EventKey, Key: KeyEnter}
	case 0x1b: // ESC (shouldn't reach here normally)
		return Event{Type: EventKey, Key: KeyEscape}
	case 0x1c:
		return Event{Type: EventKey, Key: KeyCtrlBackslash}
	case 0x1d:
		return Event{Type: EventKey, Key: KeyCtrlBracketRight}
	case 0x1e:
		return Event{Type: EventKey, Key: KeyCtrlCaret}
	case 0x1f:
		return Event{Type: EventKey, Key: KeyCtrlUnderscore}
	}
	if b >= 0x01 && b <= 0x1a {
		return Event{Type: EventKey, Key: KeyCtrlA + Key(b-0x01)}
	}
	return Event{Type: EventKey, Key: KeyNone}
}
