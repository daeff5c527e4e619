package tui

import (
	"testing"

	"github.com/lixenwraith/tui-counter/terminal"
)

func TestTextClipsAtRegionEdge(t *testing.T) {
	frame := NewFrame(6, 2)
	frame.Clear()
	frame.Text(0, 0, "Counter: 1")

	if got := frame.Line(0); got != "Counte" {
		t.Errorf("Expected clipped text, got %q", got)
	}
	if got := frame.Line(1); got != "      " {
		t.Errorf("Expected blank second line, got %q", got)
	}
}

func TestTextOutOfBoundsRowIgnored(t *testing.T) {
	frame := NewFrame(4, 1)
	frame.Text(0, 1, "oops")
	frame.Text(0, -1, "oops")
	if got := frame.Line(0); got != "    " {
		t.Errorf("Expected untouched row, got %q", got)
	}
}

func TestRegionOffsetIntoSharedBuffer(t *testing.T) {
	cells := make([]terminal.Cell, 8*3)
	r := NewRegion(cells, 8, 2, 1, 4, 1)
	r.Text(0, 0, "abcdef")

	full := NewRegion(cells, 8, 0, 0, 8, 3)
	if got := full.Line(1); got != "  abcd  " {
		t.Errorf("Expected offset and clipped text, got %q", got)
	}
	if c := full.At(2, 1); c.Rune != 'a' {
		t.Errorf("Expected 'a' at offset origin, got %q", c.Rune)
	}
}

func TestLinesAndPadRight(t *testing.T) {
	frame := NewFrame(3, 2)
	lines := frame.Lines()
	if len(lines) != 2 || lines[0] != "   " || lines[1] != "   " {
		t.Errorf("Expected two blank lines, got %q", lines)
	}
	if got := PadRight("ab", 4); got != "ab  " {
		t.Errorf("Expected padded string, got %q", got)
	}
	if got := PadRight("abcdef", 4); got != "abcdef" {
		t.Errorf("Expected unchanged long string, got %q", got)
	}
}
