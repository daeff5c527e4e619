package tui

import "strings"

// Text renders text at position, truncates at region edge
func (r Region) Text(x, y int, s string) {
	if y < 0 || y >= r.H {
		return
	}
	col := 0
	for _, ch := range s {
		if x+col >= r.W {
			break
		}
		if x+col >= 0 {
			r.Cell(x+col, y, ch)
		}
		col++
	}
}

// Line returns row y as a string of exactly W runes, empty cells read as spaces
func (r Region) Line(y int) string {
	if y < 0 || y >= r.H {
		return ""
	}
	var sb strings.Builder
	sb.Grow(r.W)
	for x := 0; x < r.W; x++ {
		ch := r.At(x, y).Rune
		if ch == 0 {
			ch = ' '
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

// Lines returns every row of the region
func (r Region) Lines() []string {
	lines := make([]string, r.H)
	for y := range lines {
		lines[y] = r.Line(y)
	}
	return lines
}

// RuneLen returns display width (rune count, not byte count)
func RuneLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// PadRight pads string with spaces to width
func PadRight(s string, width int) string {
	n := RuneLen(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
