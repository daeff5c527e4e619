// @lixen: #focus{sys[term,io,output]}
// @lixen: #interact{trigger[output,ansi]}
package terminal

import (
	"bufio"
	"io"
)

// Cell represents a single terminal cell, zero Rune renders as space.
// Output is unstyled; the terminal stays at SGR 0 for the whole session.
type Cell struct {
	Rune rune
}

// errWriter records the first write error so the bufio.Writer chain stays linear
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

// backendWriter adapts Backend.Write to io.Writer
type backendWriter struct {
	b Backend
}

func (w backendWriter) Write(p []byte) (int, error) {
	if err := w.b.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// outputBuffer manages buffered terminal output with diffing against the last frame
type outputBuffer struct {
	front  []Cell
	width  int
	height int
	sink   *errWriter
	writer *bufio.Writer

	cursorX     int
	cursorY     int
	cursorValid bool
}

// newOutputBuffer creates a new output buffer
func newOutputBuffer(w io.Writer) *outputBuffer {
	sink := &errWriter{w: w}
	return &outputBuffer{
		sink:   sink,
		writer: bufio.NewWriterSize(sink, 32768),
	}
}

// resize updates buffer dimensions and invalidates the front buffer
func (o *outputBuffer) resize(width, height int) {
	size := width * height
	if cap(o.front) < size {
		o.front = make([]Cell, size)
	} else {
		o.front = o.front[:size]
	}
	o.width = width
	o.height = height
	o.forceFullRedraw()
}

// flush writes cells to terminal, diffing against front buffer
func (o *outputBuffer) flush(cells []Cell, width, height int) error {
	if width != o.width || height != o.height {
		o.resize(width, height)
		o.writer.Write(csiClear)
	}

	if len(cells) < width*height {
		return nil
	}

	w := o.writer

	for y := 0; y < height; y++ {
		rowStart := y * width
		x := 0

		for x < width {
			idx := rowStart + x
			c := normalize(cells[idx])

			if c == o.front[idx] {
				x++
				continue
			}

			// Position cursor once for this dirty run
			if !o.cursorValid || x != o.cursorX || y != o.cursorY {
				writeCursorPos(w, x, y)
				o.cursorX = x
				o.cursorY = y
				o.cursorValid = true
			}

			// Write all contiguous dirty cells
			for x < width {
				cidx := rowStart + x
				c := normalize(cells[cidx])
				if c == o.front[cidx] {
					break
				}

				if c.Rune < 0x80 {
					w.WriteByte(byte(c.Rune))
				} else {
					w.WriteRune(c.Rune)
				}

				o.front[cidx] = c
				o.cursorX++
				x++
			}
		}
	}

	if err := w.Flush(); err != nil {
		o.reset()
		return err
	}
	return nil
}

// normalize maps empty cells to spaces so they compare equal to cleared cells
func normalize(c Cell) Cell {
	if c.Rune == 0 {
		c.Rune = ' '
	}
	return c
}

// forceFullRedraw clears front buffer to force complete redraw
func (o *outputBuffer) forceFullRedraw() {
	for i := range o.front {
		o.front[i] = Cell{}
	}
	o.cursorValid = false
}

// clear writes a clear screen and marks the front buffer blank
func (o *outputBuffer) clear() error {
	w := o.writer
	w.Write(csiSGR0)
	w.Write(csiClear)

	o.cursorValid = false

	for i := range o.front {
		o.front[i] = Cell{Rune: ' '}
	}
	if err := w.Flush(); err != nil {
		o.reset()
		return err
	}
	return nil
}

// raw writes bytes through the buffered writer, preserving stream order
func (o *outputBuffer) raw(seqs ...[]byte) error {
	for _, s := range seqs {
		o.writer.Write(s)
	}
	if err := o.writer.Flush(); err != nil {
		o.reset()
		return err
	}
	return nil
}

// reset discards buffered bytes and the sticky error after a failed write
func (o *outputBuffer) reset() {
	o.sink.err = nil
	o.writer.Reset(o.sink)
	o.forceFullRedraw()
}
