// Package tui provides immediate-mode drawing primitives over a terminal cell buffer.
//
// Core abstraction is Region, representing a rectangular area within a cell buffer.
// All drawing operations are relative to region bounds with automatic clipping.
// A Region needs no live terminal, so frames can be rendered and inspected in tests.
//
// Usage pattern:
//
//	cells := make([]terminal.Cell, w*h)
//	root := tui.NewRegion(cells, w, 0, 0, w, h)
//	root.Clear()
//	root.Text(0, 0, "Counter: 0")
//
//	term.Flush(cells, w, h)
package tui
