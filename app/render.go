package app

import (
	"strconv"

	"github.com/lixenwraith/tui-counter/terminal/tui"
)

const counterLabel = "Counter: "

// Render draws the current state into frame; it has no other side effects
func (a *App) Render(frame tui.Region) {
	frame.Clear()
	frame.Text(0, 0, counterLabel+strconv.FormatInt(a.counter, 10))
}
