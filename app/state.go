package app

// RunState is the two-state lifecycle of the loop
type RunState uint8

const (
	Running RunState = iota
	Done
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	case Done:
		return "done"
	}
	return "unknown"
}
