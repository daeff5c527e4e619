package terminal

import "time"

// Backend abstracts platform-specific terminal operations.
// Tests substitute a scripted backend; the unix backend drives the real device.
type Backend interface {
	// Lifecycle
	Init() error
	Fini() error

	// Capabilities
	Size() (width, height int)

	// I/O
	// Write writes raw bytes to the terminal output.
	Write(p []byte) error

	// Read waits at most timeout for input.
	// Returns (nil, nil) on timeout and ErrInputClosed on EOF.
	Read(timeout time.Duration) ([]byte, error)
}
