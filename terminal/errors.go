package terminal

import "errors"

var (
	// ErrNotTerminal is returned by Init when stdin is not an interactive terminal
	ErrNotTerminal = errors.New("stdin is not a terminal")

	// ErrInputClosed is returned by PollEvent when the input stream reaches EOF
	ErrInputClosed = errors.New("terminal input closed")
)

// OpError is the single failure kind for terminal I/O.
// Op names the failing step: "init", "raw mode", "write", "poll", "read", "restore".
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return "terminal " + e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// wrapOp wraps err as an OpError unless it already is one or is nil
func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, Err: err}
}
