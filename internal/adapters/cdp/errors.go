package cdp

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrConnection       = errors.New("cdp connection failed")
	ErrConnectionClosed = errors.New("cdp connection closed")
	ErrCommandTimeout   = errors.New("cdp command timeout")
)

// CommandTimeoutError reports a single command that went unanswered. The
// connection stays usable.
type CommandTimeoutError struct {
	Method  string
	Timeout time.Duration
}

func (e *CommandTimeoutError) Error() string {
	return fmt.Sprintf("cdp timeout: %s after %s", e.Method, e.Timeout)
}

func (e *CommandTimeoutError) Is(target error) bool {
	return target == ErrCommandTimeout
}

// RemoteError is an error reported by the browser for a command.
type RemoteError struct {
	Method  string
	Code    int64
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("cdp %s: %s (code %d)", e.Method, e.Message, e.Code)
	}
	return fmt.Sprintf("cdp %s: %s", e.Method, e.Message)
}

// IsConnectionError reports whether err means the channel is gone and the
// session has to be rebuilt.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrConnectionClosed)
}
