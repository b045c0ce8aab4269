package remote

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches every failure that should send the caller down the
// local fallback path: transport errors, non-2xx statuses, an open breaker and
// undecodable bodies. errors.Is(err, ErrUnavailable) is the only test callers
// need.
var ErrUnavailable = errors.New("remote api unavailable")

// Error describes a failed remote call.
type Error struct {
	Op     string
	Status int // 0 when no response was received
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("remote %s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("remote %s: status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrUnavailable }
