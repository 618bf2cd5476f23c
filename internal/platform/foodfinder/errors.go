package foodfinder

import (
	"errors"
	"fmt"
)

// Kind classifies a client failure by what the caller can do about it.
type Kind int

const (
	// KindUnreachable means the service could not be contacted at all:
	// connection refused, DNS failure, or a timed-out request.
	KindUnreachable Kind = iota + 1
	// KindUpstream means the service answered with a non-2xx status.
	KindUpstream
	// KindMalformed means the service answered 2xx but the body could
	// not be decoded.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindUpstream:
		return "upstream"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is the only error type returned by Client methods.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUpstream:
		return fmt.Sprintf("food finder %s: upstream status %d: %s", e.Op, e.Status, truncate(e.Body, 512))
	case KindMalformed:
		return fmt.Sprintf("food finder %s: malformed response: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("food finder %s: unreachable: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error returned by the client.
// Returns 0 for nil or foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
