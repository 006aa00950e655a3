package transport

import (
	"errors"
	"fmt"
)

// Kind classifies transport failures.
type Kind string

const (
	KindTimeout    Kind = "timeout"
	KindConnection Kind = "connection"
	KindServer     Kind = "server"
	KindDecode     Kind = "decode"
	KindCanceled   Kind = "canceled"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrTimeout    = errors.New("transport: deadline exceeded")
	ErrConnection = errors.New("transport: connection failed")
	ErrServer     = errors.New("transport: server returned an error status")
	ErrDecode     = errors.New("transport: malformed response body")
	ErrCanceled   = errors.New("transport: request canceled")
)

// Error is returned by every Client call that does not succeed.
type Error struct {
	Kind     Kind
	Endpoint string
	// Status and Body are set for KindServer.
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("%s: http %d: %s", e.Endpoint, e.Status, e.Body)
	case KindTimeout:
		return fmt.Sprintf("%s: timed out", e.Endpoint)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindTimeout:
		return target == ErrTimeout
	case KindConnection:
		return target == ErrConnection
	case KindServer:
		return target == ErrServer
	case KindDecode:
		return target == ErrDecode
	case KindCanceled:
		return target == ErrCanceled
	}
	return false
}

// StatusCode returns the HTTP status carried by a server error, or 0.
func StatusCode(err error) int {
	var terr *Error
	if errors.As(err, &terr) && terr.Kind == KindServer {
		return terr.Status
	}
	return 0
}
