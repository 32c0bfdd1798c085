package clients

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound reports a lookup miss or an edit target that is not in the registry.
var ErrNotFound = errors.New("not found")

// TransportError wraps a network or HTTP failure of a remote call.
// Callers surface it and keep their prior state; nothing retries automatically.
type TransportError struct {
	Op     string // e.g. "list clients", "lookup postal code"
	Status int    // HTTP status, 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err carries a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ValidationError lists the fields that failed the required check, keyed by
// field name with a human message as value.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid client: missing " + strings.Join(names, ", ")
}

// Message returns the message for field, or "".
func (e *ValidationError) Message(field string) string {
	if e == nil {
		return ""
	}
	return e.Fields[field]
}
