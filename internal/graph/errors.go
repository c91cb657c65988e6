package graph

import (
	"errors"
	"fmt"
)

// MalformedError reports graph input that cannot describe a simple graph:
// a bad graph6 string, a self loop, a duplicate or out-of-range edge.
type MalformedError struct {
	// Encoding is the offending input, when it came from a string.
	Encoding string
	Message  string
}

func (e *MalformedError) Error() string {
	if e.Encoding != "" {
		return fmt.Sprintf("malformed graph %q: %s", e.Encoding, e.Message)
	}
	return fmt.Sprintf("malformed graph: %s", e.Message)
}

// IsMalformed reports whether err is (or wraps) a MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}
