package protocol

import (
	"errors"
	"fmt"
)

// ParseError reports a frame that could not be turned into a Message. It is
// never fatal for a session: the frame is dropped and reading continues.
type ParseError struct {
	Reason string
	Raw    []byte
}

func (e *ParseError) Error() string {
	if len(e.Raw) == 0 {
		return fmt.Sprintf("protocol parse error: %s", e.Reason)
	}
	return fmt.Sprintf("protocol parse error: %s (raw %q)", e.Reason, e.Raw)
}

// IsParseError reports whether err is, or wraps, a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
