package normalize

import (
	"errors"
	"fmt"
)

// ParseError reports that no usable JSON could be extracted from a provider
// response. It is fatal for the call: the normalizer never returns partial
// data beyond the declared schema defaults.
type ParseError struct {
	Msg   string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
