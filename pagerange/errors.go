package pagerange

import (
	"errors"
	"fmt"
	"math"
)

// Kind classifies why a range expression was rejected.
type Kind int

const (
	// MalformedNumber means a single-page token is not a valid page number
	MalformedNumber Kind = iota + 1

	// MalformedRange means a range token is not exactly two page numbers in ascending order
	MalformedRange

	// OutOfRange means a page number falls outside [1, page count]
	OutOfRange
)

var (
	ErrMalformedNumber = errors.New("malformed page number")
	ErrMalformedRange  = errors.New("malformed page range")
	ErrOutOfRange      = errors.New("page out of range")
)

func (k Kind) String() string {
	switch k {
	case MalformedNumber:
		return "malformed_number"
	case MalformedRange:
		return "malformed_range"
	case OutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// Error describes a rejected range expression. Every Error unwraps to one of
// the Err* sentinels, so callers can branch with errors.Is.
type Error struct {
	Kind  Kind
	Token string // offending token as typed, trimmed
	Value int    // resolved page number, OutOfRange only
	Max   int    // page count, OutOfRange only
}

func (e *Error) Error() string {
	switch e.Kind {
	case MalformedNumber:
		if e.Token == "" {
			return "no page numbers given"
		}
		return fmt.Sprintf("invalid page number: %q", e.Token)
	case MalformedRange:
		return fmt.Sprintf("invalid page range: %q", e.Token)
	case OutOfRange:
		if e.Value < 1 {
			return fmt.Sprintf("page numbers start at 1, got %d", e.Value)
		}
		if e.Value == math.MaxInt {
			return fmt.Sprintf("%q exceeds total pages (%d)", e.Token, e.Max)
		}
		return fmt.Sprintf("page %d exceeds total pages (%d)", e.Value, e.Max)
	default:
		return "invalid page expression"
	}
}

func (e *Error) Unwrap() error {
	switch e.Kind {
	case MalformedNumber:
		return ErrMalformedNumber
	case MalformedRange:
		return ErrMalformedRange
	case OutOfRange:
		return ErrOutOfRange
	default:
		return nil
	}
}

// KindOf reports the Kind of a pagerange error, or 0 if err is not one.
func KindOf(err error) Kind {
	var rangeErr *Error
	if errors.As(err, &rangeErr) {
		return rangeErr.Kind
	}
	return 0
}

func outOfRange(token string, value, max int) *Error {
	return &Error{Kind: OutOfRange, Token: token, Value: value, Max: max}
}
