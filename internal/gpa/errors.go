package gpa

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGPA     = errors.New("invalid gpa")
	ErrInvalidCredits = errors.New("invalid credit hours")
	ErrZeroCredits    = errors.New("total credit hours is zero")
)

// Kind identifies which validation rule rejected the input.
type Kind int

const (
	KindInvalidGPA Kind = iota + 1
	KindInvalidCredits
	KindZeroCredits
)

func (k Kind) String() string {
	switch k {
	case KindInvalidGPA:
		return "invalid_gpa"
	case KindInvalidCredits:
		return "invalid_credits"
	case KindZeroCredits:
		return "zero_credits"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidGPA:
		return ErrInvalidGPA
	case KindInvalidCredits:
		return ErrInvalidCredits
	case KindZeroCredits:
		return ErrZeroCredits
	default:
		return nil
	}
}

// User-facing messages. Both causes of an invalid GPA (unparseable and out of
// range) share one message, and likewise for credits.
const (
	MessageInvalidGPA     = "Please enter a valid GPA between 0.0 and 4.0 for all courses."
	MessageInvalidCredits = "Please enter valid credit hours (greater than 0) for all courses."
	MessageZeroCredits    = "Total credit hours cannot be zero. Please add at least one course with credit hours."
)

// ValidationError reports the first course that failed validation, or the
// zero-credit condition when Index is -1.
type ValidationError struct {
	Kind       Kind
	Index      int
	CourseID   string
	CourseName string
	Input      string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindZeroCredits:
		return ErrZeroCredits.Error()
	case KindInvalidGPA, KindInvalidCredits:
		label := fmt.Sprintf("course %d", e.Index+1)
		if e.CourseName != "" {
			label = fmt.Sprintf("course %d (%s)", e.Index+1, e.CourseName)
		}
		return fmt.Sprintf("%s: %v %q", label, e.Kind.sentinel(), e.Input)
	default:
		return "gpa: validation failed"
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Kind.sentinel()
}

// Message returns the text shown to the user for this failure.
func (e *ValidationError) Message() string {
	switch e.Kind {
	case KindInvalidGPA:
		return MessageInvalidGPA
	case KindInvalidCredits:
		return MessageInvalidCredits
	default:
		return MessageZeroCredits
	}
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
