// Package validation holds the validation result shared by every document form.
// A form is "ready" when its Problems list is empty.
package validation

import (
	"errors"
	"strings"
)

// Messages shown to the user. The same field always gets the same message,
// whichever document flow it appears in.
const (
	MsgTeamNameRequired   = "Please enter a team name"
	MsgGoalieNameRequired = "Please enter a goalie name"
	MsgAgeGroupRequired   = "Please select an age group"
	MsgSkillLevelRequired = "Please select a skill level"
	MsgPracticesRequired  = "Please enter the number of practices"
	MsgPracticesRange     = "Number of practices must be a whole number between 0 and 50"
	MsgImageRequired      = "Please select an image"
	MsgImageType          = "Please select an image file"
	MsgImageTooLarge      = "Image file size must be less than 5MB"
	MsgImageDimensions    = "Image dimensions are too large. Please use a smaller image"
)

// Problem is a single human-readable reason a form is not ready.
type Problem struct {
	Field   string
	Message string
}

// Problems is an ordered list of validation problems.
type Problems []Problem

// Add appends a problem for field.
func (p *Problems) Add(field, message string) {
	*p = append(*p, Problem{Field: field, Message: message})
}

// Ready reports whether no problems were found.
func (p Problems) Ready() bool {
	return len(p) == 0
}

// Has reports whether a problem was recorded for field.
func (p Problems) Has(field string) bool {
	for _, pr := range p {
		if pr.Field == field {
			return true
		}
	}
	return false
}

// For returns the first message recorded for field, or "".
func (p Problems) For(field string) string {
	for _, pr := range p {
		if pr.Field == field {
			return pr.Message
		}
	}
	return ""
}

// Messages returns the problem messages in order.
func (p Problems) Messages() []string {
	out := make([]string, 0, len(p))
	for _, pr := range p {
		out = append(out, pr.Message)
	}
	return out
}

// Err returns nil when ready, otherwise a *Error carrying the problems.
func (p Problems) Err() error {
	if p.Ready() {
		return nil
	}
	return &Error{Problems: p}
}

// ErrNotReady is matched by every *Error via errors.Is.
var ErrNotReady = errors.New("form is not ready")

// Error wraps Problems for callers that work with error values.
type Error struct {
	Problems Problems
}

func (e *Error) Error() string {
	return "validation: " + strings.Join(e.Problems.Messages(), "; ")
}

// Is makes errors.Is(err, ErrNotReady) true for validation errors.
func (e *Error) Is(target error) bool {
	return target == ErrNotReady
}

// AsProblems extracts the problems from err, if it carries any.
func AsProblems(err error) (Problems, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Problems, true
	}
	return nil, false
}
