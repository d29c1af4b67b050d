package domain

import "errors"

// NotFoundError reports a missing or cross-referenced entity. Entity names the
// kind that was absent ("Quizz", "Question", "Answer", "User response").
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// NewNotFound builds a NotFoundError for the given entity kind.
func NewNotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// BusinessRuleError reports a violated domain rule with a human-readable reason.
type BusinessRuleError struct {
	Reason string
}

func (e *BusinessRuleError) Error() string {
	return e.Reason
}

// NewBusinessRule builds a BusinessRuleError with the given reason.
func NewBusinessRule(reason string) error {
	return &BusinessRuleError{Reason: reason}
}

// IsBusinessRule reports whether err is a BusinessRuleError.
func IsBusinessRule(err error) bool {
	var br *BusinessRuleError
	return errors.As(err, &br)
}
