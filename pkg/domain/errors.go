package domain

import (
	"errors"
	"fmt"
)

// ErrSurveyNotFound is returned when an owner has no persisted survey.
var ErrSurveyNotFound = errors.New("survey not found")

// ErrQuestionNotFound is returned when a question ID is not in the graph.
var ErrQuestionNotFound = errors.New("question not found")

// ErrChoiceNotFound is returned when no answer choice matches a lookup.
var ErrChoiceNotFound = errors.New("answer choice not found")

// ErrNoEntryQuestion is returned when no question carries the requested
// entry tag.
var ErrNoEntryQuestion = errors.New("no entry question configured")

// ErrActionNotAllowed is returned when a lifecycle action is requested from
// a status that does not permit it.
var ErrActionNotAllowed = errors.New("action not allowed for status")

// ValidationError reports that an external profile field rejected a value.
// Unlike a re-ask it blocks the survey step that produced it: the in-flight
// answer is not committed.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for field %q: %s", e.Field, e.Reason)
}

// ConfigError reports a questionnaire configuration problem fatal to the
// requested operation, such as a missing entry question or an external
// field reference pointing nowhere.
type ConfigError struct {
	Detail string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("questionnaire configuration: %s: %v", e.Detail, e.Err)
	}
	return "questionnaire configuration: " + e.Detail
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
