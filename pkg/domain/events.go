package domain

import (
	"context"
	"time"
)

// SurveyEvent describes a survey crossing a question boundary.
type SurveyEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	SurveyID   string    `json:"survey_id"`
	OwnerRef   string    `json:"owner_ref"`
	QuestionID string    `json:"question_id"`
	Status     Status    `json:"status"`
}

// ProjectionEvent describes an attempt to mirror an answer into the
// external profile.
type ProjectionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SurveyID  string    `json:"survey_id"`
	FieldRef  string    `json:"field_ref"`
	// Blocked is true when field validation rejected the value and the
	// step was not committed.
	Blocked bool `json:"blocked,omitempty"`
}

// RevertEvent describes an undo attempt.
type RevertEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	SurveyID   string    `json:"survey_id"`
	QuestionID string    `json:"question_id"`
	// OK is false when the predecessor edge was ambiguous or missing and
	// the survey was left untouched.
	OK bool `json:"ok"`
}

// LifecycleHooks defines callbacks for engine observability. All hooks are
// optional and must not block.
type LifecycleHooks struct {
	OnQuestionEnter func(context.Context, *SurveyEvent)
	OnQuestionLeave func(context.Context, *SurveyEvent)
	OnReask         func(context.Context, *SurveyEvent)
	OnProjection    func(context.Context, *ProjectionEvent)
	OnRevert        func(context.Context, *RevertEvent)
}
