package domain

import (
	"time"

	"github.com/google/uuid"
)

// Survey tracks one owner's traversal of the questionnaire graph.
// It is a single mutable aggregate: callers must serialize Advance/Revert
// per survey (see pkg/session), because the engine reads and then overwrites
// CurrentQuestion, AnswerLog, VersionFingerprint and Status as one unit.
type Survey struct {
	ID       uuid.UUID `json:"id"`
	OwnerRef string    `json:"owner_ref"`

	// CurrentQuestion is empty once a terminal edge has been taken; the
	// survey is then finished and Advance becomes a no-op.
	CurrentQuestion string `json:"current_question,omitempty"`

	Status Status `json:"status"`

	// AnswerLog is the flat, append-only sequence of alternating question
	// and answer texts. Its length is always even. It is kept flat (not a
	// list of pairs) because downstream consumers persist it as a plain
	// array.
	AnswerLog []string `json:"answer_log"`

	// VersionFingerprint is the XOR fold of the version tokens of every
	// question entered on the current path.
	VersionFingerprint uuid.UUID `json:"version_fingerprint"`

	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the max fold of the UpdatedAt of every question entered.
	// Revert does not lower it; it keeps the historical maximum.
	UpdatedAt time.Time `json:"updated_at"`
}

// Finished reports whether the survey has reached a terminal edge.
func (s *Survey) Finished() bool {
	return s.CurrentQuestion == ""
}

// AppendAnswer records one accepted (question, answer) pair.
func (s *Survey) AppendAnswer(questionText, answerText string) {
	s.AnswerLog = append(s.AnswerLog, questionText, answerText)
}

// LastAnswer returns the most recent (question, answer) pair.
// ok is false when the log is empty.
func (s *Survey) LastAnswer() (questionText, answerText string, ok bool) {
	if len(s.AnswerLog) < 2 {
		return "", "", false
	}
	return s.AnswerLog[len(s.AnswerLog)-2], s.AnswerLog[len(s.AnswerLog)-1], true
}

// TruncateLastAnswer drops the most recent (question, answer) pair.
func (s *Survey) TruncateLastAnswer() {
	if len(s.AnswerLog) >= 2 {
		s.AnswerLog = s.AnswerLog[:len(s.AnswerLog)-2]
	}
}

// Clone returns an independent copy of the survey. The engine mutates clones
// and leaves the input untouched, so a failed step never leaves a caller
// with a partially updated aggregate.
func (s *Survey) Clone() *Survey {
	c := *s
	c.AnswerLog = append([]string(nil), s.AnswerLog...)
	return &c
}
