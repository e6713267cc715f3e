package domain

import (
	"time"

	"github.com/google/uuid"
)

// Question type tags. The engine reads them only to locate the entry point
// for a channel; everything else is "standard".
const (
	QuestionTypeStart         = "start"
	QuestionTypeStartWeb      = "start_web"
	QuestionTypeStartTelegram = "start_telegram"
	QuestionTypeWaitingDocs   = "waiting_docs"
	QuestionTypeStandard      = "standard"
)

// Channel identifiers understood by survey creation.
const (
	ChannelWeb      = "web"
	ChannelTelegram = "telegram"
)

// EntryTypeForChannel maps a channel identifier to the question type tag
// flagged as that channel's entry point. Unknown channels fall back to the
// generic start tag.
func EntryTypeForChannel(channel string) string {
	switch channel {
	case ChannelWeb:
		return QuestionTypeStartWeb
	case ChannelTelegram:
		return QuestionTypeStartTelegram
	default:
		return QuestionTypeStart
	}
}

// Question is a node of the questionnaire graph.
type Question struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// ExternalFieldRef optionally names a profile field ("User.phone_number")
	// that the accepted answer is mirrored into.
	ExternalFieldRef string `json:"external_field_ref,omitempty" yaml:"external_field_ref,omitempty"`

	// VersionToken is replaced with a fresh random value on every edit of the
	// question. Surveys fold it into their fingerprint when the question is
	// entered, so the fingerprint changes iff the visited content changes.
	VersionToken uuid.UUID `json:"version_token" yaml:"version_token"`

	// UpdatedAt is refreshed on every edit, together with VersionToken.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Touch marks the question as edited: fresh VersionToken, refreshed
// UpdatedAt. Every mutation of question content must go through Touch.
func (q *Question) Touch() {
	q.VersionToken = uuid.New()
	q.UpdatedAt = time.Now().UTC()
}
