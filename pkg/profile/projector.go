// Package profile mirrors accepted survey answers into the canonical user
// profile.
//
// The projector is deliberately asymmetric about failure. A value the field
// itself rejects is the answerer's problem and blocks the step. Everything
// else, a field reference pointing nowhere, a storage hiccup on persist, is
// an operator's problem: it is logged and swallowed so the survey keeps
// moving and the mirror can be repaired later.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/IlyaEmelin/chatbot-promotion/internal/logging"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/ports"
)

// EntityUser is the only projection target entity.
const EntityUser = "User"

// fieldRule validates one projectable user field.
type fieldRule struct {
	pattern *regexp.Regexp
	reason  string
}

// userFields whitelists the profile fields a question may project into.
// A nil pattern means any non-empty value of sane length is accepted.
var userFields = map[string]fieldRule{
	"phone_number": {
		pattern: regexp.MustCompile(`^\+7\d{10}$`),
		reason:  "must look like +7XXXXXXXXXX",
	},
	"telegram_username": {
		pattern: regexp.MustCompile(`^@[a-zA-Z0-9]+(_?[a-zA-Z0-9]+)*$`),
		reason:  "must start with @ and contain letters, digits and single underscores",
	},
	"first_name": {},
	"last_name":  {},
	"residence":  {},
}

// maxFieldLen caps free-form fields the way the profile storage does.
const maxFieldLen = 150

// ValidateUserField checks value against the field's structural rules.
// Unknown fields are the caller's concern; this only validates values.
func ValidateUserField(field, value string) *domain.ValidationError {
	rule, ok := userFields[field]
	if !ok {
		return nil
	}
	if value == "" {
		return &domain.ValidationError{Field: field, Value: value, Reason: "must not be empty"}
	}
	if len(value) > maxFieldLen {
		return &domain.ValidationError{Field: field, Value: value, Reason: fmt.Sprintf("longer than %d characters", maxFieldLen)}
	}
	if rule.pattern != nil && !rule.pattern.MatchString(value) {
		return &domain.ValidationError{Field: field, Value: value, Reason: rule.reason}
	}
	return nil
}

// KnownUserField reports whether the field is projectable.
func KnownUserField(field string) bool {
	_, ok := userFields[field]
	return ok
}

// UserFields lists the projectable field names, for validation tooling.
func UserFields() []string {
	names := make([]string, 0, len(userFields))
	for name := range userFields {
		names = append(names, name)
	}
	return names
}

// SplitRef splits an "Entity.field" reference. ok is false when the shape is
// wrong.
func SplitRef(ref string) (entity, field string, ok bool) {
	entity, field, ok = strings.Cut(ref, ".")
	if !ok || entity == "" || field == "" || strings.Contains(field, ".") {
		return "", "", false
	}
	return entity, field, true
}

// Projector implements engine.Projector on top of a ProfileWriter.
type Projector struct {
	writer ports.ProfileWriter
	logger *slog.Logger
}

// Option configures the Projector.
type Option func(*Projector)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Projector) {
		p.logger = logger
	}
}

// NewProjector wraps a profile writer.
func NewProjector(writer ports.ProfileWriter, opts ...Option) *Projector {
	p := &Projector{
		writer: writer,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project mirrors one accepted answer into the profile field named by
// fieldRef.
//
// Only a *domain.ValidationError propagates to the caller. A malformed or
// unknown reference and any infrastructure failure are logged and reported
// as success so the survey step still commits.
func (p *Projector) Project(ctx context.Context, ownerRef, fieldRef, value string) error {
	entity, field, ok := SplitRef(fieldRef)
	if !ok {
		p.logger.Warn("malformed external field reference", "ref", fieldRef)
		return nil
	}
	if entity != EntityUser {
		p.logger.Warn("unknown projection entity", "ref", fieldRef)
		return nil
	}
	if !KnownUserField(field) {
		p.logger.Warn("unknown projection field", "ref", fieldRef)
		return nil
	}

	if err := p.writer.SetField(ctx, ownerRef, field, value); err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			p.logger.Info("projected value rejected by field validation",
				"owner_ref", ownerRef,
				"field", field,
				"reason", vErr.Reason,
			)
			return vErr
		}
		p.logger.Error("profile field write failed", "error", err, "field", field)
		return nil
	}

	if err := p.writer.Persist(ctx, ownerRef); err != nil {
		p.logger.Error("profile persist failed", "error", err, "owner_ref", ownerRef)
	}
	return nil
}

// CheckRefs verifies at startup that every external field reference in the
// graph points at a projectable field. It fails fast so a typo in the
// questionnaire surfaces before the first answer, not while swallowing
// projections at runtime.
func CheckRefs(ctx context.Context, graph ports.GraphReader) error {
	questions, err := graph.Questions(ctx)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	for _, q := range questions {
		if q.ExternalFieldRef == "" {
			continue
		}
		entity, field, ok := SplitRef(q.ExternalFieldRef)
		if !ok {
			return &domain.ConfigError{
				Detail: fmt.Sprintf("question %q: malformed external field reference %q", q.ID, q.ExternalFieldRef),
			}
		}
		if entity != EntityUser || !KnownUserField(field) {
			return &domain.ConfigError{
				Detail: fmt.Sprintf("question %q: external field reference %q names no projectable field", q.ID, q.ExternalFieldRef),
			}
		}
	}
	return nil
}
