package ports

import "context"

// ProfileWriter is the engine's write port into the canonical user profile.
//
// SetField must run the target field's own structural validation and return
// a *domain.ValidationError when the value is rejected; that error blocks
// the survey step. Persist reports infrastructure failures only, and callers
// treat those as best-effort and never block on them.
type ProfileWriter interface {
	SetField(ctx context.Context, ownerRef, field, value string) error
	Persist(ctx context.Context, ownerRef string) error
}
