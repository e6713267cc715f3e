package memory

import (
	"context"
	"sync"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/profile"
)

// UserProfile is the in-memory canonical profile record.
type UserProfile struct {
	PhoneNumber      string `json:"phone_number,omitempty"`
	TelegramUsername string `json:"telegram_username,omitempty"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	Residence        string `json:"residence,omitempty"`
}

// setters maps projectable field names onto the profile struct.
var setters = map[string]func(*UserProfile, string){
	"phone_number":      func(p *UserProfile, v string) { p.PhoneNumber = v },
	"telegram_username": func(p *UserProfile, v string) { p.TelegramUsername = v },
	"first_name":        func(p *UserProfile, v string) { p.FirstName = v },
	"last_name":         func(p *UserProfile, v string) { p.LastName = v },
	"residence":         func(p *UserProfile, v string) { p.Residence = v },
}

// ProfileStore is an in-memory ports.ProfileWriter. Writes are staged per
// owner and become visible to readers on Persist, mirroring a store that
// flushes on save.
type ProfileStore struct {
	mu        sync.Mutex
	staged    map[string]*UserProfile
	committed map[string]*UserProfile
}

// NewProfileStore creates an empty profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		staged:    map[string]*UserProfile{},
		committed: map[string]*UserProfile{},
	}
}

// SetField implements ports.ProfileWriter. It runs the field's structural
// validation and stages the value without publishing it.
func (ps *ProfileStore) SetField(_ context.Context, ownerRef, field, value string) error {
	if err := profile.ValidateUserField(field, value); err != nil {
		return err
	}
	set, ok := setters[field]
	if !ok {
		// Callers whitelist fields before writing; tolerate anyway.
		return nil
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	p, ok := ps.staged[ownerRef]
	if !ok {
		base := ps.committed[ownerRef]
		if base != nil {
			copied := *base
			p = &copied
		} else {
			p = &UserProfile{}
		}
		ps.staged[ownerRef] = p
	}
	set(p, value)
	return nil
}

// Persist implements ports.ProfileWriter, publishing staged writes.
func (ps *ProfileStore) Persist(_ context.Context, ownerRef string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	p, ok := ps.staged[ownerRef]
	if !ok {
		return nil
	}
	committed := *p
	ps.committed[ownerRef] = &committed
	delete(ps.staged, ownerRef)
	return nil
}

// Profile returns the committed profile for the owner, or nil.
func (ps *ProfileStore) Profile(ownerRef string) *UserProfile {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	p, ok := ps.committed[ownerRef]
	if !ok {
		return nil
	}
	copied := *p
	return &copied
}
