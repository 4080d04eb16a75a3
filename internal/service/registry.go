package service

import (
	"context"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/group-planner/internal/apperr"
	"github.com/Shivanand-hulikatti/group-planner/internal/digest"
	"github.com/Shivanand-hulikatti/group-planner/internal/model"
	"github.com/Shivanand-hulikatti/group-planner/internal/repository"
	"github.com/Shivanand-hulikatti/group-planner/internal/session"
)

// Registry is the per-event participant roster: who may act in an event and
// with which password. Every mutation rewrites the whole credential list.
type Registry struct {
	events *repository.EventRepository
	auth   *repository.AuthRepository
	hasher digest.Hasher
	now    func() time.Time
}

// NewRegistry constructs a Registry. A nil hasher falls back to the checksum
// digest and a nil clock to time.Now.
func NewRegistry(events *repository.EventRepository, auth *repository.AuthRepository, hasher digest.Hasher, now func() time.Time) *Registry {
	if hasher == nil {
		hasher = digest.Checksum{}
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{events: events, auth: auth, hasher: hasher, now: now}
}

// Register adds name to the event roster and, when sess is non-nil, signs
// the caller in as name.
func (r *Registry) Register(ctx context.Context, sess *session.Manager, eventID, name, password string) error {
	name, err := credentials(eventID, name, password)
	if err != nil {
		return err
	}
	if _, err := r.events.Get(ctx, eventID); err != nil {
		return err
	}

	list, err := r.auth.List(ctx, eventID)
	if err != nil {
		return err
	}
	if indexOf(list, name) >= 0 {
		return apperr.Conflict("name is already taken")
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return err
	}
	list = append(list, model.ParticipantAuth{Name: name, PasswordHash: hash, CreatedAt: r.now().UTC()})
	if err := r.auth.Put(ctx, eventID, list); err != nil {
		return err
	}

	if sess != nil {
		return sess.SetCurrent(ctx, eventID, name)
	}
	return nil
}

// Authenticate checks name and password against the roster. Unknown names
// and wrong passwords both yield apperr.ErrUnauthorized. On success, and
// when sess is non-nil, the caller is signed in as name.
func (r *Registry) Authenticate(ctx context.Context, sess *session.Manager, eventID, name, password string) error {
	name, err := credentials(eventID, name, password)
	if err != nil {
		return err
	}

	list, err := r.auth.List(ctx, eventID)
	if err != nil {
		return err
	}
	i := indexOf(list, name)
	if i < 0 || !r.hasher.Verify(list[i].PasswordHash, password) {
		return apperr.ErrUnauthorized
	}

	if sess != nil {
		return sess.SetCurrent(ctx, eventID, name)
	}
	return nil
}

// Delete removes name from the roster and signs the caller out when they
// were signed in as name. Removing an absent name only touches the session.
func (r *Registry) Delete(ctx context.Context, sess *session.Manager, eventID, name string) error {
	if strings.TrimSpace(eventID) == "" || strings.TrimSpace(name) == "" {
		return apperr.Invalid("event id and name are required")
	}

	list, err := r.auth.List(ctx, eventID)
	if err != nil {
		return err
	}
	if i := indexOf(list, name); i >= 0 {
		out := make([]model.ParticipantAuth, 0, len(list)-1)
		out = append(out, list[:i]...)
		out = append(out, list[i+1:]...)
		if err := r.auth.Put(ctx, eventID, out); err != nil {
			return err
		}
	}

	if sess != nil {
		return sess.ClearIf(ctx, eventID, name)
	}
	return nil
}

// ListNames returns registered names in registration order.
func (r *Registry) ListNames(ctx context.Context, eventID string) ([]string, error) {
	list, err := r.auth.List(ctx, eventID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Name
	}
	return names, nil
}

// IsRegistered reports whether name is on the roster.
func (r *Registry) IsRegistered(ctx context.Context, eventID, name string) (bool, error) {
	list, err := r.auth.List(ctx, eventID)
	if err != nil {
		return false, err
	}
	return indexOf(list, name) >= 0, nil
}

func credentials(eventID, name, password string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case strings.TrimSpace(eventID) == "":
		return "", apperr.Invalid("event id is required")
	case name == "":
		return "", apperr.Invalid("name is required")
	case password == "":
		return "", apperr.Invalid("password is required")
	}
	return name, nil
}

func indexOf(list []model.ParticipantAuth, name string) int {
	for i, a := range list {
		if a.Name == name {
			return i
		}
	}
	return -1
}
