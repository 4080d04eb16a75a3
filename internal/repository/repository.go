// Package repository persists event records and credential lists through a
// key/value Store. Backends (memory, postgres, sqlite, bbolt, mongodb) only
// move JSON documents; this file owns the document shapes and error mapping.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shivanand-hulikatti/group-planner/internal/apperr"
	"github.com/Shivanand-hulikatti/group-planner/internal/model"
)

// EventRepository reads and writes whole EventRecord documents.
type EventRepository struct {
	store Store
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(store Store) *EventRepository {
	return &EventRepository{store: store}
}

// Get returns the record for id, or a NotFound error.
func (r *EventRepository) Get(ctx context.Context, id string) (model.EventRecord, error) {
	raw, ok, err := r.store.Get(ctx, EventKey(id))
	if err != nil {
		return model.EventRecord{}, apperr.Unavailable("load event", err)
	}
	if !ok {
		return model.EventRecord{}, apperr.NotFound("event not found")
	}

	var rec model.EventRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.EventRecord{}, apperr.Unavailable("decode event", err)
	}
	if rec.Participants == nil {
		rec.Participants = []model.Participant{}
	}
	if rec.ActivitySuggestions == nil {
		rec.ActivitySuggestions = []model.ActivitySuggestion{}
	}
	return rec, nil
}

// Put replaces the whole record.
func (r *EventRepository) Put(ctx context.Context, rec model.EventRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := r.store.Set(ctx, EventKey(rec.ID), raw); err != nil {
		return apperr.Unavailable("save event", err)
	}
	return nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, EventKey(id)); err != nil {
		return apperr.Unavailable("delete event", err)
	}
	return nil
}

// AuthRepository reads and writes the credential list of one event.
type AuthRepository struct {
	store Store
}

// NewAuthRepository constructs an AuthRepository.
func NewAuthRepository(store Store) *AuthRepository {
	return &AuthRepository{store: store}
}

// List returns the credential list in registration order. An event with no
// registrations yet yields an empty list.
func (r *AuthRepository) List(ctx context.Context, eventID string) ([]model.ParticipantAuth, error) {
	raw, ok, err := r.store.Get(ctx, AuthKey(eventID))
	if err != nil {
		return nil, apperr.Unavailable("load credentials", err)
	}
	if !ok {
		return []model.ParticipantAuth{}, nil
	}

	var list []model.ParticipantAuth
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, apperr.Unavailable("decode credentials", err)
	}
	if list == nil {
		list = []model.ParticipantAuth{}
	}
	return list, nil
}

// Put replaces the whole credential list.
func (r *AuthRepository) Put(ctx context.Context, eventID string, list []model.ParticipantAuth) error {
	if list == nil {
		list = []model.ParticipantAuth{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := r.store.Set(ctx, AuthKey(eventID), raw); err != nil {
		return apperr.Unavailable("save credentials", err)
	}
	return nil
}

// Delete removes the credential list.
func (r *AuthRepository) Delete(ctx context.Context, eventID string) error {
	if err := r.store.Delete(ctx, AuthKey(eventID)); err != nil {
		return apperr.Unavailable("delete credentials", err)
	}
	return nil
}
