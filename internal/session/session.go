// Package session tracks which participant is signed in to an event for one
// client. The value lives client side (in memory for a local process, in a
// signed cookie for a browser) and is never shared between clients.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/group-planner/internal/apperr"
)

// KeyPrefix is prepended to the event id to form the session slot name.
const KeyPrefix = "participant_"

// Key returns the session slot for eventID.
func Key(eventID string) string {
	return KeyPrefix + eventID
}

// Store is the client-local storage a Manager writes to.
type Store interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Manager records the current participant per event.
type Manager struct {
	store Store
}

// NewManager constructs a Manager over store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// SetCurrent marks name as the signed-in participant for eventID.
func (m *Manager) SetCurrent(ctx context.Context, eventID, name string) error {
	if strings.TrimSpace(eventID) == "" || strings.TrimSpace(name) == "" {
		return apperr.Invalid("event id and participant name are required")
	}
	return m.store.Save(ctx, Key(eventID), name)
}

// Current returns the signed-in participant for eventID, if any.
func (m *Manager) Current(ctx context.Context, eventID string) (string, bool, error) {
	name, ok, err := m.store.Load(ctx, Key(eventID))
	if err != nil || !ok || name == "" {
		return "", false, err
	}
	return name, true, nil
}

// Clear signs out of eventID.
func (m *Manager) Clear(ctx context.Context, eventID string) error {
	return m.store.Remove(ctx, Key(eventID))
}

// ClearIf signs out of eventID only when name is the current participant.
func (m *Manager) ClearIf(ctx context.Context, eventID, name string) error {
	current, ok, err := m.Current(ctx, eventID)
	if err != nil {
		return err
	}
	if !ok || current != name {
		return nil
	}
	return m.Clear(ctx, eventID)
}

// MemoryStore keeps session slots in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
