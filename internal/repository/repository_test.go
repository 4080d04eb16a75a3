package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/group-planner/internal/apperr"
	"github.com/Shivanand-hulikatti/group-planner/internal/model"
)

type brokenStore struct{}

var errDown = errors.New("connection refused")

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errDown }
func (brokenStore) Set(context.Context, string, []byte) error         { return errDown }
func (brokenStore) Delete(context.Context, string) error              { return errDown }
func (brokenStore) Close() error                                      { return nil }

func TestEventRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(NewMemoryStore())
	rec := model.EventRecord{
		ID:           "e1",
		Name:         "Trip",
		Organizer:    "Ana",
		Participants: []model.Participant{{Name: "Ana", AvailableDates: []string{"2024-01-01"}}},
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Language:     model.LanguageEnglish,
	}
	if err := repo.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := repo.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Trip" || len(got.Participants) != 1 || got.Language != model.LanguageEnglish {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.ActivitySuggestions == nil {
		t.Fatal("expected empty suggestions slice, not nil")
	}
}

func TestEventRepositoryNotFound(t *testing.T) {
	_, err := NewEventRepository(NewMemoryStore()).Get(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEventRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(NewMemoryStore())
	_ = repo.Put(ctx, model.EventRecord{ID: "e1"})
	if err := repo.Delete(ctx, "e1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "e1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAuthRepositoryEmptyWhenMissing(t *testing.T) {
	list, err := NewAuthRepository(NewMemoryStore()).List(context.Background(), "e1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %#v", list)
	}
}

func TestAuthRepositoryKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewAuthRepository(NewMemoryStore())
	in := []model.ParticipantAuth{{Name: "B"}, {Name: "A"}, {Name: "C"}}
	if err := repo.Put(ctx, "e1", in); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ := repo.List(ctx, "e1")
	for i := range in {
		if got[i].Name != in[i].Name {
			t.Fatalf("order changed: %+v", got)
		}
	}
}

func TestStoreFailuresAreUnavailable(t *testing.T) {
	ctx := context.Background()
	events := NewEventRepository(brokenStore{})
	auth := NewAuthRepository(brokenStore{})

	checks := map[string]error{
		"event get":    func() error { _, err := events.Get(ctx, "e1"); return err }(),
		"event put":    events.Put(ctx, model.EventRecord{ID: "e1"}),
		"event delete": events.Delete(ctx, "e1"),
		"auth list":    func() error { _, err := auth.List(ctx, "e1"); return err }(),
		"auth put":     auth.Put(ctx, "e1", nil),
		"auth delete":  auth.Delete(ctx, "e1"),
	}
	for name, err := range checks {
		if !errors.Is(err, apperr.ErrStoreUnavailable) {
			t.Errorf("%s: expected store unavailable, got %v", name, err)
		}
		if !errors.Is(err, errDown) {
			t.Errorf("%s: cause lost: %v", name, err)
		}
	}
}

func TestCorruptDocumentIsUnavailable(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Set(ctx, EventKey("e1"), []byte("not json"))
	if _, err := NewEventRepository(s).Get(ctx, "e1"); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}
