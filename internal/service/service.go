// Package service implements validation and read-modify-write orchestration
// between HTTP handlers and the repository layer.
//
// Every mutation loads the whole EventRecord, edits a clone in memory and
// writes the whole record back. Concurrent writers to the same event are
// not coordinated; the last write wins.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/group-planner/internal/apperr"
	"github.com/Shivanand-hulikatti/group-planner/internal/availability"
	"github.com/Shivanand-hulikatti/group-planner/internal/ident"
	"github.com/Shivanand-hulikatti/group-planner/internal/model"
	"github.com/Shivanand-hulikatti/group-planner/internal/repository"
	"github.com/Shivanand-hulikatti/group-planner/internal/session"
	"github.com/Shivanand-hulikatti/group-planner/internal/voting"
)

const createAttempts = 3

// Summary is the derived read model of one event.
type Summary struct {
	EventID      string               `json:"eventId"`
	Name         string               `json:"name"`
	Organizer    string               `json:"organizer"`
	Language     model.Language       `json:"language"`
	Participants []string             `json:"participants"`
	Availability availability.Summary `json:"availability"`
	Suggestions  []voting.Ranked      `json:"suggestions"`
	MostPopular  *voting.Ranked       `json:"mostPopular"`
}

// EventService orchestrates event-related business operations.
type EventService struct {
	events   *repository.EventRepository
	auth     *repository.AuthRepository
	registry *Registry
	engine   *voting.Engine
	newID    ident.Generator
	now      func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events *repository.EventRepository,
	auth *repository.AuthRepository,
	registry *Registry,
	newID ident.Generator,
	now func() time.Time,
) *EventService {
	if newID == nil {
		newID = ident.New
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:   events,
		auth:     auth,
		registry: registry,
		engine:   voting.NewEngine(newID, now),
		newID:    newID,
		now:      now,
	}
}

// CreateEvent validates the request and stores a fresh, empty event.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (model.EventRecord, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Organizer = strings.TrimSpace(req.Organizer)
	if req.Name == "" {
		return model.EventRecord{}, apperr.Invalid("event name is required")
	}
	if req.Organizer == "" {
		return model.EventRecord{}, apperr.Invalid("organizer is required")
	}
	lang, err := model.ParseLanguage(req.Language)
	if err != nil {
		return model.EventRecord{}, apperr.Wrap(apperr.CodeInvalidInput, "invalid language", err)
	}

	rec := model.EventRecord{
		Name:                req.Name,
		Organizer:           req.Organizer,
		Participants:        []model.Participant{},
		ActivitySuggestions: []model.ActivitySuggestion{},
		CreatedAt:           s.now().UTC(),
		Language:            lang,
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		rec.ID = s.newID()
		_, err := s.events.Get(ctx, rec.ID)
		if errors.Is(err, apperr.ErrNotFound) {
			if err := s.events.Put(ctx, rec); err != nil {
				return model.EventRecord{}, err
			}
			return rec, nil
		}
		if err != nil {
			return model.EventRecord{}, err
		}
	}
	return model.EventRecord{}, apperr.Conflict("could not allocate a unique event id")
}

// GetEvent returns the stored record.
func (s *EventService) GetEvent(ctx context.Context, id string) (model.EventRecord, error) {
	if strings.TrimSpace(id) == "" {
		return model.EventRecord{}, apperr.Invalid("event id is required")
	}
	return s.events.Get(ctx, id)
}

// ReplaceEvent overwrites an existing event with rec. The id in the path is
// authoritative and an unset creation time keeps the stored one.
func (s *EventService) ReplaceEvent(ctx context.Context, id string, rec model.EventRecord) (model.EventRecord, error) {
	current, err := s.GetEvent(ctx, id)
	if err != nil {
		return model.EventRecord{}, err
	}

	rec = rec.Clone()
	rec.ID = current.ID
	rec.Name = strings.TrimSpace(rec.Name)
	rec.Organizer = strings.TrimSpace(rec.Organizer)
	if rec.Name == "" || rec.Organizer == "" {
		return model.EventRecord{}, apperr.Invalid("event name and organizer are required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = current.CreatedAt
	}
	lang, err := model.ParseLanguage(string(rec.Language))
	if err != nil {
		return model.EventRecord{}, apperr.Wrap(apperr.CodeInvalidInput, "invalid language", err)
	}
	rec.Language = lang
	if rec.Participants == nil {
		rec.Participants = []model.Participant{}
	}
	if rec.ActivitySuggestions == nil {
		rec.ActivitySuggestions = []model.ActivitySuggestion{}
	}
	if err := checkRecord(rec); err != nil {
		return model.EventRecord{}, err
	}

	if err := s.events.Put(ctx, rec); err != nil {
		return model.EventRecord{}, err
	}
	return rec, nil
}

// DeleteEvent removes the event record and its credential list.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if _, err := s.GetEvent(ctx, id); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	return s.auth.Delete(ctx, id)
}

// SaveAvailability replaces name's available dates, adding the participant
// on first submission. Only registered names may submit.
func (s *EventService) SaveAvailability(ctx context.Context, eventID, name string, dates []string) (model.EventRecord, error) {
	clean, err := normalizeDates(dates)
	if err != nil {
		return model.EventRecord{}, err
	}
	rec, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return model.EventRecord{}, err
	}
	if err := s.requireRegistered(ctx, eventID, name); err != nil {
		return model.EventRecord{}, err
	}

	out := rec.Clone()
	if i := out.FindParticipant(name); i >= 0 {
		out.Participants[i].AvailableDates = clean
	} else {
		out.Participants = append(out.Participants, model.Participant{Name: name, AvailableDates: clean})
	}

	if err := s.events.Put(ctx, out); err != nil {
		return model.EventRecord{}, err
	}
	return out, nil
}

// DeleteParticipant removes name's availability, votes and credentials and
// signs the caller out when they were name. If removing the credentials
// fails after the record was written, the previous record is restored.
func (s *EventService) DeleteParticipant(ctx context.Context, sess *session.Manager, eventID, name string) (model.EventRecord, error) {
	if strings.TrimSpace(name) == "" {
		return model.EventRecord{}, apperr.Invalid("participant name is required")
	}
	rec, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return model.EventRecord{}, err
	}
	registered, err := s.registry.IsRegistered(ctx, eventID, name)
	if err != nil {
		return model.EventRecord{}, err
	}
	idx := rec.FindParticipant(name)
	if idx < 0 && !registered {
		return model.EventRecord{}, apperr.NotFound("participant not found")
	}

	out := rec.Clone()
	if idx >= 0 {
		out.Participants = append(out.Participants[:idx], out.Participants[idx+1:]...)
	}
	for _, sg := range out.ActivitySuggestions {
		if _, voted := voting.VoteOf(sg, name); voted {
			out.ActivitySuggestions, err = voting.Vote(out.ActivitySuggestions, sg.ID, name, nil)
			if err != nil {
				return model.EventRecord{}, err
			}
		}
	}

	if err := s.events.Put(ctx, out); err != nil {
		return model.EventRecord{}, err
	}
	if err := s.registry.Delete(ctx, nil, eventID, name); err != nil {
		if rerr := s.events.Put(ctx, rec); rerr != nil {
			return model.EventRecord{}, errors.Join(err, fmt.Errorf("restore event: %w", rerr))
		}
		return model.EventRecord{}, err
	}

	// Both writes are committed; a failed sign-out no longer rolls anything back.
	if sess != nil {
		if err := sess.ClearIf(ctx, eventID, name); err != nil {
			return model.EventRecord{}, apperr.Wrap(apperr.CodeStoreUnavailable, "participant deleted but sign-out failed", err)
		}
	}
	return out, nil
}

// AddSuggestion records a new activity proposed by actor.
func (s *EventService) AddSuggestion(ctx context.Context, eventID, actor, name, description string) (model.EventRecord, model.ActivitySuggestion, error) {
	rec, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return model.EventRecord{}, model.ActivitySuggestion{}, err
	}
	if err := s.requireRegistered(ctx, eventID, actor); err != nil {
		return model.EventRecord{}, model.ActivitySuggestion{}, err
	}

	list, created, err := s.engine.AddSuggestion(rec.ActivitySuggestions, name, description, actor)
	if err != nil {
		return model.EventRecord{}, model.ActivitySuggestion{}, err
	}
	out := rec.Clone()
	out.ActivitySuggestions = list
	if err := s.events.Put(ctx, out); err != nil {
		return model.EventRecord{}, model.ActivitySuggestion{}, err
	}
	return out, created, nil
}

// EditSuggestion renames or redescribes a suggestion. Only its author may
// edit it; an unknown suggestion id changes nothing.
func (s *EventService) EditSuggestion(ctx context.Context, eventID, actor, suggestionID, name, description string) (model.EventRecord, error) {
	rec, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return model.EventRecord{}, err
	}
	found, err := s.authorize(rec, actor, suggestionID)
	if err != nil {
		return model.EventRecord{}, err
	}
	if !found {
		return rec, nil
	}

	list, err := voting.EditSuggestion(rec.ActivitySuggestions, suggestionID, name, description)
	if err != nil {
		return model.EventRecord{}, err
	}
	return s.putSuggestions(ctx, rec, list)
}

// DeleteSuggestion removes a suggestion. Only its author may delete it; an
// unknown suggestion id changes nothing.
func (s *EventService) DeleteSuggestion(ctx context.Context, eventID, actor, suggestionID string) (model.EventRecord, error) {
	rec, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return model.EventRecord{}, err
	}
	found, err := s.authorize(rec, actor, suggestionID)
	if err != nil {
		return model.EventRecord{}, err
	}
	if !found {
		return rec, nil
	}
	return s.putSuggestions(ctx, rec, voting.DeleteSuggestion(rec.ActivitySuggestions, suggestionID))
}

// Vote casts, replaces or (with a nil voteType) withdraws actor's vote.
func (s *EventService) Vote(ctx context.Context, eventID, actor, suggestionID string, voteType *model.VoteType) (model.EventRecord, error) {
	rec, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return model.EventRecord{}, err
	}
	if err := s.requireRegistered(ctx, eventID, actor); err != nil {
		return model.EventRecord{}, err
	}

	list, err := voting.Vote(rec.ActivitySuggestions, suggestionID, actor, voteType)
	if err != nil {
		return model.EventRecord{}, err
	}
	if !hasSuggestion(rec, suggestionID) {
		return rec, nil
	}
	return s.putSuggestions(ctx, rec, list)
}

// Summary builds the availability heatmap and the ranked suggestion list.
func (s *EventService) Summary(ctx context.Context, eventID string) (Summary, error) {
	rec, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(rec), nil
}

// Summarize derives the read model from a record without touching storage.
func Summarize(rec model.EventRecord) Summary {
	names := make([]string, len(rec.Participants))
	for i, p := range rec.Participants {
		names[i] = p.Name
	}
	ranked := voting.Rank(rec.ActivitySuggestions)
	sum := Summary{
		EventID:      rec.ID,
		Name:         rec.Name,
		Organizer:    rec.Organizer,
		Language:     rec.Language,
		Participants: names,
		Availability: availability.Aggregate(rec.Participants),
		Suggestions:  ranked,
	}
	if top, ok := voting.MostPopular(ranked); ok {
		sum.MostPopular = &top
	}
	return sum
}

func (s *EventService) putSuggestions(ctx context.Context, rec model.EventRecord, list []model.ActivitySuggestion) (model.EventRecord, error) {
	out := rec.Clone()
	out.ActivitySuggestions = list
	if err := s.events.Put(ctx, out); err != nil {
		return model.EventRecord{}, err
	}
	return out, nil
}

// authorize reports whether suggestionID exists and fails when actor is not
// its author.
func (s *EventService) authorize(rec model.EventRecord, actor, suggestionID string) (bool, error) {
	if strings.TrimSpace(actor) == "" {
		return false, apperr.ErrUnauthorized
	}
	for _, sg := range rec.ActivitySuggestions {
		if sg.ID != suggestionID {
			continue
		}
		if sg.SuggestedBy != actor {
			return true, apperr.New(apperr.CodeUnauthorized, "only the author can change a suggestion")
		}
		return true, nil
	}
	return false, nil
}

func hasSuggestion(rec model.EventRecord, suggestionID string) bool {
	for _, sg := range rec.ActivitySuggestions {
		if sg.ID == suggestionID {
			return true
		}
	}
	return false
}

// checkRecord enforces the record invariants a client-supplied replacement
// could break: unique participant names, unique valid dates per participant,
// unique suggestion ids and at most one known vote per voter and suggestion.
func checkRecord(rec model.EventRecord) error {
	names := make(map[string]struct{}, len(rec.Participants))
	for _, p := range rec.Participants {
		if strings.TrimSpace(p.Name) == "" {
			return apperr.Invalid("participant name is required")
		}
		if _, dup := names[p.Name]; dup {
			return apperr.Invalid(fmt.Sprintf("duplicate participant %q", p.Name))
		}
		names[p.Name] = struct{}{}

		dates := make(map[string]struct{}, len(p.AvailableDates))
		for _, d := range p.AvailableDates {
			if _, err := time.Parse(model.DateLayout, d); err != nil {
				return apperr.Invalid(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d))
			}
			if _, dup := dates[d]; dup {
				return apperr.Invalid(fmt.Sprintf("duplicate date %q for %q", d, p.Name))
			}
			dates[d] = struct{}{}
		}
	}

	ids := make(map[string]struct{}, len(rec.ActivitySuggestions))
	for _, sg := range rec.ActivitySuggestions {
		if strings.TrimSpace(sg.ID) == "" {
			return apperr.Invalid("suggestion id is required")
		}
		if _, dup := ids[sg.ID]; dup {
			return apperr.Invalid(fmt.Sprintf("duplicate suggestion id %q", sg.ID))
		}
		ids[sg.ID] = struct{}{}

		voters := make(map[string]struct{}, len(sg.Votes))
		for _, v := range sg.Votes {
			if !v.VoteType.Valid() {
				return apperr.Invalid(fmt.Sprintf("unknown vote type %q", v.VoteType))
			}
			if strings.TrimSpace(v.ParticipantName) == "" {
				return apperr.Invalid("vote without a participant")
			}
			if _, dup := voters[v.ParticipantName]; dup {
				return apperr.Invalid(fmt.Sprintf("more than one vote by %q on %q", v.ParticipantName, sg.ID))
			}
			voters[v.ParticipantName] = struct{}{}
		}
	}
	return nil
}

func (s *EventService) requireRegistered(ctx context.Context, eventID, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.ErrUnauthorized
	}
	ok, err := s.registry.IsRegistered(ctx, eventID, name)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.CodeUnauthorized, "participant is not registered")
	}
	return nil
}

// normalizeDates validates ISO dates and drops repeats, keeping the first
// occurrence.
func normalizeDates(dates []string) ([]string, error) {
	out := make([]string, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if _, err := time.Parse(model.DateLayout, d); err != nil {
			return nil, apperr.Invalid(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d))
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, apperr.Invalid("at least one date is required")
	}
	return out, nil
}
