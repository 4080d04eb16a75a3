// Package model defines the core domain types for the group planner.
package model

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// DateLayout is the ISO calendar date format used for availability.
const DateLayout = "2006-01-02"

// Language is the UI language an event was created with.
type Language string

const (
	LanguageCzech   Language = "cs"
	LanguageEnglish Language = "en"

	DefaultLanguage = LanguageCzech
)

// ParseLanguage normalizes a BCP 47 tag to one of the supported event
// languages. An empty value yields DefaultLanguage.
func ParseLanguage(raw string) (Language, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLanguage, nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", raw, err)
	}
	base, _ := tag.Base()
	switch base.String() {
	case string(LanguageCzech):
		return LanguageCzech, nil
	case string(LanguageEnglish):
		return LanguageEnglish, nil
	}
	return "", fmt.Errorf("unsupported language %q", raw)
}

// EventRecord is the whole persisted document for one event. Every mutation
// replaces the record as a unit.
type EventRecord struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Organizer           string               `json:"organizer"`
	Participants        []Participant        `json:"participants"`
	ActivitySuggestions []ActivitySuggestion `json:"activitySuggestions"`
	CreatedAt           time.Time            `json:"createdAt"`
	Language            Language             `json:"language,omitempty"`
}

// Clone returns a deep copy so callers can edit without touching the
// original.
func (e EventRecord) Clone() EventRecord {
	out := e
	if e.Participants != nil {
		out.Participants = make([]Participant, len(e.Participants))
		for i, p := range e.Participants {
			out.Participants[i] = p.Clone()
		}
	}
	if e.ActivitySuggestions != nil {
		out.ActivitySuggestions = make([]ActivitySuggestion, len(e.ActivitySuggestions))
		for i, s := range e.ActivitySuggestions {
			out.ActivitySuggestions[i] = s.Clone()
		}
	}
	return out
}

// FindParticipant returns the index of the participant with the exact name,
// or -1.
func (e EventRecord) FindParticipant(name string) int {
	for i, p := range e.Participants {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Participant is a person's availability within one event.
type Participant struct {
	Name           string   `json:"name"`
	AvailableDates []string `json:"availableDates"`
}

// Clone returns a deep copy of the participant.
func (p Participant) Clone() Participant {
	out := p
	if p.AvailableDates != nil {
		out.AvailableDates = append([]string(nil), p.AvailableDates...)
	}
	return out
}

// ParticipantAuth is a credential entry. It is stored separately from
// Participant; Name is the join key.
type ParticipantAuth struct {
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// VoteType is a participant's opinion of a suggestion.
type VoteType string

const (
	VoteLike    VoteType = "like"
	VoteNeutral VoteType = "neutral"
	VoteDislike VoteType = "dislike"
)

// Valid reports whether v is one of the known vote types.
func (v VoteType) Valid() bool {
	switch v {
	case VoteLike, VoteNeutral, VoteDislike:
		return true
	}
	return false
}

// ActivityVote is one participant's vote on a suggestion.
type ActivityVote struct {
	ParticipantName string   `json:"participantName"`
	VoteType        VoteType `json:"voteType"`
}

// ActivitySuggestion is a proposed activity and the votes it collected.
type ActivitySuggestion struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	SuggestedBy string         `json:"suggestedBy"`
	Votes       []ActivityVote `json:"votes"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Clone returns a deep copy of the suggestion.
func (s ActivitySuggestion) Clone() ActivitySuggestion {
	out := s
	if s.Votes != nil {
		out.Votes = append([]ActivityVote(nil), s.Votes...)
	}
	return out
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Organizer string `json:"organizer" validate:"required,max=100"`
	Language  string `json:"language" validate:"omitempty,max=35"`
}

// CredentialsRequest is the payload for register and authenticate.
type CredentialsRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

// AvailabilityRequest carries the full replacement list of dates.
type AvailabilityRequest struct {
	Dates []string `json:"availableDates" validate:"required,min=1,dive,required"`
}

// SuggestionRequest is the payload for adding or editing a suggestion.
type SuggestionRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// VoteRequest casts or (with a null voteType) withdraws a vote.
type VoteRequest struct {
	VoteType *VoteType `json:"voteType"`
}

// SessionResponse reports the current participant for an event.
type SessionResponse struct {
	EventID     string `json:"eventId"`
	Participant string `json:"participant,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
