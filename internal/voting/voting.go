// Package voting tallies and ranks activity suggestions.
//
// Every operation takes the current suggestion list and returns a new one;
// the input slice and its elements are never modified.
package voting

import (
	"sort"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/group-planner/internal/apperr"
	"github.com/Shivanand-hulikatti/group-planner/internal/ident"
	"github.com/Shivanand-hulikatti/group-planner/internal/model"
)

// Tally summarizes the votes on one suggestion.
type Tally struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
	Neutral  int `json:"neutral"`
	Score    int `json:"score"`
}

// Ranked pairs a suggestion with its tally.
type Ranked struct {
	model.ActivitySuggestion
	Tally Tally `json:"tally"`
}

// Engine holds the id and clock sources used when creating suggestions.
type Engine struct {
	newID ident.Generator
	now   func() time.Time
}

// NewEngine constructs an Engine. Nil arguments fall back to ident.New and
// time.Now.
func NewEngine(newID ident.Generator, now func() time.Time) *Engine {
	if newID == nil {
		newID = ident.New
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{newID: newID, now: now}
}

// AddSuggestion appends a new suggestion with no votes.
func (e *Engine) AddSuggestion(list []model.ActivitySuggestion, name, description, suggestedBy string) ([]model.ActivitySuggestion, model.ActivitySuggestion, error) {
	name = strings.TrimSpace(name)
	suggestedBy = strings.TrimSpace(suggestedBy)
	if name == "" {
		return nil, model.ActivitySuggestion{}, apperr.Invalid("suggestion name is required")
	}
	if suggestedBy == "" {
		return nil, model.ActivitySuggestion{}, apperr.Invalid("suggestedBy is required")
	}

	s := model.ActivitySuggestion{
		ID:          e.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		SuggestedBy: suggestedBy,
		Votes:       []model.ActivityVote{},
		CreatedAt:   e.now().UTC(),
	}
	out := cloneAll(list)
	out = append(out, s)
	return out, s, nil
}

// EditSuggestion replaces name and description of the suggestion with id.
// An unknown id leaves the list unchanged.
func EditSuggestion(list []model.ActivitySuggestion, id, name, description string) ([]model.ActivitySuggestion, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("suggestion name is required")
	}
	out := cloneAll(list)
	for i := range out {
		if out[i].ID == id {
			out[i].Name = name
			out[i].Description = strings.TrimSpace(description)
			break
		}
	}
	return out, nil
}

// DeleteSuggestion removes the suggestion with id.
func DeleteSuggestion(list []model.ActivitySuggestion, id string) []model.ActivitySuggestion {
	out := make([]model.ActivitySuggestion, 0, len(list))
	for _, s := range list {
		if s.ID != id {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Vote drops any prior vote by participant on the suggestion and, when
// voteType is non-nil, appends the new one. An unknown suggestion id leaves
// the list unchanged.
func Vote(list []model.ActivitySuggestion, suggestionID, participant string, voteType *model.VoteType) ([]model.ActivitySuggestion, error) {
	if strings.TrimSpace(participant) == "" {
		return nil, apperr.Invalid("participant name is required")
	}
	if voteType != nil && !voteType.Valid() {
		return nil, apperr.Invalid("unknown vote type " + string(*voteType))
	}

	out := cloneAll(list)
	for i := range out {
		if out[i].ID != suggestionID {
			continue
		}
		votes := make([]model.ActivityVote, 0, len(out[i].Votes)+1)
		for _, v := range out[i].Votes {
			if v.ParticipantName != participant {
				votes = append(votes, v)
			}
		}
		if voteType != nil {
			votes = append(votes, model.ActivityVote{ParticipantName: participant, VoteType: *voteType})
		}
		out[i].Votes = votes
		break
	}
	return out, nil
}

// Count tallies votes. Score is likes minus dislikes; neutral votes never
// affect it.
func Count(votes []model.ActivityVote) Tally {
	var t Tally
	for _, v := range votes {
		switch v.VoteType {
		case model.VoteLike:
			t.Likes++
		case model.VoteDislike:
			t.Dislikes++
		case model.VoteNeutral:
			t.Neutral++
		}
	}
	t.Score = t.Likes - t.Dislikes
	return t
}

// Rank orders suggestions by score descending. Equal scores keep their
// original relative order.
func Rank(list []model.ActivitySuggestion) []Ranked {
	out := make([]Ranked, len(list))
	for i, s := range list {
		out[i] = Ranked{ActivitySuggestion: s.Clone(), Tally: Count(s.Votes)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tally.Score > out[j].Tally.Score
	})
	return out
}

// MostPopular returns the first ranked suggestion when its score is
// positive.
func MostPopular(ranked []Ranked) (Ranked, bool) {
	if len(ranked) == 0 || ranked[0].Tally.Score <= 0 {
		return Ranked{}, false
	}
	return ranked[0], true
}

// VoteOf returns the vote participant cast on s, if any.
func VoteOf(s model.ActivitySuggestion, participant string) (model.VoteType, bool) {
	for _, v := range s.Votes {
		if v.ParticipantName == participant {
			return v.VoteType, true
		}
	}
	return "", false
}

func cloneAll(list []model.ActivitySuggestion) []model.ActivitySuggestion {
	out := make([]model.ActivitySuggestion, len(list), len(list)+1)
	for i, s := range list {
		out[i] = s.Clone()
	}
	return out
}
