package voting

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/group-planner/internal/apperr"
	"github.com/Shivanand-hulikatti/group-planner/internal/model"
)

func vt(v model.VoteType) *model.VoteType { return &v }

func fixedEngine() *Engine {
	n := 0
	return NewEngine(func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}, func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	})
}

func suggestion(id string, votes ...model.ActivityVote) model.ActivitySuggestion {
	return model.ActivitySuggestion{ID: id, Name: id, Votes: votes}
}

func like(name string) model.ActivityVote {
	return model.ActivityVote{ParticipantName: name, VoteType: model.VoteLike}
}

func dislike(name string) model.ActivityVote {
	return model.ActivityVote{ParticipantName: name, VoteType: model.VoteDislike}
}

func neutral(name string) model.ActivityVote {
	return model.ActivityVote{ParticipantName: name, VoteType: model.VoteNeutral}
}

func TestAddSuggestion(t *testing.T) {
	e := fixedEngine()
	list, s, err := e.AddSuggestion(nil, "  Bowling ", "lanes 3-4", "Ana")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(list) != 1 || list[0].ID != "s1" {
		t.Fatalf("unexpected list %+v", list)
	}
	if s.Name != "Bowling" || s.SuggestedBy != "Ana" || len(s.Votes) != 0 || s.Votes == nil {
		t.Fatalf("unexpected suggestion %+v", s)
	}
	if !s.CreatedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", s.CreatedAt)
	}
}

func TestAddSuggestionValidation(t *testing.T) {
	e := fixedEngine()
	if _, _, err := e.AddSuggestion(nil, " ", "", "Ana"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, _, err := e.AddSuggestion(nil, "Bowling", "", ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEditSuggestionKeepsVotesAndAuthor(t *testing.T) {
	orig := []model.ActivitySuggestion{{ID: "s1", Name: "Old", SuggestedBy: "Ana", Votes: []model.ActivityVote{like("Bo")}}}
	out, err := EditSuggestion(orig, "s1", "New", "desc")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if out[0].Name != "New" || out[0].Description != "desc" {
		t.Fatalf("fields not replaced: %+v", out[0])
	}
	if out[0].SuggestedBy != "Ana" || len(out[0].Votes) != 1 {
		t.Fatalf("author or votes touched: %+v", out[0])
	}
	if orig[0].Name != "Old" {
		t.Fatal("input list was mutated")
	}
}

func TestEditSuggestionUnknownIDIsNoop(t *testing.T) {
	orig := []model.ActivitySuggestion{suggestion("s1")}
	out, err := EditSuggestion(orig, "missing", "New", "")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !reflect.DeepEqual(out, orig) {
		t.Fatalf("expected unchanged list, got %+v", out)
	}
}

func TestDeleteSuggestion(t *testing.T) {
	orig := []model.ActivitySuggestion{suggestion("s1"), suggestion("s2")}
	out := DeleteSuggestion(orig, "s1")
	if len(out) != 1 || out[0].ID != "s2" {
		t.Fatalf("unexpected list %+v", out)
	}
	if len(orig) != 2 {
		t.Fatal("input list was mutated")
	}
}

func TestVoteReplacesPriorVote(t *testing.T) {
	list := []model.ActivitySuggestion{suggestion("s1")}
	var err error
	for _, v := range []model.VoteType{model.VoteLike, model.VoteDislike, model.VoteNeutral} {
		list, err = Vote(list, "s1", "Ana", vt(v))
		if err != nil {
			t.Fatalf("vote: %v", err)
		}
	}
	if len(list[0].Votes) != 1 {
		t.Fatalf("expected a single vote, got %+v", list[0].Votes)
	}
	if got, _ := VoteOf(list[0], "Ana"); got != model.VoteNeutral {
		t.Fatalf("expected neutral, got %q", got)
	}
}

func TestVotesNeverExceedDistinctVoters(t *testing.T) {
	list := []model.ActivitySuggestion{suggestion("s1")}
	voters := []string{"A", "B", "A", "C", "B", "A"}
	for _, name := range voters {
		var err error
		list, err = Vote(list, "s1", name, vt(model.VoteLike))
		if err != nil {
			t.Fatalf("vote: %v", err)
		}
	}
	if len(list[0].Votes) != 3 {
		t.Fatalf("expected 3 votes, got %d", len(list[0].Votes))
	}
}

func TestVoteNilRemoves(t *testing.T) {
	list := []model.ActivitySuggestion{suggestion("s1", like("Ana"), like("Bo"))}
	out, err := Vote(list, "s1", "Ana", nil)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if len(out[0].Votes) != 1 || out[0].Votes[0].ParticipantName != "Bo" {
		t.Fatalf("unexpected votes %+v", out[0].Votes)
	}
}

func TestVoteNilWithoutPriorVoteIsNoop(t *testing.T) {
	list := []model.ActivitySuggestion{suggestion("s1", like("Bo"))}
	out, err := Vote(list, "s1", "Ana", nil)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !reflect.DeepEqual(out[0].Votes, list[0].Votes) {
		t.Fatalf("votes changed: %+v", out[0].Votes)
	}
}

func TestVoteUnknownSuggestionIsNoop(t *testing.T) {
	list := []model.ActivitySuggestion{suggestion("s1")}
	out, err := Vote(list, "nope", "Ana", vt(model.VoteLike))
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if len(out[0].Votes) != 0 {
		t.Fatalf("unexpected votes %+v", out[0].Votes)
	}
}

func TestVoteRejectsUnknownType(t *testing.T) {
	list := []model.ActivitySuggestion{suggestion("s1")}
	if _, err := Vote(list, "s1", "Ana", vt("love")); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCount(t *testing.T) {
	got := Count([]model.ActivityVote{like("a"), like("b"), like("c"), dislike("d"), neutral("e")})
	want := Tally{Likes: 3, Dislikes: 1, Neutral: 1, Score: 2}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestRankIsStable(t *testing.T) {
	list := []model.ActivitySuggestion{
		suggestion("zero-a"),
		suggestion("two", like("a"), like("b")),
		suggestion("zero-b", like("a"), dislike("b")),
		suggestion("neg", dislike("a")),
		suggestion("zero-c", neutral("a")),
	}
	ranked := Rank(list)
	var ids []string
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	want := []string{"two", "zero-a", "zero-b", "zero-c", "neg"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestMostPopular(t *testing.T) {
	tests := []struct {
		name   string
		list   []model.ActivitySuggestion
		wantID string
		wantOK bool
	}{
		{"empty", nil, "", false},
		{"zero score only", []model.ActivitySuggestion{suggestion("s1", like("a"), dislike("b"))}, "", false},
		{"all negative", []model.ActivitySuggestion{suggestion("s1", dislike("a")), suggestion("s2", dislike("a"), dislike("b"))}, "", false},
		{"positive wins", []model.ActivitySuggestion{suggestion("s1"), suggestion("s2", like("a"))}, "s2", true},
		{"tie keeps first", []model.ActivitySuggestion{suggestion("s1", like("a")), suggestion("s2", like("b"))}, "s1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MostPopular(Rank(tt.list))
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && got.ID != tt.wantID {
				t.Fatalf("expected %q, got %q", tt.wantID, got.ID)
			}
		})
	}
}
