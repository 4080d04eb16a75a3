// Package availability merges participant availability into a ranked
// heatmap.
package availability

import (
	"sort"
	"time"

	"github.com/Shivanand-hulikatti/group-planner/internal/model"
)

// DateAvailability is one row of the heatmap.
type DateAvailability struct {
	Date         string   `json:"date"`
	Count        int      `json:"count"`
	Participants []string `json:"participants"`
	// Intensity is Count divided by the summary's max count (clamped to 1).
	Intensity float64 `json:"intensity"`
	Band      Band    `json:"band"`
}

// Summary is the aggregated view over all participants.
type Summary struct {
	Dates     []DateAvailability `json:"dates"`
	BestDates []DateAvailability `json:"bestDates"`
	MaxCount  int                `json:"maxCount"`
}

// Band is a presentation bucket for an intensity ratio.
type Band string

const (
	BandVeryHigh Band = "very_high"
	BandHigh     Band = "high"
	BandMedium   Band = "medium"
	BandLow      Band = "low"
	BandVeryLow  Band = "very_low"
)

// BandFor buckets an intensity ratio using the fixed heatmap thresholds.
func BandFor(intensity float64) Band {
	switch {
	case intensity >= 0.8:
		return BandVeryHigh
	case intensity >= 0.6:
		return BandHigh
	case intensity >= 0.4:
		return BandMedium
	case intensity >= 0.2:
		return BandLow
	}
	return BandVeryLow
}

// Aggregate builds the ranked heatmap. Participants are visited in list
// order and each participant's dates in list order; a date repeated within
// one participant's list counts once.
func Aggregate(participants []model.Participant) Summary {
	index := make(map[string]int)
	var rows []DateAvailability

	for _, p := range participants {
		seen := make(map[string]struct{}, len(p.AvailableDates))
		for _, d := range p.AvailableDates {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}

			i, ok := index[d]
			if !ok {
				i = len(rows)
				index[d] = i
				rows = append(rows, DateAvailability{Date: d})
			}
			rows[i].Count++
			rows[i].Participants = append(rows[i].Participants, p.Name)
		}
	}

	maxCount := 0
	for _, r := range rows {
		if r.Count > maxCount {
			maxCount = r.Count
		}
	}
	divisor := float64(max(maxCount, 1))

	for i := range rows {
		rows[i].Intensity = float64(rows[i].Count) / divisor
		rows[i].Band = BandFor(rows[i].Intensity)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return dateLess(rows[i].Date, rows[j].Date)
	})

	summary := Summary{Dates: rows, MaxCount: maxCount}
	for _, r := range rows {
		if r.Count != maxCount {
			break
		}
		summary.BestDates = append(summary.BestDates, r)
	}
	if summary.Dates == nil {
		summary.Dates = []DateAvailability{}
	}
	if summary.BestDates == nil {
		summary.BestDates = []DateAvailability{}
	}
	return summary
}

// dateLess orders ISO dates chronologically. Values that do not parse sort
// after parseable ones and among themselves lexically.
func dateLess(a, b string) bool {
	ta, errA := time.Parse(model.DateLayout, a)
	tb, errB := time.Parse(model.DateLayout, b)
	switch {
	case errA == nil && errB == nil:
		return ta.Before(tb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
