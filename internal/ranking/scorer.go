package ranking

import (
	"strings"
	"time"
)

// Weights are the per-signal bonuses added on top of a candidate's priority.
type Weights struct {
	CategoryMatch int           // per history entry whose category matches
	KeywordMatch  int           // per history keyword found in title or description
	RecentBonus   int           // matching entry no older than RecentWindow
	RecentWindow  time.Duration // inclusive
	StaleBonus    int           // matching entry no older than StaleWindow
	StaleWindow   time.Duration // inclusive
	ViewsPerPoint int           // one point per this many views
}

// DefaultWeights returns the standard recommendation weights.
func DefaultWeights() Weights {
	return Weights{
		CategoryMatch: 5,
		KeywordMatch:  3,
		RecentBonus:   2,
		RecentWindow:  7 * 24 * time.Hour,
		StaleBonus:    1,
		StaleWindow:   30 * 24 * time.Hour,
		ViewsPerPoint: 10,
	}
}

// Score computes the recommendation score of s against history at now.
//
// Every history entry contributes independently. A category match adds
// CategoryMatch, a keyword found case-insensitively in the title or
// description adds KeywordMatch, and an entry that matched either way also
// earns a recency bonus by age in whole days. Popularity adds Views/ViewsPerPoint.
func (w Weights) Score(s Signals, history []Interaction, now time.Time) int {
	score := s.Priority

	title := strings.ToLower(s.Title)
	desc := strings.ToLower(s.Description)

	for _, h := range history {
		matched := false
		if strings.EqualFold(s.Category, h.Category) {
			score += w.CategoryMatch
			matched = true
		}
		if h.Keyword != "" {
			kw := strings.ToLower(h.Keyword)
			if strings.Contains(title, kw) || strings.Contains(desc, kw) {
				score += w.KeywordMatch
				matched = true
			}
		}
		if matched {
			score += w.recency(now.Sub(h.At))
		}
	}

	if w.ViewsPerPoint > 0 {
		score += s.Views / w.ViewsPerPoint
	}
	return score
}

func (w Weights) recency(age time.Duration) int {
	// Age counts whole days only, so 7d23h is still within a 7 day window.
	days := age.Truncate(24 * time.Hour)
	switch {
	case days <= w.RecentWindow:
		return w.RecentBonus
	case days <= w.StaleWindow:
		return w.StaleBonus
	default:
		return 0
	}
}
