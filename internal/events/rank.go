package events

import (
	"github.com/kalambet/civic/internal/ranking"
	"github.com/kalambet/civic/internal/storage"
)

// rankable adapts a stored event to ranking.Candidate.
type rankable struct {
	storage.Event
}

func (r rankable) Identifier() int64 { return r.ID }

func (r rankable) Signals() ranking.Signals {
	return ranking.Signals{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Priority:    r.Priority,
		Views:       r.ViewCount,
		Date:        r.EventDate,
	}
}

func toRankable(events []storage.Event) []rankable {
	out := make([]rankable, len(events))
	for i, e := range events {
		out[i] = rankable{e}
	}
	return out
}

func toInteractions(history []storage.SearchRecord) []ranking.Interaction {
	out := make([]ranking.Interaction, len(history))
	for i, h := range history {
		out[i] = ranking.Interaction{Category: h.Category, Keyword: h.SearchTerm, At: h.SearchedAt}
	}
	return out
}

// identityKind labels a caller for metrics.
func identityKind(id storage.Identity) string {
	switch {
	case id.UserID != nil:
		return "user"
	case id.SessionID != "":
		return "session"
	default:
		return "anonymous"
	}
}
