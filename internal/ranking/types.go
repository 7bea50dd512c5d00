package ranking

import (
	"time"

	"github.com/kalambet/civic/internal/collections"
)

// DefaultTopN is the number of recommendations returned when the caller does
// not ask for a specific count.
const DefaultTopN = 5

// Signals are the candidate attributes the scorer reads.
type Signals struct {
	Title       string
	Description string
	Category    string
	Priority    int // base weight, >= 1 for stored events
	Views       int
	Date        time.Time
}

// Candidate is anything that can be ranked: it has an id and exposes Signals.
type Candidate interface {
	collections.Identifiable
	Signals() Signals
}

// Interaction is one entry of a user's or session's recent search history.
type Interaction struct {
	Category string
	Keyword  string // optional
	At       time.Time
}

// Scored pairs a candidate with the score it was ranked by.
type Scored[T Candidate] struct {
	Candidate T
	Score     int
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
