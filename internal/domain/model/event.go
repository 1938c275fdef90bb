// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Competitor identifies one side of the bout.
type Competitor string

// The two competitors. The string values are the persisted "fighter" codes.
const (
	CompetitorA Competitor = "A"
	CompetitorB Competitor = "B"
)

// Competitors lists both sides in display order.
var Competitors = [2]Competitor{CompetitorA, CompetitorB} //nolint:gochecknoglobals // fixed table

// Valid reports whether c is A or B.
func (c Competitor) Valid() bool {
	return c == CompetitorA || c == CompetitorB
}

// ParseCompetitor accepts "A"/"B" (case-insensitive).
func ParseCompetitor(s string) (Competitor, error) {
	switch s {
	case "A", "a":
		return CompetitorA, nil
	case "B", "b":
		return CompetitorB, nil
	}
	return "", fmt.Errorf("unknown competitor %q", s)
}

// Round is one of the four ordinal round slots.
type Round int

// Round slots. The integer value is the persisted "round_index".
const (
	Round1 Round = iota
	Round2
	Round3
	Tiebreaker
)

// RoundCount is the number of round slots, tiebreaker included.
const RoundCount = 4

// RegulationRounds is the number of rounds before the tiebreaker.
const RegulationRounds = 3

var (
	roundNames = [RoundCount]string{"Round 1", "Round 2", "Round 3", "Tiebreaker"} //nolint:gochecknoglobals // fixed table
	roundShort = [RoundCount]string{"R1", "R2", "R3", "TB"}                        //nolint:gochecknoglobals // fixed table
)

// Valid reports whether r is one of the four slots.
func (r Round) Valid() bool { return r >= Round1 && r <= Tiebreaker }

// Regulation reports whether r is Round1..Round3.
func (r Round) Regulation() bool { return r >= Round1 && r <= Round3 }

// Index returns the zero-based slot index.
func (r Round) Index() int { return int(r) }

// String returns the long display name, e.g. "Round 2".
func (r Round) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Round(%d)", int(r))
	}
	return roundNames[r]
}

// Short returns the short code used in event rows: R1, R2, R3 or TB.
func (r Round) Short() string {
	if !r.Valid() {
		return "??"
	}
	return roundShort[r]
}

// ScoringEvent is an immutable record of one point-awarding action.
// Points are captured from the kind table when the event is created.
type ScoringEvent struct {
	Timestamp  time.Time  `json:"ts"`
	Competitor Competitor `json:"fighter"`
	Round      Round      `json:"round_index"`
	Kind       Kind       `json:"label"`
	Points     int        `json:"points"`
}
