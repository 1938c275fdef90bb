// Package scoring derives round scores and totals from the scoring events.
//
// Everything here is a pure function of an event list: no state is kept
// between calls, so a Tally is always consistent with the events it was
// computed from.
package scoring

import "github.com/okian/pillowbout/internal/domain/model"

// Tally holds per-competitor, per-round sums.
type Tally struct {
	scores [2][model.RoundCount]int
}

// Compute sums points over events by (competitor, round). Events with an
// unknown competitor or round are ignored.
func Compute(events []model.ScoringEvent) Tally {
	var t Tally
	for _, ev := range events {
		i, ok := slot(ev.Competitor)
		if !ok || !ev.Round.Valid() {
			continue
		}
		t.scores[i][ev.Round] += ev.Points
	}
	return t
}

// FromRounds builds a Tally from stored per-round arrays.
func FromRounds(a, b [model.RoundCount]int) Tally {
	return Tally{scores: [2][model.RoundCount]int{a, b}}
}

// ScoreFor returns c's score in round r.
func (t Tally) ScoreFor(c model.Competitor, r model.Round) int {
	i, ok := slot(c)
	if !ok || !r.Valid() {
		return 0
	}
	return t.scores[i][r]
}

// Rounds returns c's four round scores.
func (t Tally) Rounds(c model.Competitor) [model.RoundCount]int {
	i, ok := slot(c)
	if !ok {
		return [model.RoundCount]int{}
	}
	return t.scores[i]
}

// TotalFor sums all four rounds for c.
func (t Tally) TotalFor(c model.Competitor) int {
	total := 0
	for r := model.Round1; r <= model.Tiebreaker; r++ {
		total += t.ScoreFor(c, r)
	}
	return total
}

// RegulationTotalFor sums rounds 1-3 only. It is the figure used for tie
// detection; the tiebreaker round never contributes.
func (t Tally) RegulationTotalFor(c model.Competitor) int {
	total := 0
	for r := model.Round1; r <= model.Round3; r++ {
		total += t.ScoreFor(c, r)
	}
	return total
}

// TiebreakerEligible is the tie rule: the bout is still in regulation, both
// regulation totals match, and that total is above zero.
func (t Tally) TiebreakerEligible(current model.Round) bool {
	if !current.Regulation() {
		return false
	}
	a := t.RegulationTotalFor(model.CompetitorA)
	b := t.RegulationTotalFor(model.CompetitorB)
	return a == b && a > 0
}

// Outcome is the result of comparing totals.
type Outcome int

// Outcomes.
const (
	Draw Outcome = iota
	WinA
	WinB
)

// Winner compares overall totals.
func (t Tally) Winner() Outcome {
	a, b := t.TotalFor(model.CompetitorA), t.TotalFor(model.CompetitorB)
	switch {
	case a > b:
		return WinA
	case b > a:
		return WinB
	default:
		return Draw
	}
}

// Row is one line of the round score table.
type Row struct {
	Round model.Round
	A     int
	B     int
}

// Sum returns A+B.
func (r Row) Sum() int { return r.A + r.B }

// Table returns the four round rows in order.
func (t Tally) Table() [model.RoundCount]Row {
	var rows [model.RoundCount]Row
	for r := model.Round1; r <= model.Tiebreaker; r++ {
		rows[r] = Row{Round: r, A: t.scores[0][r], B: t.scores[1][r]}
	}
	return rows
}

func slot(c model.Competitor) (int, bool) {
	switch c {
	case model.CompetitorA:
		return 0, true
	case model.CompetitorB:
		return 1, true
	}
	return 0, false
}
