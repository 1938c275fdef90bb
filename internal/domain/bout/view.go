package bout

import (
	"strconv"

	"github.com/okian/pillowbout/internal/domain/clock"
	"github.com/okian/pillowbout/internal/domain/model"
	"github.com/okian/pillowbout/internal/domain/scoring"
)

// EventTimeLayout formats event times in rows.
const EventTimeLayout = "15:04:05"

// DrawLabel is the winner text when totals are level.
const DrawLabel = "Draw"

// ClockView is the timer as a UI shows it.
type ClockView struct {
	Remaining int    `json:"remaining"`
	Display   string `json:"display"`
	Running   bool   `json:"running"`
}

// ScoreRow is one line of the round score table.
type ScoreRow struct {
	Round string `json:"round"`
	A     int    `json:"a"`
	B     int    `json:"b"`
	Sum   int    `json:"sum"`
}

// EventRow is a display-ready scoring event.
type EventRow struct {
	Time    string `json:"time"`
	Fighter string `json:"fighter"`
	Round   string `json:"round"`
	Label   string `json:"label"`
	Points  int    `json:"points"`
}

// View is everything a judging console renders.
type View struct {
	Judge             string                     `json:"judge"`
	BoutID            string                     `json:"bout"`
	FighterA          string                     `json:"fighter_a"`
	FighterB          string                     `json:"fighter_b"`
	Title             string                     `json:"title"`
	Round             string                     `json:"round"`
	RoundLabel        string                     `json:"round_label"`
	Clock             ClockView                  `json:"clock"`
	Scores            [model.RoundCount]ScoreRow `json:"scores"`
	RoundTotalA       int                        `json:"round_total_a"`
	RoundTotalB       int                        `json:"round_total_b"`
	TotalA            int                        `json:"total_a"`
	TotalB            int                        `json:"total_b"`
	TiebreakerEnabled bool                       `json:"tiebreaker_enabled"`
	TiebreakerUsed    bool                       `json:"tiebreaker_used"`
	Events            []EventRow                 `json:"events"`
}

// ScoreSheet is the read-only record a printed sheet is rendered from.
type ScoreSheet struct {
	Judge    string                     `json:"judge"`
	BoutID   string                     `json:"bout"`
	FighterA string                     `json:"fighter_a"`
	FighterB string                     `json:"fighter_b"`
	Rounds   [model.RoundCount]ScoreRow `json:"rounds"`
	TotalA   int                        `json:"total_a"`
	TotalB   int                        `json:"total_b"`
	Winner   string                     `json:"winner"`
	Events   []EventRow                 `json:"events"`
}

// View builds the console view of the current state.
func (s *State) View() View {
	current := s.rounds.Current()
	t := s.Tally()
	return View{
		Judge:      s.meta.Judge,
		BoutID:     s.meta.BoutID,
		FighterA:   s.meta.NameA(),
		FighterB:   s.meta.NameB(),
		Title:      s.meta.NameA() + " vs " + s.meta.NameB() + "  " + current.String(),
		Round:      current.Short(),
		RoundLabel: RoundLabel(current, s.rounds.Durations().Tiebreaker),
		Clock: ClockView{
			Remaining: s.clock.Remaining(),
			Display:   s.clock.Display(),
			Running:   s.clock.Running(),
		},
		Scores:            scoreRows(t, s.TiebreakerUsed()),
		RoundTotalA:       t.ScoreFor(model.CompetitorA, current),
		RoundTotalB:       t.ScoreFor(model.CompetitorB, current),
		TotalA:            s.TotalFor(model.CompetitorA),
		TotalB:            s.TotalFor(model.CompetitorB),
		TiebreakerEnabled: s.TiebreakerEnabled(),
		TiebreakerUsed:    s.TiebreakerUsed(),
		Events:            s.eventRows(),
	}
}

// ScoreSheet builds the printable record of the bout.
func (s *State) ScoreSheet() ScoreSheet {
	a, b := s.TotalFor(model.CompetitorA), s.TotalFor(model.CompetitorB)
	winner := DrawLabel
	switch {
	case a > b:
		winner = s.meta.NameA()
	case b > a:
		winner = s.meta.NameB()
	}
	return ScoreSheet{
		Judge:    s.meta.Judge,
		BoutID:   s.meta.BoutID,
		FighterA: s.meta.NameA(),
		FighterB: s.meta.NameB(),
		Rounds:   scoreRows(s.Tally(), s.TiebreakerUsed()),
		TotalA:   a,
		TotalB:   b,
		Winner:   winner,
		Events:   s.eventRows(),
	}
}

// RoundLabel is the heading shown above the clock, e.g. "Round 2" or
// "Tiebreaker 30s".
func RoundLabel(r model.Round, tiebreakerSeconds int) string {
	if r == model.Tiebreaker {
		return r.String() + " " + clockSeconds(tiebreakerSeconds)
	}
	return r.String()
}

func clockSeconds(n int) string {
	if n < 60 {
		return strconv.Itoa(n) + "s"
	}
	return clock.Format(n)
}

// scoreRows leaves the tiebreaker row at zero until the tiebreaker was
// reached, so the rows always add up to the totals.
func scoreRows(t scoring.Tally, tiebreakerUsed bool) [model.RoundCount]ScoreRow {
	var rows [model.RoundCount]ScoreRow
	for i, r := range t.Table() {
		rows[i] = ScoreRow{Round: r.Round.String()}
		if r.Round == model.Tiebreaker && !tiebreakerUsed {
			continue
		}
		rows[i].A, rows[i].B, rows[i].Sum = r.A, r.B, r.Sum()
	}
	return rows
}

func (s *State) eventRows() []EventRow {
	events := s.log.Events()
	rows := make([]EventRow, len(events))
	for i, ev := range events {
		rows[i] = EventRow{
			Time:    ev.Timestamp.In(s.location).Format(EventTimeLayout),
			Fighter: string(ev.Competitor),
			Round:   ev.Round.Short(),
			Label:   string(ev.Kind),
			Points:  ev.Points,
		}
	}
	return rows
}
