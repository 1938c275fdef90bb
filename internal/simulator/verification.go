package simulator

import (
	"fmt"
	"sync"

	"github.com/okian/pillowbout/internal/domain/bout"
	"github.com/okian/pillowbout/internal/domain/model"
)

// ledger tracks the points the service acknowledged, per fighter and round.
type ledger struct {
	mu     sync.Mutex
	points [2][model.RoundCount]int
}

func side(c model.Competitor) int {
	if c == model.CompetitorB {
		return 1
	}
	return 0
}

func (l *ledger) add(ev model.ScoringEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points[side(ev.Competitor)][ev.Round.Index()] += ev.Points
}

func (l *ledger) remove(ev model.ScoringEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points[side(ev.Competitor)][ev.Round.Index()] -= ev.Points
}

func (l *ledger) round(c model.Competitor, r model.Round) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.points[side(c)][r.Index()]
}

func (l *ledger) regulation(c model.Competitor) int {
	total := 0
	for r := model.Round1; r <= model.Round3; r++ {
		total += l.round(c, r)
	}
	return total
}

func (l *ledger) total(c model.Competitor, tiebreakerUsed bool) int {
	total := l.regulation(c)
	if tiebreakerUsed {
		total += l.round(c, model.Tiebreaker)
	}
	return total
}

// verifyResults checks the service's score table against the ledger.
func verifyResults(l *ledger, v bout.View) error {
	for r := model.Round1; r <= model.Tiebreaker; r++ {
		row := v.Scores[r.Index()]
		wantA, wantB := l.round(model.CompetitorA, r), l.round(model.CompetitorB, r)
		if row.A != wantA || row.B != wantB {
			return fmt.Errorf("%s: service has %d-%d, acknowledged %d-%d", r, row.A, row.B, wantA, wantB)
		}
		if row.Sum != row.A+row.B {
			return fmt.Errorf("%s: sum %d does not add up", r, row.Sum)
		}
	}
	wantA := l.total(model.CompetitorA, v.TiebreakerUsed)
	wantB := l.total(model.CompetitorB, v.TiebreakerUsed)
	if v.TotalA != wantA || v.TotalB != wantB {
		return fmt.Errorf("totals: service has %d-%d, acknowledged %d-%d", v.TotalA, v.TotalB, wantA, wantB)
	}
	return nil
}
