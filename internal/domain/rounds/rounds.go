// Package rounds owns the current round and keeps the clock bound to it.
//
// Regulation rounds form a linear chain R1-R2-R3 walked with Advance and
// Retreat. The tiebreaker is a terminal branch: it is entered only through
// EnterTiebreaker and cannot be left by Retreat.
package rounds

import (
	"fmt"

	"github.com/okian/pillowbout/internal/domain/clock"
	"github.com/okian/pillowbout/internal/domain/model"
)

// Default round lengths in seconds.
const (
	DefaultRoundSeconds      = 90
	DefaultTiebreakerSeconds = 30
)

// Durations configures round lengths in seconds.
type Durations struct {
	Round      int
	Tiebreaker int
}

// DefaultDurations returns 90s rounds and a 30s tiebreaker.
func DefaultDurations() Durations {
	return Durations{Round: DefaultRoundSeconds, Tiebreaker: DefaultTiebreakerSeconds}
}

// For returns the configured length of r.
func (d Durations) For(r model.Round) int {
	if r == model.Tiebreaker {
		return d.Tiebreaker
	}
	return d.Round
}

// Step describes what a linear move did.
type Step int

// Step results.
const (
	// Unchanged means the move had no target (R1 retreat, any move from TB).
	Unchanged Step = iota
	// Moved means the controller entered a new round.
	Moved
	// RegulationComplete is reported by Advance from Round 3. It is
	// informational; the tiebreaker is never entered implicitly.
	RegulationComplete
)

func (s Step) String() string {
	switch s {
	case Moved:
		return "moved"
	case RegulationComplete:
		return "regulation_complete"
	default:
		return "unchanged"
	}
}

// Controller is the round state machine.
type Controller struct {
	clock          *clock.Clock
	durations      Durations
	current        model.Round
	tiebreakerUsed bool
}

// New creates a controller in Round 1 and loads the clock with its length.
func New(c *clock.Clock, d Durations) *Controller {
	ctl := &Controller{clock: c, durations: d}
	ctl.enter(model.Round1)
	return ctl
}

// Current returns the active round.
func (c *Controller) Current() model.Round { return c.current }

// TiebreakerUsed reports whether the tiebreaker has ever been entered in this
// bout. It only goes back to false through Restart.
func (c *Controller) TiebreakerUsed() bool { return c.tiebreakerUsed }

// Durations returns the configured lengths.
func (c *Controller) Durations() Durations { return c.durations }

// Advance moves R1 to R2 and R2 to R3.
func (c *Controller) Advance() Step {
	switch c.current {
	case model.Round1, model.Round2:
		c.enter(c.current + 1)
		return Moved
	case model.Round3:
		return RegulationComplete
	default:
		return Unchanged
	}
}

// Retreat moves R3 to R2 and R2 to R1.
func (c *Controller) Retreat() Step {
	switch c.current {
	case model.Round2, model.Round3:
		c.enter(c.current - 1)
		return Moved
	default:
		return Unchanged
	}
}

// EnterTiebreaker switches to the tiebreaker when eligible holds, which the
// caller computes from the current scores. The controller additionally
// requires being in a regulation round.
func (c *Controller) EnterTiebreaker(eligible bool) error {
	if !eligible || !c.current.Regulation() {
		return fmt.Errorf("%w: current round %s", ErrTiebreakerNotAllowed, c.current)
	}
	c.tiebreakerUsed = true
	c.enter(model.Tiebreaker)
	return nil
}

// Restart puts the controller back to a fresh bout.
func (c *Controller) Restart() {
	c.tiebreakerUsed = false
	c.enter(model.Round1)
}

// Resume selects the initial round after loading a saved bout: the
// tiebreaker when it had been used, Round 1 otherwise.
func (c *Controller) Resume(tiebreakerUsed bool) {
	c.tiebreakerUsed = tiebreakerUsed
	if tiebreakerUsed {
		c.enter(model.Tiebreaker)
		return
	}
	c.enter(model.Round1)
}

// enter makes r current and reloads the clock with r's length, so a bare
// clock reset afterwards restores the full round.
func (c *Controller) enter(r model.Round) {
	c.current = r
	c.clock.ResetTo(c.durations.For(r))
}
