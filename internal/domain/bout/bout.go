// Package bout composes the clock, event log, score tally and round
// controller into the aggregate that a judging session mutates and persists.
package bout

import (
	"strings"
	"time"

	"github.com/okian/pillowbout/internal/domain/clock"
	"github.com/okian/pillowbout/internal/domain/eventlog"
	"github.com/okian/pillowbout/internal/domain/model"
	"github.com/okian/pillowbout/internal/domain/rounds"
	"github.com/okian/pillowbout/internal/domain/scoring"
)

// Placeholder names used when a fighter has not been named.
const (
	DefaultFighterA = "Fighter A"
	DefaultFighterB = "Fighter B"
)

// Metadata is the free-text header of a bout.
type Metadata struct {
	Judge    string
	BoutID   string
	FighterA string
	FighterB string
}

func (m Metadata) trimmed() Metadata {
	return Metadata{
		Judge:    strings.TrimSpace(m.Judge),
		BoutID:   strings.TrimSpace(m.BoutID),
		FighterA: strings.TrimSpace(m.FighterA),
		FighterB: strings.TrimSpace(m.FighterB),
	}
}

// NameA returns fighter A's name or the placeholder.
func (m Metadata) NameA() string {
	if m.FighterA == "" {
		return DefaultFighterA
	}
	return m.FighterA
}

// NameB returns fighter B's name or the placeholder.
func (m Metadata) NameB() string {
	if m.FighterB == "" {
		return DefaultFighterB
	}
	return m.FighterB
}

// Name returns the display name of c.
func (m Metadata) Name(c model.Competitor) string {
	if c == model.CompetitorB {
		return m.NameB()
	}
	return m.NameA()
}

// State is the aggregate root of one bout. It is not safe for concurrent use;
// hosts serialise every call onto a single writer.
type State struct {
	meta   Metadata
	clock  *clock.Clock
	log    *eventlog.Log
	rounds *rounds.Controller

	// tally caches scoring.Compute over the log; dropped on append/undo.
	tally      scoring.Tally
	tallyValid bool

	// stored holds score arrays read from a saved file. They are written back
	// verbatim until the first append or undo.
	stored *storedScores

	location *time.Location
}

type storedScores struct {
	a, b [model.RoundCount]int
}

// Option applies a configuration option to the State.
type Option func(*settings)

type settings struct {
	durations rounds.Durations
	table     model.PointTable
	now       func() time.Time
	location  *time.Location
}

// WithDurations sets round and tiebreaker lengths in seconds.
func WithDurations(d rounds.Durations) Option {
	return func(s *settings) {
		if d.Round > 0 {
			s.durations.Round = d.Round
		}
		if d.Tiebreaker > 0 {
			s.durations.Tiebreaker = d.Tiebreaker
		}
	}
}

// WithPointTable overrides the kind to points table.
func WithPointTable(table model.PointTable) Option {
	return func(s *settings) {
		if len(table) > 0 {
			s.table = table
		}
	}
}

// WithNow overrides the event timestamp source.
func WithNow(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone used for event row times.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.location = loc
		}
	}
}

// New creates an empty bout in Round 1.
func New(opts ...Option) *State {
	cfg := settings{
		durations: rounds.DefaultDurations(),
		table:     model.DefaultPointTable(),
		now:       time.Now,
		location:  time.Local,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	clk := clock.New(cfg.durations.Round)
	return &State{
		clock:    clk,
		log:      eventlog.New(eventlog.WithPointTable(cfg.table), eventlog.WithClock(cfg.now)),
		rounds:   rounds.New(clk, cfg.durations),
		location: cfg.location,
	}
}

// Reset starts a brand-new bout: metadata, events and the tiebreaker flag are
// cleared and the clock is stopped at a full Round 1.
func (s *State) Reset() {
	s.meta = Metadata{}
	s.log.Clear()
	s.stored = nil
	s.invalidate()
	s.rounds.Restart()
}

// Metadata returns the bout header.
func (s *State) Metadata() Metadata { return s.meta }

// SetMetadata replaces the bout header; values are trimmed.
func (s *State) SetMetadata(m Metadata) { s.meta = m.trimmed() }

// Score records kind for c in the current round.
func (s *State) Score(c model.Competitor, k model.Kind) (model.ScoringEvent, error) {
	ev, err := s.log.Append(c, s.rounds.Current(), k)
	if err != nil {
		return model.ScoringEvent{}, err
	}
	s.stored = nil
	s.invalidate()
	return ev, nil
}

// Undo removes the most recent event from whichever round it was scored in.
// ok is false when there was nothing to undo.
func (s *State) Undo() (model.ScoringEvent, bool) {
	ev, ok := s.log.UndoLast()
	if !ok {
		return model.ScoringEvent{}, false
	}
	s.stored = nil
	s.invalidate()
	return ev, true
}

// Advance moves to the next regulation round.
func (s *State) Advance() rounds.Step { return s.rounds.Advance() }

// Retreat moves to the previous regulation round.
func (s *State) Retreat() rounds.Step { return s.rounds.Retreat() }

// EnterTiebreaker switches to the tiebreaker if the tie rule holds now.
func (s *State) EnterTiebreaker() error {
	return s.rounds.EnterTiebreaker(s.TiebreakerEnabled())
}

// StartClock starts the countdown; see clock.Clock.Start.
func (s *State) StartClock() bool { return s.clock.Start() }

// PauseClock pauses the countdown.
func (s *State) PauseClock() { s.clock.Pause() }

// ResetClock stops the clock at the current round's full length.
func (s *State) ResetClock() { s.clock.Reset() }

// Tick advances the clock by one second and reports expiry.
func (s *State) Tick() bool { return s.clock.Tick() }

// ClockRunning reports whether the countdown is active.
func (s *State) ClockRunning() bool { return s.clock.Running() }

// Remaining returns the seconds left in the current round.
func (s *State) Remaining() int { return s.clock.Remaining() }

// CurrentRound returns the active round.
func (s *State) CurrentRound() model.Round { return s.rounds.Current() }

// TiebreakerUsed reports whether the tiebreaker was ever entered.
func (s *State) TiebreakerUsed() bool { return s.rounds.TiebreakerUsed() }

// Durations returns the round lengths in use.
func (s *State) Durations() rounds.Durations { return s.rounds.Durations() }

// PointTable returns the kind to points table in use.
func (s *State) PointTable() model.PointTable { return s.log.Table() }

// Events returns the scoring events in insertion order.
func (s *State) Events() []model.ScoringEvent { return s.log.Events() }

// Tally returns the scores derived from the current event log.
func (s *State) Tally() scoring.Tally {
	if !s.tallyValid {
		s.tally = scoring.Compute(s.log.Events())
		s.tallyValid = true
	}
	return s.tally
}

// ScoreFor returns c's score in round r.
func (s *State) ScoreFor(c model.Competitor, r model.Round) int {
	return s.Tally().ScoreFor(c, r)
}

// RegulationTotalFor sums rounds 1-3 for c.
func (s *State) RegulationTotalFor(c model.Competitor) int {
	return s.Tally().RegulationTotalFor(c)
}

// TotalFor sums c's rounds; the tiebreaker counts only once it was reached.
func (s *State) TotalFor(c model.Competitor) int {
	if !s.TiebreakerUsed() {
		return s.RegulationTotalFor(c)
	}
	return s.Tally().TotalFor(c)
}

// TiebreakerEnabled evaluates the tie rule against the current scores and
// round. It is a pure query; nothing is tracked on behalf of a UI.
func (s *State) TiebreakerEnabled() bool {
	return s.Tally().TiebreakerEligible(s.rounds.Current())
}

func (s *State) invalidate() {
	s.tallyValid = false
}
