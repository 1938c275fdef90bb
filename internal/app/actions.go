package service

import (
	"context"
	"time"

	"github.com/okian/pillowbout/internal/adapters/repository"
	"github.com/okian/pillowbout/internal/domain/bout"
	"github.com/okian/pillowbout/internal/domain/model"
	"github.com/okian/pillowbout/internal/domain/rounds"
	"github.com/okian/pillowbout/pkg/logger"
)

// ScoreResult is the outcome of a scoring request.
type ScoreResult struct {
	Event     model.ScoringEvent `json:"event"`
	Duplicate bool               `json:"duplicate"`
	View      bout.View          `json:"view"`
}

// UndoResult is the outcome of an undo request.
type UndoResult struct {
	Event   model.ScoringEvent `json:"event"`
	Removed bool               `json:"removed"`
	View    bout.View          `json:"view"`
}

// RoundResult is the outcome of a round change.
type RoundResult struct {
	Step rounds.Step `json:"-"`
	View bout.View   `json:"view"`
}

// LoadResult is the outcome of an import or open.
type LoadResult struct {
	Name   string             `json:"name,omitempty"`
	Report bout.RestoreReport `json:"report"`
	View   bout.View          `json:"view"`
}

// SaveResult names a saved bout.
type SaveResult struct {
	Name string `json:"name"`
}

// View returns the console view.
func (s *Session) View(ctx context.Context) (bout.View, error) {
	var v bout.View
	err := s.do(ctx, "view", func(_ context.Context, st *bout.State) error {
		v = st.View()
		return nil
	})
	return v, err
}

// ScoreSheet returns the printable record.
func (s *Session) ScoreSheet(ctx context.Context) (bout.ScoreSheet, error) {
	var sheet bout.ScoreSheet
	err := s.do(ctx, "sheet", func(_ context.Context, st *bout.State) error {
		sheet = st.ScoreSheet()
		return nil
	})
	return sheet, err
}

// NewBout pauses the clock and clears everything.
func (s *Session) NewBout(ctx context.Context) (bout.View, error) {
	var v bout.View
	err := s.do(ctx, "new", func(ctx context.Context, st *bout.State) error {
		st.PauseClock()
		st.Reset()
		v = st.View()
		return nil
	})
	if err != nil {
		return v, err
	}
	s.deduper.Reset(ctx)
	s.metrics.RecordBoutStarted()
	s.logger.Info(ctx, "new bout started")
	return v, nil
}

// SetMetadata replaces the judge, bout id and fighter names.
func (s *Session) SetMetadata(ctx context.Context, m bout.Metadata) (bout.View, error) {
	var v bout.View
	err := s.do(ctx, "metadata", func(ctx context.Context, st *bout.State) error {
		st.SetMetadata(m)
		v = st.View()
		s.logger.Debug(ctx, "metadata updated",
			logger.String("judge", v.Judge),
			logger.String("bout", v.BoutID),
			logger.String("fighter_a", v.FighterA),
			logger.String("fighter_b", v.FighterB),
		)
		return nil
	})
	return v, err
}

// Score records kind for fighter in the current round. A non-empty key
// makes the request idempotent: a repeated key returns the current view
// with Duplicate set and records nothing.
func (s *Session) Score(ctx context.Context, fighter model.Competitor, kind model.Kind, key string) (ScoreResult, error) {
	if key != "" && s.deduper.SeenAndRecord(ctx, key) {
		s.metrics.RecordDuplicateRequest()
		s.logger.Debug(ctx, "duplicate scoring request", logger.String("key", key))
		v, err := s.View(ctx)
		return ScoreResult{Duplicate: true, View: v}, err
	}

	var res ScoreResult
	err := s.do(ctx, "score", func(ctx context.Context, st *bout.State) error {
		ev, err := st.Score(fighter, kind)
		if err != nil {
			return err
		}
		res.Event = ev
		res.View = st.View()
		s.metrics.RecordScoringEvent(string(ev.Competitor), string(ev.Kind))
		s.logger.Debug(ctx, "scored",
			logger.String("fighter", string(ev.Competitor)),
			logger.String("kind", string(ev.Kind)),
			logger.String("round", ev.Round.Short()),
			logger.Int("points", ev.Points),
		)
		return nil
	})
	if err != nil && key != "" {
		s.deduper.Unrecord(ctx, key)
	}
	return res, err
}

// Undo removes the most recent scoring event.
func (s *Session) Undo(ctx context.Context) (UndoResult, error) {
	var res UndoResult
	err := s.do(ctx, "undo", func(ctx context.Context, st *bout.State) error {
		res.Event, res.Removed = st.Undo()
		res.View = st.View()
		s.metrics.RecordUndo(!res.Removed)
		if res.Removed {
			s.logger.Debug(ctx, "undone",
				logger.String("fighter", string(res.Event.Competitor)),
				logger.String("kind", string(res.Event.Kind)),
				logger.String("round", res.Event.Round.Short()),
			)
		}
		return nil
	})
	return res, err
}

// NextRound advances through the regulation rounds.
func (s *Session) NextRound(ctx context.Context) (RoundResult, error) {
	return s.moveRound(ctx, "next_round", (*bout.State).Advance)
}

// PrevRound steps back through the regulation rounds.
func (s *Session) PrevRound(ctx context.Context) (RoundResult, error) {
	return s.moveRound(ctx, "prev_round", (*bout.State).Retreat)
}

func (s *Session) moveRound(ctx context.Context, name string, move func(*bout.State) rounds.Step) (RoundResult, error) {
	var res RoundResult
	err := s.do(ctx, name, func(ctx context.Context, st *bout.State) error {
		res.Step = move(st)
		res.View = st.View()
		if res.Step == rounds.Moved {
			s.metrics.RecordRoundTransition(st.CurrentRound().Short())
		}
		s.logger.Debug(ctx, "round change",
			logger.String("step", res.Step.String()),
			logger.String("round", st.CurrentRound().Short()),
		)
		return nil
	})
	return res, err
}

// EnterTiebreaker switches to the tiebreaker when the bout is level.
func (s *Session) EnterTiebreaker(ctx context.Context) (bout.View, error) {
	var v bout.View
	err := s.do(ctx, "tiebreaker", func(ctx context.Context, st *bout.State) error {
		err := st.EnterTiebreaker()
		s.metrics.RecordTiebreaker(err == nil)
		v = st.View()
		if err != nil {
			return err
		}
		s.metrics.RecordRoundTransition(model.Tiebreaker.Short())
		s.logger.Info(ctx, "tiebreaker entered", logger.Int("total", v.TotalA))
		return nil
	})
	return v, err
}

// StartClock starts the round countdown.
func (s *Session) StartClock(ctx context.Context) (bout.View, error) {
	return s.clockAction(ctx, "clock_start", func(st *bout.State) { st.StartClock() })
}

// PauseClock pauses the round countdown.
func (s *Session) PauseClock(ctx context.Context) (bout.View, error) {
	return s.clockAction(ctx, "clock_pause", (*bout.State).PauseClock)
}

// ResetClock stops the countdown at the full round length.
func (s *Session) ResetClock(ctx context.Context) (bout.View, error) {
	return s.clockAction(ctx, "clock_reset", (*bout.State).ResetClock)
}

func (s *Session) clockAction(ctx context.Context, name string, fn func(*bout.State)) (bout.View, error) {
	var v bout.View
	err := s.do(ctx, name, func(_ context.Context, st *bout.State) error {
		fn(st)
		v = st.View()
		return nil
	})
	return v, err
}

// Export returns the bout as its persisted JSON document.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.do(ctx, "export", func(_ context.Context, st *bout.State) error {
		var err error
		data, err = st.Marshal(s.now())
		return err
	})
	return data, err
}

// Import replaces the bout with a persisted JSON document.
func (s *Session) Import(ctx context.Context, data []byte) (LoadResult, error) {
	start := time.Now()
	res, err := s.restore(ctx, "import", data)
	s.metrics.RecordPersistence("import", msSince(start), err)
	return res, err
}

// Save writes the bout to the store under its conventional name.
func (s *Session) Save(ctx context.Context) (SaveResult, error) {
	start := time.Now()
	var (
		name string
		data []byte
	)
	err := s.do(ctx, "save", func(_ context.Context, st *bout.State) error {
		at := s.now()
		meta := st.Metadata()
		name = repository.FileName(at.In(s.location), meta.NameA(), meta.NameB())
		var err error
		data, err = st.Marshal(at)
		return err
	})
	if err == nil {
		err = s.store.Save(ctx, name, data)
	}
	s.metrics.RecordPersistence("save", msSince(start), err)
	if err != nil {
		s.logger.Error(ctx, "save failed", logger.String("name", name), logger.Error(err))
		return SaveResult{}, err
	}
	s.logger.Info(ctx, "bout saved", logger.String("name", name), logger.Int("bytes", len(data)))
	return SaveResult{Name: name}, nil
}

// ListSaved lists saved bouts, newest first.
func (s *Session) ListSaved(ctx context.Context) ([]repository.Entry, error) {
	return s.store.List(ctx)
}

// Open replaces the bout with a saved one.
func (s *Session) Open(ctx context.Context, name string) (LoadResult, error) {
	start := time.Now()
	data, err := s.store.Load(ctx, name)
	if err != nil {
		s.metrics.RecordPersistence("open", msSince(start), err)
		return LoadResult{}, err
	}
	res, err := s.restore(ctx, "open", data)
	s.metrics.RecordPersistence("open", msSince(start), err)
	res.Name = name
	return res, err
}

func (s *Session) restore(ctx context.Context, name string, data []byte) (LoadResult, error) {
	var res LoadResult
	err := s.do(ctx, name, func(ctx context.Context, st *bout.State) error {
		report, err := st.Restore(data)
		if err != nil {
			s.logger.Warn(ctx, "restore rejected", logger.Error(err))
			return err
		}
		res.Report = report
		res.View = st.View()
		s.metrics.RecordEventsDropped(report.Dropped)
		if report.Dropped > 0 {
			s.logger.Debug(ctx, "malformed event records skipped", logger.Int("dropped", report.Dropped))
		}
		s.logger.Info(ctx, "bout restored",
			logger.Int("events", report.Loaded),
			logger.Bool("tiebreaker_used", st.TiebreakerUsed()),
		)
		return nil
	})
	if err == nil {
		s.deduper.Reset(ctx)
	}
	return res, err
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
