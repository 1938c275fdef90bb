// Package eventlog holds the append-only list of scoring events.
//
// The only removal the log supports is UndoLast, which pops the most recently
// appended event. Events are ordered by insertion; timestamps are
// informational and never used for ordering.
package eventlog

import (
	"fmt"
	"time"

	"github.com/okian/pillowbout/internal/domain/model"
)

// Log is an ordered, append-only sequence of scoring events.
type Log struct {
	table  model.PointTable
	now    func() time.Time
	events []model.ScoringEvent
}

// Option applies a configuration option to the Log.
type Option func(*Log)

// WithPointTable replaces the default kind to points table.
func WithPointTable(table model.PointTable) Option {
	return func(l *Log) {
		if len(table) > 0 {
			l.table = table.Clone()
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{
		table: model.DefaultPointTable(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records a new event for competitor c in round r. Points are looked
// up from the table now and stored on the event, so later table changes never
// rewrite history.
func (l *Log) Append(c model.Competitor, r model.Round, k model.Kind) (model.ScoringEvent, error) {
	if !c.Valid() {
		return model.ScoringEvent{}, fmt.Errorf("%w: %q", ErrInvalidCompetitor, string(c))
	}
	if !r.Valid() {
		return model.ScoringEvent{}, fmt.Errorf("%w: %d", ErrInvalidRound, int(r))
	}
	points, ok := l.table.Points(k)
	if !ok {
		return model.ScoringEvent{}, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
	ev := model.ScoringEvent{
		// Microsecond precision survives the float seconds wire format.
		Timestamp:  l.now().Truncate(time.Microsecond),
		Competitor: c,
		Round:      r,
		Kind:       k,
		Points:     points,
	}
	l.events = append(l.events, ev)
	return ev, nil
}

// UndoLast removes and returns the most recent event. ok is false when the
// log is empty, in which case nothing happens.
func (l *Log) UndoLast() (ev model.ScoringEvent, ok bool) {
	n := len(l.events)
	if n == 0 {
		return model.ScoringEvent{}, false
	}
	ev = l.events[n-1]
	l.events[n-1] = model.ScoringEvent{}
	l.events = l.events[:n-1]
	return ev, true
}

// Len returns the number of recorded events.
func (l *Log) Len() int { return len(l.events) }

// Events returns a copy of the events in insertion order.
func (l *Log) Events() []model.ScoringEvent {
	out := make([]model.ScoringEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Last returns the most recent event without removing it.
func (l *Log) Last() (model.ScoringEvent, bool) {
	if len(l.events) == 0 {
		return model.ScoringEvent{}, false
	}
	return l.events[len(l.events)-1], true
}

// Table returns a copy of the point table in use.
func (l *Log) Table() model.PointTable { return l.table.Clone() }

// Replace swaps the whole history, used when a saved bout is restored.
// Events are taken as-is, including their captured points.
func (l *Log) Replace(events []model.ScoringEvent) {
	l.events = make([]model.ScoringEvent, len(events))
	copy(l.events, events)
}

// Clear empties the log.
func (l *Log) Clear() { l.events = nil }
