package bout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/okian/pillowbout/internal/domain/model"
)

// SavedAtLayout is the format of the saved_at field.
const SavedAtLayout = "2006-01-02 15:04:05"

const (
	microsPerSecond = 1e6
	// maxTimestamp bounds accepted epoch seconds; anything larger is junk.
	maxTimestamp = 1e11
)

// Payload is the persisted form of a bout. Field names are stable.
type Payload struct {
	Judge    string                `json:"judge"`
	Bout     string                `json:"bout"`
	FighterA string                `json:"fighter_a"`
	FighterB string                `json:"fighter_b"`
	ScoresA  [model.RoundCount]int `json:"scores_a"`
	ScoresB  [model.RoundCount]int `json:"scores_b"`
	HasTB    bool                  `json:"has_tb"`
	Events   []EventRecord         `json:"events"`
	SavedAt  string                `json:"saved_at"`
}

// EventRecord is the flat persisted form of a scoring event.
type EventRecord struct {
	TS         float64 `json:"ts"`
	Fighter    string  `json:"fighter"`
	RoundIndex int     `json:"round_index"`
	Label      string  `json:"label"`
	Points     int     `json:"points"`
}

// Snapshot captures the bout for persistence. Score arrays come from the
// loaded file when nothing changed since the load, otherwise they are
// recomputed from the events.
func (s *State) Snapshot(savedAt time.Time) Payload {
	var a, b [model.RoundCount]int
	if s.stored != nil {
		a, b = s.stored.a, s.stored.b
	} else {
		t := s.Tally()
		a, b = t.Rounds(model.CompetitorA), t.Rounds(model.CompetitorB)
	}

	events := s.log.Events()
	records := make([]EventRecord, len(events))
	for i, ev := range events {
		records[i] = EventRecord{
			TS:         float64(ev.Timestamp.UnixMicro()) / microsPerSecond,
			Fighter:    string(ev.Competitor),
			RoundIndex: ev.Round.Index(),
			Label:      string(ev.Kind),
			Points:     ev.Points,
		}
	}

	return Payload{
		Judge:    s.meta.Judge,
		Bout:     s.meta.BoutID,
		FighterA: s.meta.NameA(),
		FighterB: s.meta.NameB(),
		ScoresA:  a,
		ScoresB:  b,
		HasTB:    s.TiebreakerUsed(),
		Events:   records,
		SavedAt:  savedAt.In(s.location).Format(SavedAtLayout),
	}
}

// Marshal encodes a snapshot as indented JSON.
func (s *State) Marshal(savedAt time.Time) ([]byte, error) {
	data, err := json.MarshalIndent(s.Snapshot(savedAt), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode bout: %w", err)
	}
	return data, nil
}

// RestoreReport describes what a successful Restore did.
type RestoreReport struct {
	Loaded  int `json:"loaded"`
	Dropped int `json:"dropped"`
}

// Restore replaces the whole bout with a saved one. A payload that is not a
// JSON object, lacks the events array, or carries a wrongly typed header
// field fails with ErrMalformedPayload and leaves s unchanged. Individual
// event records that are missing or malformed in any field are skipped.
func (s *State) Restore(data []byte) (RestoreReport, error) {
	d, err := decode(data)
	if err != nil {
		return RestoreReport{}, err
	}

	s.meta = d.meta
	s.log.Replace(d.events)
	s.stored = d.stored
	s.invalidate()
	// Tie eligibility is derived on every read, so it reflects the loaded
	// scores and round as soon as the round is resumed.
	s.rounds.Resume(d.hasTB)

	return RestoreReport{Loaded: len(d.events), Dropped: d.dropped}, nil
}

type decoded struct {
	meta    Metadata
	stored  *storedScores
	hasTB   bool
	events  []model.ScoringEvent
	dropped int
}

func decode(data []byte) (*decoded, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedPayload)
	}

	d := &decoded{}
	var err error
	if d.meta.Judge, err = optionalString(top, "judge", ""); err != nil {
		return nil, err
	}
	if d.meta.BoutID, err = optionalString(top, "bout", ""); err != nil {
		return nil, err
	}
	if d.meta.FighterA, err = optionalString(top, "fighter_a", DefaultFighterA); err != nil {
		return nil, err
	}
	if d.meta.FighterB, err = optionalString(top, "fighter_b", DefaultFighterB); err != nil {
		return nil, err
	}
	if d.hasTB, err = optionalBool(top, "has_tb"); err != nil {
		return nil, err
	}

	a, okA, err := optionalScores(top, "scores_a")
	if err != nil {
		return nil, err
	}
	b, okB, err := optionalScores(top, "scores_b")
	if err != nil {
		return nil, err
	}
	if okA && okB {
		d.stored = &storedScores{a: a, b: b}
	}

	// Records written before the event log existed have no events key.
	raw, ok := top["events"]
	if !ok {
		d.events = []model.ScoringEvent{}
		return d, nil
	}
	if isNull(raw) {
		return nil, fmt.Errorf("%w: events is null", ErrMalformedPayload)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: events is not an array", ErrMalformedPayload)
	}
	d.events = make([]model.ScoringEvent, 0, len(records))
	for _, rec := range records {
		ev, ok := decodeEvent(rec)
		if !ok {
			d.dropped++
			continue
		}
		d.events = append(d.events, ev)
	}
	return d, nil
}

func decodeEvent(raw json.RawMessage) (model.ScoringEvent, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return model.ScoringEvent{}, false
	}

	ts, ok := number(fields["ts"])
	if !ok || math.Abs(ts) > maxTimestamp {
		return model.ScoringEvent{}, false
	}
	var fighter string
	if !str(fields["fighter"], &fighter) {
		return model.ScoringEvent{}, false
	}
	c, err := model.ParseCompetitor(fighter)
	if err != nil {
		return model.ScoringEvent{}, false
	}
	idx, ok := integer(fields["round_index"])
	if !ok || !model.Round(idx).Valid() {
		return model.ScoringEvent{}, false
	}
	var label string
	if !str(fields["label"], &label) || label == "" {
		return model.ScoringEvent{}, false
	}
	points, ok := integer(fields["points"])
	if !ok {
		return model.ScoringEvent{}, false
	}

	return model.ScoringEvent{
		Timestamp:  time.UnixMicro(int64(math.Round(ts * microsPerSecond))),
		Competitor: c,
		Round:      model.Round(idx),
		// Labels outside today's table are kept: their points were captured
		// when they were scored.
		Kind:   model.Kind(label),
		Points: points,
	}, true
}

func optionalString(top map[string]json.RawMessage, key, def string) (string, error) {
	raw, ok := top[key]
	if !ok || isNull(raw) {
		return def, nil
	}
	var v string
	if !str(raw, &v) {
		return "", fmt.Errorf("%w: %s must be a string", ErrMalformedPayload, key)
	}
	return v, nil
}

func optionalBool(top map[string]json.RawMessage, key string) (bool, error) {
	raw, ok := top[key]
	if !ok || isNull(raw) {
		return false, nil
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrMalformedPayload, key)
	}
	return v, nil
}

// optionalScores reads a round score array and pads or clamps it to exactly
// four entries. present is false when the key is absent.
func optionalScores(top map[string]json.RawMessage, key string) (scores [model.RoundCount]int, present bool, err error) {
	raw, ok := top[key]
	if !ok || isNull(raw) {
		return scores, false, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return scores, false, fmt.Errorf("%w: %s must be an array", ErrMalformedPayload, key)
	}
	for i, item := range items {
		v, ok := integer(item)
		if !ok {
			return scores, false, fmt.Errorf("%w: %s[%d] must be an integer", ErrMalformedPayload, key, i)
		}
		if i < model.RoundCount {
			scores[i] = v
		}
	}
	return scores, true, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func str(raw json.RawMessage, out *string) bool {
	if raw == nil || isNull(raw) {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func number(raw json.RawMessage) (float64, bool) {
	if raw == nil || isNull(raw) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func integer(raw json.RawMessage) (int, bool) {
	v, ok := number(raw)
	if !ok || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
