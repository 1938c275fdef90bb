package model

import "fmt"

// Kind identifies a scoring action. The string value is the persisted label.
type Kind string

// Known scoring kinds.
const (
	KindHead             Kind = "Head"
	KindFullRotationHead Kind = "360 Head"
	KindKnockdown        Kind = "Knockdown"
	KindLegUnbalanced    Kind = "Leg Unbalanced"
	KindPillowBreak      Kind = "Pillow Break"
)

// Kinds lists the known kinds in display order.
var Kinds = []Kind{ //nolint:gochecknoglobals // fixed table
	KindHead,
	KindFullRotationHead,
	KindKnockdown,
	KindLegUnbalanced,
	KindPillowBreak,
}

// PointTable maps a scoring kind to its point value.
type PointTable map[Kind]int

// DefaultPointTable returns a fresh copy of the standard table.
func DefaultPointTable() PointTable {
	return PointTable{
		KindHead:             1,
		KindFullRotationHead: 3,
		KindKnockdown:        5,
		KindLegUnbalanced:    1,
		KindPillowBreak:      3,
	}
}

// Points returns the value for k.
func (t PointTable) Points(k Kind) (int, bool) {
	p, ok := t[k]
	return p, ok
}

// Clone returns an independent copy.
func (t PointTable) Clone() PointTable {
	out := make(PointTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Validate checks that every entry names a known kind with a positive value.
func (t PointTable) Validate() error {
	for k, v := range t {
		if !k.Known() {
			return fmt.Errorf("unknown scoring kind %q", string(k))
		}
		if v <= 0 {
			return fmt.Errorf("scoring kind %q must be worth at least 1 point, got %d", string(k), v)
		}
	}
	return nil
}

// Known reports whether k is one of the standard kinds.
func (k Kind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind matches a label against the known kinds.
func ParseKind(label string) (Kind, error) {
	k := Kind(label)
	if !k.Known() {
		return "", fmt.Errorf("unknown scoring kind %q", label)
	}
	return k, nil
}

// Shortcut is the keyboard letter a judging console binds to a kind for one
// competitor. Binding keys is left to the UI; this is reference data only.
type Shortcut struct {
	Competitor Competitor
	Kind       Kind
	Key        string
}

// Shortcuts returns the standard console key layout.
func Shortcuts() []Shortcut {
	keysA := []string{"Q", "W", "E", "R", "T"}
	keysB := []string{"Y", "U", "I", "O", "P"}
	out := make([]Shortcut, 0, len(Kinds)*2)
	for i, k := range Kinds {
		out = append(out, Shortcut{Competitor: CompetitorA, Kind: k, Key: keysA[i]})
	}
	for i, k := range Kinds {
		out = append(out, Shortcut{Competitor: CompetitorB, Kind: k, Key: keysB[i]})
	}
	return out
}
