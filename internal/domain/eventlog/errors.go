package eventlog

import "errors"

// Sentinel kinds for event log errors.
var (
	ErrUnknownKind       = errors.New("unknown scoring kind")
	ErrInvalidCompetitor = errors.New("invalid competitor")
	ErrInvalidRound      = errors.New("invalid round")
)
