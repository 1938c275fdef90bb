package bout

import (
	"errors"

	"github.com/okian/pillowbout/internal/domain/rounds"
)

// Sentinel kinds for bout errors.
var (
	// ErrMalformedPayload marks a saved bout that cannot be loaded at all.
	// The active state is left untouched when it is returned.
	ErrMalformedPayload = errors.New("malformed bout payload")

	// ErrTiebreakerNotAllowed is returned when the tie rule does not hold.
	ErrTiebreakerNotAllowed = rounds.ErrTiebreakerNotAllowed
)
