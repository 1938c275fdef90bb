package rounds

import "errors"

// Sentinel kinds for round transitions.
var (
	ErrTiebreakerNotAllowed = errors.New("tiebreaker not allowed")
)
