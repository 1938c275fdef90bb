package api

import (
	"errors"
	"net/http"

	"github.com/okian/pillowbout/internal/adapters/repository"
	service "github.com/okian/pillowbout/internal/app"
	"github.com/okian/pillowbout/internal/domain/bout"
	"github.com/okian/pillowbout/internal/domain/eventlog"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// kindError tags an error with the operation that failed and a sentinel
// kind that errors.Is can match.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return e.op + ": " + e.kind.Error()
	}
	return e.op + ": " + e.kind.Error() + ": " + e.err.Error()
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// NewKind returns an error of the given kind raised by op.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}

// WrapKind tags err with op and kind. It returns nil when err is nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{op: op, kind: kind, err: err}
}

// classify maps an error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, eventlog.ErrUnknownKind),
		errors.Is(err, eventlog.ErrInvalidCompetitor),
		errors.Is(err, repository.ErrInvalidName):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBusy):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrStopped):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, bout.ErrTiebreakerNotAllowed):
		return http.StatusConflict, "tiebreaker_not_allowed"
	case errors.Is(err, bout.ErrMalformedPayload):
		return http.StatusUnprocessableEntity, "malformed_payload"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
