package service

import "errors"

// Sentinel kinds for session errors.
var (
	// ErrBusy means the action queue is full; the caller may retry.
	ErrBusy = errors.New("session busy")
	// ErrStopped means the session is not running.
	ErrStopped = errors.New("session stopped")
)
