package services

import (
	"errors"
	"time"
)

// Service-level error taxonomy. Store-level errors (db.ErrNotFound,
// db.ErrConflict, db.ErrUnavailable) pass through wrapped; these cover the
// failures only the ledger can detect.
var (
	// ErrInsufficientBalance means a debit would exceed the volunteer's
	// accrued hours.
	ErrInsufficientBalance = errors.New("insufficient hours balance")
	// ErrValidation means a malformed amount or argument was rejected
	// before any write.
	ErrValidation = errors.New("invalid input")
)

// timeNow is swapped out by tests that need a fixed clock.
var timeNow = time.Now
