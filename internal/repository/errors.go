package repository

import "errors"

// ErrConcurrencyConflict is returned by Update when the supplied concurrency token
// no longer matches the stored one.
var ErrConcurrencyConflict = errors.New("concurrency token mismatch")
