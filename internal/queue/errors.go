package queue

import "errors"

// ErrNotFound indicates the requested job does not exist.
var ErrNotFound = errors.New("job not found")

// ErrSchemaMismatch indicates the database was written by a newer schema
// than this binary knows about.
var ErrSchemaMismatch = errors.New("schema version mismatch")
