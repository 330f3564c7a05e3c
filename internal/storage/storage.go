// Package storage provides the persistence backends for stock, sales history
// and members: a Postgres implementation used when a database is configured,
// and an in-memory implementation otherwise. The in-memory stores are
// explicit objects created at process start and cleared only on restart.
package storage

import "errors"

var (
	// ErrNotFound signals the requested record does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicateKey signals a record with the same key already exists.
	ErrDuplicateKey = errors.New("storage: duplicate key")
)
