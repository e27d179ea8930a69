// ABOUTME: Common storage errors
// ABOUTME: Enables consistent error handling across storage implementations

package storage

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrExists is returned when inserting a row whose id is already stored.
var ErrExists = errors.New("already exists")

// ErrAmbiguousID is returned when an id prefix matches more than one row.
var ErrAmbiguousID = errors.New("ambiguous id prefix")

// ErrSchema is returned when a row or shift references columns the table does not store.
var ErrSchema = errors.New("schema mismatch")
