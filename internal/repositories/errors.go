package repositories

import "github.com/sonakanda/backend/internal/store"

// ErrNotFound is returned when an operation targets an id that does not
// exist in the backing store. All repository implementations normalize
// their driver-specific miss errors to this sentinel.
var ErrNotFound = store.ErrNotFound
