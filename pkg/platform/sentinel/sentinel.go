package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in store
//   - ErrAlreadyUsed: a uniqueness key (application ID, transaction ID) is taken
//   - ErrVersionConflict: the row changed since it was read
//   - ErrLockHeld: another writer holds the aggregate lock
//   - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyUsed     = errors.New("already used")
	ErrVersionConflict = errors.New("version conflict")
	ErrLockHeld        = errors.New("lock held")
	ErrUnavailable     = errors.New("unavailable")
)
