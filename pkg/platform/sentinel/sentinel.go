package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborator clients
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
//   - ErrNotFound: record or upstream resource does not exist
//   - ErrAlreadyUsed: a unique key (email, booker/prisoner pair) is taken
//   - ErrInvalidState: a conditioned write found the record in another state
//   - ErrUnavailable: an upstream or store could not be reached in time
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
