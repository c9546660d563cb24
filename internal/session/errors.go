package session

import "errors"

// Common errors for session store operations.
var (
	ErrInvalidConfig    = errors.New("invalid session store configuration")
	ErrInvalidStoreType = errors.New("invalid session store type")
	ErrInvalidID        = errors.New("session id is required")
	ErrClosed           = errors.New("session store is closed")
)
