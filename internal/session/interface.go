package session

import (
	"context"

	"realtychat/internal/model"
)

// Store defines the interface for session state storage.
//
// Saves are last-write-wins: two turns of the same session that complete out
// of order may leave the older state in place. Callers never need to lock.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil if the session is not found or has expired (not an error).
	Get(ctx context.Context, id string) (*model.SessionState, error)

	// Save stores the state under state.ID, stamping UpdatedAt and
	// restarting the expiry window.
	Save(ctx context.Context, state *model.SessionState) error

	// Delete deletes a session by ID. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Close closes the store and releases any resources.
	Close() error
}
