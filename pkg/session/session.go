// Package session stores per-viewer interaction state for the HTTP server.
//
// Each connected viewer gets a session holding their expansion state, sort
// mode, and manual sibling orders. Sessions expire after inactivity; an
// expired or unknown session simply starts over from the default view.
//
// Two backends are provided: an in-memory store for single-instance servers
// and tests, and a file store that survives restarts.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/decomptree/pkg/view"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is the session duration, refreshed on every event.
const DefaultTTL = 24 * time.Hour

// Session is one viewer's interaction state.
type Session struct {
	ID string `json:"id"`

	// TreeHash identifies the aggregation the state was built against. A
	// changed table or configuration invalidates the paths in State, so
	// the server resets the state when the hashes diverge.
	TreeHash string `json:"tree_hash"`

	State view.State `json:"state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch refreshes the expiry and update timestamps.
func (s *Session) Touch(ttl time.Duration) {
	now := time.Now()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID. Missing or expired sessions return
	// (nil, nil).
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	Close() error
}

// New creates a session for the given tree and initial state.
func New(state view.State, treeHash string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		TreeHash:  treeHash,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
