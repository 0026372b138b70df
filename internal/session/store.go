// Package session keeps track of who is logged in.
//
// A session is an opaque id mapped to a member id in a Store. Clients hold a
// signed token naming the session, so revoking the stored entry ends the
// session even though the token itself is still well formed.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by a Store for unknown or expired ids.
var ErrSessionNotFound = errors.New("session not found")

// Store maps session ids to member ids.
type Store interface {
	Save(ctx context.Context, sid, memberID string, ttl time.Duration) error
	Lookup(ctx context.Context, sid string) (string, error)
	Delete(ctx context.Context, sid string) error
}
