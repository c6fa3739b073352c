// SPDX-License-Identifier: MIT

// Package lock provides the optional per-album advisory lock. The
// default no-op locker preserves the documented last-write-wins race
// between concurrent runs for the same album; the Redis locker turns
// duplicates into an explicit busy signal.
package lock

import "context"

// Locker serializes archive generation per album on a best-effort basis.
type Locker interface {
	// Acquire attempts to take the album's lease. When ok is true the
	// caller must invoke release when the run ends. ok=false means
	// another run holds the lease.
	Acquire(ctx context.Context, albumID string) (release func(), ok bool, err error)
}

// Noop always grants the lease. Concurrent runs for the same album race
// and the last writer wins.
type Noop struct{}

// Acquire implements Locker.
func (Noop) Acquire(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}
