// SPDX-License-Identifier: MIT

// Package objstore abstracts the external content store holding source
// audio and published archives, addressed by bucket and key.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound reports that the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Store is the narrow contract the pipeline consumes. Download and
// Upload are single-attempt and synchronous; there is no retry or
// caching at this layer.
type Store interface {
	// Download returns the object's bytes, or ErrNotFound.
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	// Upload stores data under bucket/key, overwriting any prior object.
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	// SignedURL mints a time-limited access URL for bucket/key.
	SignedURL(bucket, key string, ttl time.Duration) (string, time.Time, error)
}

// validateRef rejects bucket/key pairs that could escape the store
// namespace. Keys are flat object names, not paths.
func validateRef(bucket, key string) error {
	for _, part := range [2]string{bucket, key} {
		if part == "" {
			return fmt.Errorf("empty bucket or key")
		}
		if strings.Contains(part, "/") || strings.Contains(part, "\\") || strings.Contains(part, "..") {
			return fmt.Errorf("invalid object reference %q", part)
		}
	}
	return nil
}
