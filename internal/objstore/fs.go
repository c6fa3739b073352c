// SPDX-License-Identifier: MIT

package objstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
)

// FSStore keeps objects on the local filesystem under root/bucket/key.
// Uploads are atomic and durable (fsync before rename) so a concurrent
// download never observes a partially written archive. Signed URLs point
// at the daemon's own /download route and are verified with the shared
// HMAC scheme.
type FSStore struct {
	root       string
	publicBase string
	secret     []byte
}

// NewFSStore creates the store rooted at root. publicBase is the externally
// reachable base URL minted links are built on.
func NewFSStore(root, publicBase string, secret []byte) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FSStore{root: root, publicBase: publicBase, secret: secret}, nil
}

// ObjectPath resolves bucket/key to its path under the store root.
func (s *FSStore) ObjectPath(bucket, key string) (string, error) {
	if err := validateRef(bucket, key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, bucket, key), nil
}

// Download reads the object's bytes, or returns ErrNotFound.
func (s *FSStore) Download(_ context.Context, bucket, key string) ([]byte, error) {
	path, err := s.ObjectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Upload writes the object atomically, overwriting any prior object of
// the same name.
func (s *FSStore) Upload(_ context.Context, bucket, key string, data []byte, _ string) error {
	path, err := s.ObjectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending object file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write object data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace object: %w", err)
	}
	return nil
}

// SignedURL mints a presigned URL served by the daemon's download route.
func (s *FSStore) SignedURL(bucket, key string, ttl time.Duration) (string, time.Time, error) {
	return SignedURLFor(s.publicBase, s.secret, "download", bucket, key, ttl, time.Now())
}
