// SPDX-License-Identifier: MIT

package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPStore talks to an HTTP object store exposing GET/PUT on
// {base}/{bucket}/{key}. Signed URLs are minted client-side against the
// same base, so the upstream only has to verify them.
type HTTPStore struct {
	base   string
	token  string
	secret []byte
	http   *http.Client
}

// HTTPOptions configures an HTTPStore.
type HTTPOptions struct {
	Token   string        // optional bearer token for upload/download
	Secret  []byte        // HMAC secret for presigned URLs
	Timeout time.Duration // per-call timeout (default 30s)
}

// NewHTTPStore creates a store client for the given base URL.
func NewHTTPStore(base string, opts HTTPOptions) *HTTPStore {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPStore{
		base:   strings.TrimRight(base, "/"),
		token:  opts.Token,
		secret: opts.Secret,
		http:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPStore) objectURL(bucket, key string) string {
	return s.base + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
}

func (s *HTTPStore) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}

// Download fetches bucket/key. A 404 from the upstream maps to ErrNotFound.
func (s *HTTPStore) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := validateRef(bucket, key); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(bucket, key), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	s.authorize(req)

	res, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, ErrNotFound)
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("download %s/%s: unexpected status %d", bucket, key, res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s body: %w", bucket, key, err)
	}
	return data, nil
}

// Upload stores data under bucket/key with overwrite semantics.
func (s *HTTPStore) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if err := validateRef(bucket, key); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(bucket, key), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	s.authorize(req)

	res, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusNoContent {
		return fmt.Errorf("upload %s/%s: unexpected status %d", bucket, key, res.StatusCode)
	}
	return nil
}

// SignedURL mints a presigned URL pointing at the object's own location
// on the store, {base}/{bucket}/{key}, so the link resolves against the
// same upstream that served the upload.
func (s *HTTPStore) SignedURL(bucket, key string, ttl time.Duration) (string, time.Time, error) {
	return SignedURLFor(s.base, s.secret, "", bucket, key, ttl, time.Now())
}
