// SPDX-License-Identifier: MIT

package objstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// signPayload is the canonical byte string a signature covers. The
// expiry is part of the payload so a link cannot be extended client-side.
func signPayload(bucket, key string, expires int64) []byte {
	return []byte(bucket + "\n" + key + "\n" + strconv.FormatInt(expires, 10))
}

// Sign computes the hex HMAC-SHA256 signature for bucket/key expiring at
// the given unix timestamp.
func Sign(secret []byte, bucket, key string, expires int64) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(signPayload(bucket, key, expires))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignedURLFor mints a presigned URL below base for bucket/key with the
// given validity window. pathPrefix is inserted between the base and the
// bucket/key pair; it is empty when the serving side exposes objects
// directly at {base}/{bucket}/{key} and "download" when the daemon's own
// download route serves them.
func SignedURLFor(base string, secret []byte, pathPrefix, bucket, key string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if err := validateRef(bucket, key); err != nil {
		return "", time.Time{}, err
	}
	expiresAt := now.Add(ttl)
	expires := expiresAt.Unix()

	u, err := url.Parse(base)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parse base URL: %w", err)
	}
	segments := []string{bucket, key}
	if pathPrefix != "" {
		segments = append([]string{pathPrefix}, segments...)
	}
	u.Path, err = url.JoinPath(u.Path, segments...)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("join URL path: %w", err)
	}
	q := u.Query()
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", Sign(secret, bucket, key, expires))
	u.RawQuery = q.Encode()
	return u.String(), expiresAt, nil
}

// VerifySignature checks a presigned request's expiry and signature.
// Comparison is constant-time.
func VerifySignature(secret []byte, bucket, key, expiresStr, sig string, now time.Time) error {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiry: %w", err)
	}
	if now.Unix() > expires {
		return fmt.Errorf("link expired")
	}
	want := Sign(secret, bucket, key, expires)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
