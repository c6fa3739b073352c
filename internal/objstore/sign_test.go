// SPDX-License-Identifier: MIT

package objstore

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

func TestSignedURLVerifies(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	link, expiresAt, err := SignedURLFor("http://dl.example.com", testSecret, "download", "archives", "A1.zip", 900*time.Second, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(900*time.Second), expiresAt)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/download/archives/A1.zip", u.Path)

	q := u.Query()
	require.NoError(t, VerifySignature(testSecret, "archives", "A1.zip", q.Get("expires"), q.Get("sig"), now))

	// still valid just before expiry
	require.NoError(t, VerifySignature(testSecret, "archives", "A1.zip", q.Get("expires"), q.Get("sig"), expiresAt.Add(-time.Second)))
}

func TestSignedURLWithoutPrefixTargetsObjectPath(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	link, _, err := SignedURLFor("http://store.example.com", testSecret, "", "archives", "A1.zip", 900*time.Second, now)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/archives/A1.zip", u.Path)

	q := u.Query()
	require.NoError(t, VerifySignature(testSecret, "archives", "A1.zip", q.Get("expires"), q.Get("sig"), now))
}

func TestSignedURLExpires(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	link, expiresAt, err := SignedURLFor("http://dl.example.com", testSecret, "download", "archives", "A1.zip", time.Minute, now)
	require.NoError(t, err)

	q, err := url.Parse(link)
	require.NoError(t, err)
	err = VerifySignature(testSecret, "archives", "A1.zip", q.Query().Get("expires"), q.Query().Get("sig"), expiresAt.Add(time.Second))
	assert.ErrorContains(t, err, "expired")
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	expires := now.Add(time.Minute).Unix()
	sig := Sign(testSecret, "archives", "A1.zip", expires)

	// different key
	err := VerifySignature(testSecret, "archives", "A2.zip", "1700000060", sig, now)
	assert.ErrorContains(t, err, "signature mismatch")

	// forged expiry
	err = VerifySignature(testSecret, "archives", "A1.zip", "1900000000", sig, now)
	assert.ErrorContains(t, err, "signature mismatch")

	// wrong secret
	err = VerifySignature([]byte("other"), "archives", "A1.zip", "1700000060", sig, now)
	assert.ErrorContains(t, err, "signature mismatch")

	// garbage expiry
	err = VerifySignature(testSecret, "archives", "A1.zip", "soon", sig, now)
	assert.ErrorContains(t, err, "invalid expiry")
}

func TestSignedURLForRejectsBadRefs(t *testing.T) {
	now := time.Now()
	_, _, err := SignedURLFor("http://x", testSecret, "download", "archives", "../etc/passwd", time.Minute, now)
	assert.Error(t, err)
	_, _, err = SignedURLFor("http://x", testSecret, "download", "", "a.zip", time.Minute, now)
	assert.Error(t, err)
}
