// Package ticket implements the signed-token protocol used for gate check-in.
// A token binds a participant's (name, email) identity to the shared signing
// secret; the participant's attended flag, not the token, enforces the
// at-most-once property, so re-scanning a token is always safe.
package ticket

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Codec signs and verifies participant identities with a process-wide secret.
// The secret is injected at construction; there is no global state.
//
// The codec performs no trimming or casing normalization: callers must
// normalize name and email consistently before signing and before verifying,
// or verification will spuriously fail.
type Codec struct {
	secret []byte
}

// NewCodec creates a codec for the given shared secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Sign derives the hex-encoded HMAC-SHA256 signature over "name|email".
// Deterministic: same secret and inputs always produce the same signature.
func (c *Codec) Sign(name, email string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(name))
	mac.Write([]byte{'|'})
	mac.Write([]byte(email))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares it in constant time.
// It never returns an error; an invalid signature is simply false.
// Distinguishing "valid but unregistered" from "invalid signature" is the
// caller's job (see the attendance service).
func (c *Codec) Verify(name, email, sig string) bool {
	expected := c.Sign(name, email)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}
