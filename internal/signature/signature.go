// Package signature authenticates inbound deletion notifications with an
// HMAC-SHA256 over "{timestamp}.{message}" keyed by the shared webhook secret.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

var (
	// ErrAuthenticationFailed means a secret and a signature were both present
	// but the signature does not match.
	ErrAuthenticationFailed = errors.New("signature: invalid signature")
	// ErrAuthenticationMisconfigured means exactly one of the configured secret
	// and the supplied signature is present.
	ErrAuthenticationMisconfigured = errors.New("signature: authentication misconfigured")
)

// Material is the authentication metadata carried by a notification.
// Empty fields mean the value was absent.
type Material struct {
	Timestamp string
	Signature string
}

// Supplied reports whether the sender signed the notification. Only the
// signature counts; a timestamp on its own is ignored.
func (m Material) Supplied() bool {
	return m.Signature != ""
}

// Sign returns the base64-encoded HMAC-SHA256 of "{timestamp}.{message}".
func Sign(secret, timestamp, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "." + message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify decides whether a notification may be processed.
//
//	no secret, unsigned     -> nil (authentication disabled)
//	secret, signed          -> nil iff the signature matches, else ErrAuthenticationFailed
//	exactly one of the two  -> ErrAuthenticationMisconfigured
//
// A signature without a timestamp cannot match and fails authentication.
func Verify(secret string, m Material, message string) error {
	hasSecret := secret != ""
	signed := m.Supplied()

	switch {
	case !hasSecret && !signed:
		return nil
	case hasSecret && signed:
		if m.Timestamp == "" {
			return ErrAuthenticationFailed
		}
		expected := Sign(secret, m.Timestamp, message)
		if !hmac.Equal([]byte(expected), []byte(m.Signature)) {
			return ErrAuthenticationFailed
		}
		return nil
	default:
		return ErrAuthenticationMisconfigured
	}
}
