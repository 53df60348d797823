// Package signature signs and verifies GitHub webhook payloads.
//
// GitHub sends an HMAC-SHA256 digest of the raw request body in the
// X-Hub-Signature-256 header, formatted as "sha256=<hex>". The digest covers
// the bytes on the wire, so callers must verify before decoding the body.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/cchalm/issue-relay/internal/apperr"
)

const (
	// HeaderName is the request header carrying the signature.
	HeaderName = "X-Hub-Signature-256"
	// Prefix precedes the hex digest in the header value.
	Prefix = "sha256="
)

// Sign returns the header value GitHub would send for body signed with secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return Prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header is the signature of body under secret.
//
// An empty header or secret fails closed. The comparison is an exact,
// constant-time match against Sign(body, secret): a header of a different
// length is rejected without inspecting its content, so the time taken never
// depends on where the two values first differ. Upper-case hex and headers
// without the "sha256=" prefix are rejected.
func Verify(body []byte, header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}

	expected := Sign(body, secret)
	return subtle.ConstantTimeCompare([]byte(header), []byte(expected)) == 1
}

// Check is Verify returning an apperr.ErrAuthentication on failure. The error
// says whether the header was absent or wrong, never what was expected.
func Check(body []byte, header, secret string) error {
	if header == "" {
		return fmt.Errorf("%w: missing %s header", apperr.ErrAuthentication, HeaderName)
	}
	if !Verify(body, header, secret) {
		return fmt.Errorf("%w: signature mismatch", apperr.ErrAuthentication)
	}
	return nil
}
