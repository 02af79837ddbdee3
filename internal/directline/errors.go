package directline

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// staleTokenSignature is the upstream error text observed when a
// conversation token no longer matches its conversation. Direct Line
// does not expose a machine-readable code for this, so the body is
// string-matched as a documented fallback.
const staleTokenSignature = "Token not valid for this conversation"

// AuthError reports a failed token acquisition. Status and Body carry
// the upstream response when one was received.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("directline: token acquisition failed: %v", e.Err)
	}
	return fmt.Sprintf("directline: token acquisition failed: status %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError reports a failed Direct Line operation. Status and
// Body carry the upstream response when one was received.
type TransportError struct {
	Op     string // "start", "post", "fetch", "stream"
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("directline: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("directline: %s failed: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsStaleToken reports whether err indicates the conversation token is
// no longer valid for its conversation, the one condition that warrants
// renewing the session. A 403 is treated the same way: the token was
// accepted at start time, so a later rejection means it went stale.
func IsStaleToken(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return strings.Contains(te.Body, staleTokenSignature) || te.Status == http.StatusForbidden
}
