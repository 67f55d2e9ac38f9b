// Package identity resolves bearer credentials into caller identities, either
// by asking the hosted auth service or by verifying a locally signed JWT.
package identity

import (
	"errors"
	"strings"
)

// ErrInvalidCredential is returned for missing, malformed, expired or rejected tokens.
var ErrInvalidCredential = errors.New("invalid credential")

// BearerToken extracts the token from an Authorization header value. A bare
// token without the scheme is accepted as-is.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	if len(parts) == 2 {
		return ""
	}
	return header
}
