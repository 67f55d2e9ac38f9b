package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"foodscan/internal/domain"
)

// Claims is the subset of the access-token payload the service reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 access tokens with the project's JWT secret,
// avoiding a network round trip per request.
type JWTResolver struct {
	secret   []byte
	audience string
	now      func() time.Time
}

func NewJWTResolver(secret, audience string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), audience: audience, now: time.Now}
}

func (r *JWTResolver) Resolve(ctx context.Context, credential string) (*domain.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrInvalidCredential
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	}
	if r.audience != "" {
		opts = append(opts, jwt.WithAudience(r.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidCredential)
	}
	return &domain.Identity{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// Sign issues a token for the given claims. Used by tooling and tests.
func Sign(secret string, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

var _ domain.IdentityResolver = (*JWTResolver)(nil)
