package jwt

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT defines the minimal operations needed by the app: generate and verify a token.
type JWT interface {
	// Generate creates a signed token for the identity.
	Generate(identity Identity) (string, error)
	// Verify parses and validates the token and returns claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// TTL is the token time-to-live.
	TTL time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// Identity describes the subject a token is issued for.
type Identity struct {
	// Subject is the caller's identity id.
	Subject string
	// ServiceAccountClientID is the client a service-account identity is
	// linked to; empty for regular users.
	ServiceAccountClientID string
	// RealmRoles are the roles granted at the realm level.
	RealmRoles []string
}

// RealmAccess carries the realm-level role grants of a token.
type RealmAccess struct {
	// Roles are the realm role names.
	Roles []string `json:"roles"`
}

// Claims is a helper for wrapping registered claims with a payload.
type Claims struct {
	// RegisteredClaims holds the standard JWT claims.
	jwt.RegisteredClaims
	// ServiceAccountClientID links a service-account identity to its client.
	ServiceAccountClientID string `json:"service_account_client_id,omitempty"`
	// RealmAccess holds the realm role grants.
	RealmAccess RealmAccess `json:"realm_access"`
}

// IsServiceAccount reports whether the token belongs to a service-account
// identity (one linked to a client).
func (c *Claims) IsServiceAccount() bool {
	return c.ServiceAccountClientID != ""
}

// HasRealmRole reports whether the token grants the given realm role.
func (c *Claims) HasRealmRole(role string) bool {
	return slices.Contains(c.RealmAccess.Roles, role)
}

// GetAuth returns the JWT claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
