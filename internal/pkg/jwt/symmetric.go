package jwt

import (
	"errors"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Symmetric implements JWT using the HS512 signing algorithm.
type Symmetric struct {
	cfg Config
}

// NewHS512 builds a Symmetric signer/verifier. The secret must be at
// least 64 bytes to match the HS512 block size.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{cfg: cfg}, nil
}

func (s *Symmetric) Generate(identity Identity) (string, error) {
	now := s.cfg.Clock.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   identity.Subject,
			Audience:  s.cfg.Audiences,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        s.cfg.UUID.Generate(),
		},
		ServiceAccountClientID: identity.ServiceAccountClientID,
		RealmAccess:            RealmAccess{Roles: identity.RealmRoles},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.cfg.Secret)
}

func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}

		return s.cfg.Secret, nil
	},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.cfg.Clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}

		return Claims{}, ErrInvalidToken
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	// golang-jwt's WithAudience requires a single value; the accepted set
	// here may hold several, so any overlap passes.
	if len(s.cfg.Audiences) > 0 && !hasAnyAudience(claims.Audience, s.cfg.Audiences) {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func hasAnyAudience(granted jwt.ClaimStrings, accepted []string) bool {
	for _, aud := range accepted {
		if slices.Contains(granted, aud) {
			return true
		}
	}

	return false
}
