// Package auth is the identity context: it turns a verified credential into
// a (userID, role) pair and nothing more. Token issuing/validation lives in
// TokenService, bcrypt hashing in PasswordService, and the HTTP glue in
// middleware.go. Everything downstream trusts the pair this package
// resolves.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/kalendar-app/kalendar/internal/policy"
)

const issuer = "kalendar"

// tokenTTL is the access-token lifetime. There is no refresh flow; after
// expiry the client logs in again.
const tokenTTL = 24 * time.Hour

// TokenService signs and verifies the HS256 JWTs the service issues.
// The same symmetric secret is used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production,
// e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload: the registered claims plus the account role.
//
// Subject carries the user id as a decimal string. Carrying the role in the
// token means no user-table lookup per request — the policy layer receives
// exactly the pair the token encodes. The flip side: a role change only
// takes effect when the user next logs in.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Generate creates and signs a token for the given identity. Each token gets
// a unique xid as its JTI so individual tokens are distinguishable in logs.
func (s *TokenService) Generate(identity policy.Identity) (string, error) {
	return s.GenerateWithDuration(identity, tokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry. Used by tests
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(identity policy.Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
			ID:        xid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity it
// encodes.
//
// The jwt library checks the signature, the expiry, and the issuer; pinning
// the valid methods to HS256 closes the algorithm-confusion hole where a
// token claiming alg=none would otherwise slip through.
func (s *TokenService) Validate(tokenStr string) (policy.Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return policy.Identity{}, fmt.Errorf("auth: token expired")
		}
		return policy.Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return policy.Identity{}, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return policy.Identity{}, fmt.Errorf("auth: token subject is not a user id")
	}
	if c.Role == "" {
		return policy.Identity{}, fmt.Errorf("auth: token has no role")
	}

	return policy.Identity{UserID: userID, Role: c.Role}, nil
}
