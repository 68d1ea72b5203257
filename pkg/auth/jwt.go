// Package auth issues and verifies storefront session tokens and hashes
// passwords.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eadens/cakeworld/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Roles.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// CookieName is the httpOnly cookie carrying the session token.
const CookieName = "token"

// Claims is the session token payload. Subject mirrors UserID.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller as seen by services.
type Principal struct {
	UserID uint
	Role   string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Anonymous reports whether no user is attached.
func (p Principal) Anonymous() bool { return p.UserID == 0 }

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && !p.Anonymous()
}

// issuer is stamped on and required of every session token.
const issuer = "cakeworld"

func signingKey() []byte { return []byte(config.JWTSecret()) }

// GenerateToken signs a session token for userID, valid for JWT_TTL.
func GenerateToken(userID uint, role string) (string, error) {
	if role != RoleCustomer && role != RoleAdmin {
		return "", fmt.Errorf("auth: unknown role %q", role)
	}
	issued := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(config.JWTTTL())),
		},
	}).SignedString(signingKey())
}

// ValidateToken verifies signature, expiry and issuer, and rejects tokens
// without a user or with a role the storefront does not know.
func ValidateToken(raw string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return signingKey(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	if c.UserID == 0 || (c.Role != RoleCustomer && c.Role != RoleAdmin) {
		return nil, fmt.Errorf("auth: %w", jwt.ErrTokenInvalidClaims)
	}
	return &c, nil
}

// Principal is the caller the token speaks for.
func (c *Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Role: c.Role}
}

// HashPassword bcrypts a password for the users table.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
