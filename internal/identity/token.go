package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 access tokens.
type TokenCodec struct {
	secret []byte
	issuer string
}

// NewTokenCodec creates a new TokenCodec.
func NewTokenCodec(secret, issuer string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for id that expires after ttl.
func (c *TokenCodec) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: id.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Parse verifies tokenString and resolves the identity it carries.
func (c *TokenCodec) Parse(tokenString string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return New(claims.Role, claims.Subject)
}
