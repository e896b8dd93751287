package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the ID token claims issued by the provider. Subject carries the uid.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTTokens verifies provider ID tokens. Issue exists for development tooling and tests.
type JWTTokens struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

func NewJWTTokens(secret, issuer, audience string, ttl time.Duration) *JWTTokens {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTTokens{
		Secret:   []byte(secret),
		Issuer:   issuer,
		Audience: audience,
		TTL:      ttl,
	}
}

// Issue creates a signed ID token for uid.
func (j *JWTTokens) Issue(uid, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   uid,
			Audience:  jwt.ClaimStrings{j.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Verify validates an ID token and returns the identity it asserts.
func (j *JWTTokens) Verify(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	if j.Audience != "" {
		opts = append(opts, jwt.WithAudience(j.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return &Identity{UID: claims.Subject, Email: claims.Email}, nil
}
