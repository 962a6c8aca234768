package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// TokenService issues and verifies the bearer tokens carried by admin API
// requests. Tokens are HS256-signed and expire after the configured duration.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// Claims are the verified contents of an admin token.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

const defaultExpiry = 12 * time.Hour

// NewTokenService constructs a token service from the shared signing secret.
func NewTokenService(secret string, expiry time.Duration) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, eris.New("auth secret is required")
	}
	if expiry <= 0 {
		expiry = defaultExpiry
	}

	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token for the given subject.
func (s *TokenService) Issue(subject string) (string, error) {
	trimmed := strings.TrimSpace(subject)
	if trimmed == "" {
		return "", eris.New("token subject is required")
	}

	now := s.now()
	claims := Claims{
		Subject: trimmed,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", eris.Wrap(err, "signing token")
	}

	return signed, nil
}

// Verify parses and validates a signed token, returning its claims.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, eris.New("token is required")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, eris.Wrap(err, "parsing token")
	}
	if !token.Valid {
		return nil, eris.New("token is invalid")
	}

	return claims, nil
}

// FromHeader extracts the bearer credential from an Authorization header
// value. The second return value is false when the header is absent or not a
// bearer scheme.
func FromHeader(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	credential := strings.TrimSpace(parts[1])
	if credential == "" {
		return "", false
	}
	return credential, true
}
