// Package links signs and verifies download links for documents served by this service.
package links

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTTL = 30 * 24 * time.Hour
	// DownloadPath is where the download handler is mounted.
	DownloadPath = "/api/cards/"
)

var ErrInvalidLink = errors.New("invalid or expired download link")

type Claims struct {
	jwt.RegisteredClaims
}

// Signer issues tokens whose subject is the document key.
type Signer struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewSigner(secret, baseURL string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Signer) Sign(key string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// URL returns the public download link for key.
func (s *Signer) URL(key string) (string, error) {
	token, err := s.Sign(key)
	if err != nil {
		return "", fmt.Errorf("sign link for %s: %w", key, err)
	}
	return s.baseURL + DownloadPath + key + "?token=" + url.QueryEscape(token), nil
}

// Verify checks that token is valid and was issued for key.
func (s *Signer) Verify(token, key string) error {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject != key {
		return ErrInvalidLink
	}
	return nil
}
