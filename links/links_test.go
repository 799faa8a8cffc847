package links

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestSigner_RoundTrip(t *testing.T) {
	s := NewSigner("secret", "https://cards.test/", time.Hour)

	link, err := s.URL("cards/card_01.pdf")
	if err != nil {
		t.Fatalf("URL() failed: %v", err)
	}
	if !strings.HasPrefix(link, "https://cards.test/api/cards/cards/card_01.pdf?token=") {
		t.Fatalf("Unexpected link: %s", link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("url.Parse() failed: %v", err)
	}
	if err := s.Verify(u.Query().Get("token"), "cards/card_01.pdf"); err != nil {
		t.Errorf("Verify() failed: %v", err)
	}
}

func TestSigner_WrongKey(t *testing.T) {
	s := NewSigner("secret", "", time.Hour)
	token, err := s.Sign("cards/a.pdf")
	if err != nil {
		t.Fatalf("Sign() failed: %v", err)
	}
	if err := s.Verify(token, "cards/b.pdf"); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("Expected ErrInvalidLink, got %v", err)
	}
}

func TestSigner_WrongSecret(t *testing.T) {
	token, err := NewSigner("one", "", time.Hour).Sign("k")
	if err != nil {
		t.Fatalf("Sign() failed: %v", err)
	}
	if err := NewSigner("two", "", time.Hour).Verify(token, "k"); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("Expected ErrInvalidLink, got %v", err)
	}
}

func TestSigner_Expired(t *testing.T) {
	s := NewSigner("secret", "", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issued }
	token, err := s.Sign("k")
	if err != nil {
		t.Fatalf("Sign() failed: %v", err)
	}

	s.now = time.Now
	if err := s.Verify(token, "k"); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("Expected ErrInvalidLink for expired token, got %v", err)
	}
}

func TestSigner_Garbage(t *testing.T) {
	s := NewSigner("secret", "", 0)
	if s.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", s.ttl, DefaultTTL)
	}
	if err := s.Verify("not-a-token", "k"); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("Expected ErrInvalidLink, got %v", err)
	}
}
