package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cardaverse-ai/cardaverse-customcard/links"
	"github.com/go-chi/chi/v5"
)

func newDownloadRouter(signer *links.Signer) *chi.Mux {
	r := chi.NewRouter()
	r.With(DownloadToken(signer)).Get("/api/cards/{folder}/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(DocumentKey(r)))
	})
	return r
}

func TestDownloadToken_QueryParameter(t *testing.T) {
	signer := links.NewSigner("secret", "", time.Hour)
	token, err := signer.Sign("cards/card_1.pdf")
	if err != nil {
		t.Fatalf("Sign() failed: %v", err)
	}

	rr := httptest.NewRecorder()
	newDownloadRouter(signer).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/cards/cards/card_1.pdf?token="+token, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "cards/card_1.pdf" {
		t.Errorf("Key = %q", rr.Body.String())
	}
}

func TestDownloadToken_BearerHeader(t *testing.T) {
	signer := links.NewSigner("secret", "", time.Hour)
	token, _ := signer.Sign("cards/card_1.pdf")

	req := httptest.NewRequest(http.MethodGet, "/api/cards/cards/card_1.pdf", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	newDownloadRouter(signer).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
}

func TestDownloadToken_Rejects(t *testing.T) {
	signer := links.NewSigner("secret", "", time.Hour)
	other, _ := signer.Sign("cards/other.pdf")

	for name, target := range map[string]string{
		"missing":      "/api/cards/cards/card_1.pdf",
		"garbage":      "/api/cards/cards/card_1.pdf?token=abc",
		"other object": "/api/cards/cards/card_1.pdf?token=" + other,
	} {
		rr := httptest.NewRecorder()
		newDownloadRouter(signer).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", name, rr.Code)
		}
	}
}
