package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/cardaverse-ai/cardaverse-customcard/config"
	"github.com/cardaverse-ai/cardaverse-customcard/core"
)

func testConfig() config.Config {
	cfg := config.Config{
		UploadAllowedOrigin: "https://cardaverse.ai",
	}
	cfg.Links.Secret = "secret"
	cfg.Links.PublicBaseURL = "https://cards.test"
	cfg.Shopify.ShopDomain = "cards.myshopify.com"
	cfg.Cards.CustomCardVariant = "46650379796721"
	cfg.Cards.Folder = "cards"
	cfg.Cards.ValidateImages = true
	cfg.SyncProcessing = true
	return cfg
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := Build(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return a
}

func TestRouter_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestApp(t).Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("Unexpected healthz response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_WebhookMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestApp(t).Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/shopify-webhook", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestRouter_WebhookWrongShop(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/shopify-webhook", strings.NewReader(`{}`))
	req.Header.Set("X-Shopify-Shop-Domain", "other.myshopify.com")
	rec := httptest.NewRecorder()
	newTestApp(t).Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
}

func TestRouter_WebhookDesignURL(t *testing.T) {
	body := `{"order_number":1001,"email":"jo@example.com","line_items":[{"id":1,"variant_id":46650379796721,"title":"Card","quantity":1,"properties":[{"name":"Design URL","value":"https://files.test/a.pdf"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/shopify-webhook", strings.NewReader(body))
	req.Header.Set("X-Shopify-Shop-Domain", "cards.myshopify.com")
	rec := httptest.NewRecorder()
	newTestApp(t).Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Order accepted") {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_UploadPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "https://cardaverse.ai")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	newTestApp(t).Router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://cardaverse.ai" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_DownloadStoredCard(t *testing.T) {
	a := newTestApp(t)
	link, err := a.Store.Store(context.Background(), []byte("%PDF-1.3 card"), core.PDFOptions("cards", "card_X"))
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("url.Parse() failed: %v", err)
	}

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "%PDF-1.3 card" {
		t.Errorf("Unexpected download: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u.Path, nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("Download without token: expected 403, got %d", rec.Code)
	}
}

func TestConfigureLogging(t *testing.T) {
	if err := ConfigureLogging("debug", "json"); err != nil {
		t.Errorf("ConfigureLogging() failed: %v", err)
	}
	if err := ConfigureLogging("loud", "text"); err == nil {
		t.Error("ConfigureLogging() should reject unknown levels")
	}
	ConfigureLogging("info", "text")
}
