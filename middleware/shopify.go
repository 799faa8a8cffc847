package middleware

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const (
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderHMAC       = "X-Shopify-Hmac-Sha256"
	HeaderTopic      = "X-Shopify-Topic"

	// MaxWebhookBody bounds the order payload read for verification.
	MaxWebhookBody = 5 << 20
)

type contextKey string

const ShopDomainContextKey = contextKey("shop_domain")

// ShopifyOptions configure ShopifyWebhook. Empty ShopDomain accepts any shop.
type ShopifyOptions struct {
	ShopDomain string
	Secret     string
	VerifyHMAC bool
}

// ShopifyWebhook rejects webhooks from other shops (403) and, when enabled, requests whose
// body does not match the HMAC header (401). The body is restored for the next handler.
func ShopifyWebhook(opts ShopifyOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			domain := r.Header.Get(HeaderShopDomain)
			log := logrus.WithFields(logrus.Fields{
				"shop_domain": domain,
				"topic":       r.Header.Get(HeaderTopic),
			})

			if opts.ShopDomain != "" && !strings.EqualFold(domain, opts.ShopDomain) {
				log.Warn("Invalid Shopify domain")
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, map[string]string{"error": "Forbidden"})
				return
			}

			if opts.VerifyHMAC {
				body, err := io.ReadAll(io.LimitReader(r.Body, MaxWebhookBody))
				r.Body.Close()
				if err != nil {
					log.WithError(err).Warn("Failed to read webhook body")
					render.Status(r, http.StatusBadRequest)
					render.JSON(w, r, map[string]string{"error": "Invalid request body"})
					return
				}
				if !ValidHMAC(body, r.Header.Get(HeaderHMAC), opts.Secret) {
					log.Warn("Webhook verification failed")
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, map[string]string{"error": "Unauthorized"})
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			ctx := context.WithValue(r.Context(), ShopDomainContextKey, domain)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ValidHMAC reports whether header is the base64 HMAC-SHA256 of body under secret.
func ValidHMAC(body []byte, header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
