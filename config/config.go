// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
)

const (
	DefaultCustomCardVariant = "46650379796721"
	DefaultAllowedOrigin     = "https://cardaverse.ai"
	DefaultEmailFrom         = "orders@update.cardaverse.ai"
)

type (
	Config struct {
		LogLevel  string
		LogFormat string

		Storage StorageConfig
		Links   LinkConfig
		Email   EmailConfig
		Shopify ShopifyConfig
		Cards   CardConfig

		UploadAllowedOrigin string
		SyncProcessing      bool
		TaskTimeout         time.Duration
	}

	StorageConfig struct {
		Type             string
		LocalPath        string
		DataSourceName   string
		S3Bucket         string
		S3LinkTTL        time.Duration
		CloudinaryCloud  string
		CloudinaryKey    string
		CloudinarySecret string
	}

	// LinkConfig signs download links for stores served by this service.
	LinkConfig struct {
		PublicBaseURL string
		Secret        string
		TTL           time.Duration
	}

	EmailConfig struct {
		Notifier     string
		From         string
		ResendAPIKey string
		SMTPAddr     string
		SMTPUsername string
		SMTPPassword string
	}

	ShopifyConfig struct {
		ShopDomain    string
		WebhookSecret string
		VerifyHMAC    bool
	}

	CardConfig struct {
		CustomCardVariant  core.VariantID
		ProductCardVariant core.VariantID
		ValidateImages     bool
		PropertyNames      string
		Folder             string
		FetchTimeout       time.Duration
		FetchMaxBytes      int64
		MaxImageDimension  int
	}
)

// Variants lists the configured card variants, skipping unset ones.
func (c CardConfig) Variants() []core.VariantID {
	var out []core.VariantID
	for _, v := range []core.VariantID{c.CustomCardVariant, c.ProductCardVariant} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	e := env{getenv: getenv}
	cfg := Config{
		LogLevel:  e.str("LOG_LEVEL", "info"),
		LogFormat: e.str("LOG_FORMAT", "text"),
		Storage: StorageConfig{
			Type:             e.str("STORAGE_TYPE", "memory"),
			LocalPath:        e.str("LOCAL_STORAGE_PATH", "./data"),
			DataSourceName:   e.str("DATA_SOURCE_NAME", "cards.db"),
			S3Bucket:         e.str("S3_BUCKET_NAME", ""),
			S3LinkTTL:        e.duration("S3_LINK_TTL", 7*24*time.Hour),
			CloudinaryCloud:  e.str("CLOUDINARY_CLOUD_NAME", ""),
			CloudinaryKey:    e.str("CLOUDINARY_API_KEY", ""),
			CloudinarySecret: e.str("CLOUDINARY_API_SECRET", ""),
		},
		Links: LinkConfig{
			PublicBaseURL: e.str("PUBLIC_BASE_URL", "http://localhost:3002"),
			Secret:        e.str("DOWNLOAD_LINK_SECRET", ""),
			TTL:           e.duration("DOWNLOAD_LINK_TTL", 30*24*time.Hour),
		},
		Email: EmailConfig{
			Notifier:     e.str("NOTIFIER_TYPE", "log"),
			From:         e.str("EMAIL_FROM", DefaultEmailFrom),
			ResendAPIKey: e.str("RESEND_API_KEY", ""),
			SMTPAddr:     e.str("SMTP_ADDR", ""),
			SMTPUsername: e.str("SMTP_USERNAME", ""),
			SMTPPassword: e.str("SMTP_PASSWORD", ""),
		},
		Shopify: ShopifyConfig{
			ShopDomain:    e.str("SHOPIFY_SHOP_DOMAIN", ""),
			WebhookSecret: e.str("SHOPIFY_WEBHOOK_SECRET", ""),
			VerifyHMAC:    e.boolean("SHOPIFY_VERIFY_HMAC", false),
		},
		Cards: CardConfig{
			CustomCardVariant:  core.VariantID(e.str("CUSTOM_CARD_VARIANT_ID", DefaultCustomCardVariant)),
			ProductCardVariant: core.VariantID(e.str("PRODUCT_CARD_VARIANT_ID", "")),
			ValidateImages:     e.boolean("VALIDATE_IMAGES", true),
			PropertyNames:      e.str("PROPERTY_NAMES", "current"),
			Folder:             e.str("CARD_FOLDER", "cards"),
			FetchTimeout:       e.duration("FETCH_TIMEOUT", 15*time.Second),
			FetchMaxBytes:      e.integer("FETCH_MAX_BYTES", 25<<20),
			MaxImageDimension:  int(e.integer("IMAGE_MAX_DIMENSION", 0)),
		},
		UploadAllowedOrigin: e.str("UPLOAD_ALLOWED_ORIGIN", DefaultAllowedOrigin),
		SyncProcessing:      e.boolean("SYNC_PROCESSING", false),
		TaskTimeout:         e.duration("TASK_TIMEOUT", 2*time.Minute),
	}
	if e.err != nil {
		return Config{}, e.err
	}
	if cfg.Shopify.VerifyHMAC && cfg.Shopify.WebhookSecret == "" {
		return Config{}, fmt.Errorf("SHOPIFY_WEBHOOK_SECRET must be set when SHOPIFY_VERIFY_HMAC is enabled")
	}
	return cfg, nil
}

// env collects the first parse error so Load can report it once.
type env struct {
	getenv func(string) string
	err    error
}

func (e *env) str(name, def string) string {
	if v := strings.TrimSpace(e.getenv(name)); v != "" {
		return v
	}
	return def
}

func (e *env) boolean(name string, def bool) bool {
	v := strings.TrimSpace(e.getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, v, err)
		return def
	}
	return b
}

func (e *env) duration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, v, err)
		return def
	}
	return d
}

func (e *env) integer(name string, def int64) int64 {
	v := strings.TrimSpace(e.getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.fail(name, v, err)
		return def
	}
	return n
}

func (e *env) fail(name, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", name, value, err)
	}
}
