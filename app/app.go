// Package app wires configuration, stores and handlers into an HTTP service.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cardaverse-ai/cardaverse-customcard/config"
	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/cardaverse-ai/cardaverse-customcard/fulfillment"
	"github.com/cardaverse-ai/cardaverse-customcard/handlers/api/documents"
	"github.com/cardaverse-ai/cardaverse-customcard/handlers/api/upload"
	"github.com/cardaverse-ai/cardaverse-customcard/handlers/webhooks/shopify"
	cardMiddleware "github.com/cardaverse-ai/cardaverse-customcard/middleware"
	"github.com/cardaverse-ai/cardaverse-customcard/notify"
	"github.com/cardaverse-ai/cardaverse-customcard/stores"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// App is a fully wired service.
type App struct {
	Config     config.Config
	Store      stores.Store
	Notifier   core.Notifier
	Dispatcher *fulfillment.Dispatcher
	Router     http.Handler
}

// ConfigureLogging applies the configured level and format to the standard logger.
func ConfigureLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(lvl)
	if format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return nil
}

func Build(ctx context.Context, cfg config.Config) (*App, error) {
	store, err := stores.GetStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	notifier, err := notify.GetNotifier(cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}
	names, err := fulfillment.ParseNameSet(cfg.Cards.PropertyNames)
	if err != nil {
		return nil, err
	}

	proc := fulfillment.NewProcessor(store, notifier, fulfillment.Options{
		ValidateImages:    cfg.Cards.ValidateImages,
		PropertyNames:     names,
		Variants:          cfg.Cards.Variants(),
		Folder:            cfg.Cards.Folder,
		FetchTimeout:      cfg.Cards.FetchTimeout,
		FetchMaxBytes:     cfg.Cards.FetchMaxBytes,
		MaxImageDimension: cfg.Cards.MaxImageDimension,
	})
	dispatcher := fulfillment.NewDispatcher(proc, fulfillment.DispatchOptions{
		Sync:        cfg.SyncProcessing,
		TaskTimeout: cfg.TaskTimeout,
	})

	logrus.WithFields(logrus.Fields{
		"variants":       cfg.Cards.Variants(),
		"propertyNames":  names,
		"validateImages": cfg.Cards.ValidateImages,
		"sync":           cfg.SyncProcessing,
	}).Info("Fulfillment configured")

	return &App{
		Config:     cfg,
		Store:      store,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Router:     setupRouter(cfg, store, dispatcher),
	}, nil
}

func setupRouter(cfg config.Config, store stores.Store, dispatcher shopify.OrderDispatcher) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.With(cardMiddleware.ShopifyWebhook(cardMiddleware.ShopifyOptions{
			ShopDomain: cfg.Shopify.ShopDomain,
			Secret:     cfg.Shopify.WebhookSecret,
			VerifyHMAC: cfg.Shopify.VerifyHMAC,
		})).Post("/shopify-webhook", shopify.HandleOrderPaid(dispatcher))

		r.Group(func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: []string{cfg.UploadAllowedOrigin},
				AllowedMethods: []string{"POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         300,
			}))
			r.Options("/upload", func(w http.ResponseWriter, r *http.Request) {})
			r.Post("/upload", upload.HandleUpload(store, cfg.Cards.Folder))
		})

		if store.Documents != nil {
			r.With(cardMiddleware.DownloadToken(store.Links)).
				Get("/cards/{folder}/{name}", documents.HandleGet(store.Documents))
		}
	})

	return r
}
