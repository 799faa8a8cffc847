package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/cardaverse-ai/cardaverse-customcard/compose"
	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/cardaverse-ai/cardaverse-customcard/fetch"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const DefaultFolder = "cards"

var (
	ErrNoRecipient = errors.New("order has no customer email")
	errNoPath      = errors.New("line item has neither a design URL nor image references")
)

type (
	// Options parameterize the one fulfillment pipeline.
	Options struct {
		ValidateImages bool
		PropertyNames  NameSet
		// Variants are the product variants that carry a card.
		Variants []core.VariantID
		// Folder receives composed cards. Defaults to "cards".
		Folder string

		HTTPClient        *http.Client
		FetchTimeout      time.Duration
		FetchMaxBytes     int64
		MaxImageDimension int
	}

	// ItemResult is the outcome of one line item.
	ItemResult struct {
		LineItemID string
		Title      string
		Quantity   int
		Path       Path
		URL        string
		Err        error
	}

	// Report is the outcome of one order.
	Report struct {
		OrderNumber string
		Items       []ItemResult
		Notified    bool
		NotifyErr   error
	}

	imageFetcher interface {
		FetchSet(ctx context.Context, req core.CardRequest) (core.ImageSet, error)
	}

	cardComposer interface {
		Compose(req core.CardRequest, images core.ImageSet) ([]byte, error)
	}

	// Processor turns paid orders into stored cards and a customer email.
	Processor struct {
		extractor *Extractor
		fetcher   imageFetcher
		composer  cardComposer
		store     core.BlobStore
		notifier  core.Notifier
		variants  map[core.VariantID]bool
		folder    string
	}
)

func NewProcessor(store core.BlobStore, notifier core.Notifier, opts Options) *Processor {
	variants := make(map[core.VariantID]bool, len(opts.Variants))
	for _, v := range opts.Variants {
		if v != "" {
			variants[v] = true
		}
	}
	folder := opts.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	return &Processor{
		extractor: NewExtractor(opts.PropertyNames),
		fetcher: fetch.NewFetcher(fetch.Options{
			Client:   opts.HTTPClient,
			Timeout:  opts.FetchTimeout,
			MaxBytes: opts.FetchMaxBytes,
			Validate: opts.ValidateImages,
		}),
		composer: compose.NewComposer(compose.Options{
			ValidateImages:    opts.ValidateImages,
			MaxImageDimension: opts.MaxImageDimension,
		}),
		store:    store,
		notifier: notifier,
		variants: variants,
		folder:   folder,
	}
}

// Eligible returns the line items whose variant carries a card.
func (p *Processor) Eligible(order core.Order) []core.LineItem {
	var items []core.LineItem
	for _, li := range order.LineItems {
		if p.variants[li.VariantID] {
			items = append(items, li)
		}
	}
	return items
}

// ProcessOrder handles every eligible line item independently and emails the customer the
// links that were produced. A failing item never stops its siblings.
func (p *Processor) ProcessOrder(ctx context.Context, order core.Order) Report {
	report := Report{OrderNumber: order.OrderNumber.String()}
	log := logrus.WithField("order_number", report.OrderNumber)

	for _, li := range p.Eligible(order) {
		res := p.processItem(ctx, report.OrderNumber, li)
		report.Items = append(report.Items, res)
		if res.Err != nil {
			log.WithFields(logrus.Fields{
				"line_item": li.Title,
				"path":      res.Path,
			}).WithError(res.Err).Error("Line item failed")
		}
	}

	var downloads []core.DownloadItem
	for _, res := range report.Items {
		if res.Err == nil && res.URL != "" {
			downloads = append(downloads, core.DownloadItem{
				Title:       res.Title,
				Quantity:    res.Quantity,
				DownloadURL: res.URL,
			})
		}
	}
	if len(downloads) == 0 {
		log.Info("No downloadable cards in order, skipping email")
		return report
	}
	if order.Email == "" {
		report.NotifyErr = ErrNoRecipient
		log.Warn("Order has cards but no customer email")
		return report
	}

	err := p.notifier.Send(ctx, core.Notification{
		Recipient:    order.Email,
		Subject:      Subject(report.OrderNumber),
		CustomerName: order.CustomerName(),
		OrderNumber:  report.OrderNumber,
		Items:        downloads,
	})
	if err != nil {
		report.NotifyErr = err
		log.WithError(err).Error("Failed to send card email")
		return report
	}
	report.Notified = true
	log.WithField("items", len(downloads)).Info("Sent card email")
	return report
}

// Subject is the email subject for an order.
func Subject(orderNumber string) string {
	return "Your Custom Cards Are Ready - Order #" + orderNumber
}

func (p *Processor) processItem(ctx context.Context, orderNumber string, li core.LineItem) (res ItemResult) {
	res = ItemResult{LineItemID: li.ID.String(), Title: li.Title, Quantity: li.Quantity}
	log := logrus.WithFields(logrus.Fields{"order_number": orderNumber, "line_item": li.Title})

	defer func() {
		if r := recover(); r != nil {
			res.URL = ""
			res.Err = fmt.Errorf("panic: %v", r)
			log.WithField("stack", string(debug.Stack())).Error("Recovered from panic in line item")
		}
	}()

	ex := p.extractor.Extract(li.Properties)
	res.Path = ex.Path
	for _, name := range ex.Unrecognized {
		log.WithField("property", name).Warn("Unrecognized property name")
	}

	switch ex.Path {
	case PathDesign:
		if ex.Conflicting {
			log.Warn("Line item has both a design URL and image references, using the design URL")
		}
		res.URL = ex.DesignURL
	case PathCompose:
		res.URL, res.Err = p.composeCard(ctx, log, ex.Request)
	default:
		res.Err = errNoPath
	}
	return res
}

func (p *Processor) composeCard(ctx context.Context, log *logrus.Entry, req core.CardRequest) (string, error) {
	if missing := req.Missing(); len(missing) > 0 {
		log.WithField("role", missing[0]).Warn("Missing image reference")
	}

	images, err := p.fetcher.FetchSet(ctx, req)
	if err != nil {
		var fe *core.FetchError
		if errors.As(err, &fe) {
			log = log.WithFields(logrus.Fields{"role": fe.Role, "kind": fe.Kind})
		}
		log.WithError(err).Warn("Image fetch failed")
		return "", &core.ComposeError{Kind: core.ComposeInvalidInput, Err: err}
	}

	data, err := p.composer.Compose(req, images)
	if err != nil {
		return "", err
	}

	name := "card_" + ulid.Make().String()
	url, err := p.store.Store(ctx, data, core.PDFOptions(p.folder, name))
	if err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	log.WithFields(logrus.Fields{"name": name, "bytes": len(data)}).Info("Stored card")
	return url, nil
}
