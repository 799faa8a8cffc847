package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 25 << 20
)

type (
	// Options configure a Fetcher. Zero values fall back to the defaults.
	Options struct {
		Client   *http.Client
		Timeout  time.Duration
		MaxBytes int64
		// Validate enables the PNG signature check. Disabling it passes bytes through untouched.
		Validate bool
	}

	// Fetcher retrieves card images over HTTP.
	Fetcher struct {
		client   *http.Client
		timeout  time.Duration
		maxBytes int64
		validate bool
	}
)

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:   opts.Client,
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
		validate: opts.Validate,
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.maxBytes <= 0 {
		f.maxBytes = DefaultMaxBytes
	}
	return f
}

// FetchAndValidate downloads the image at url and checks its signature.
// A failed fetch is terminal; no retry is attempted.
func (f *Fetcher) FetchAndValidate(ctx context.Context, role core.ImageRole, url string) (core.FetchedImage, error) {
	log := logrus.WithFields(logrus.Fields{"role": role, "url": url})

	if strings.TrimSpace(url) == "" {
		return core.FetchedImage{}, &core.FetchError{Kind: core.FetchUnreachable, Role: role, Err: core.ErrMissingImageRef}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.FetchedImage{}, &core.FetchError{Kind: core.FetchUnreachable, Role: role, URL: url, Err: err}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return core.FetchedImage{}, f.transportError(ctx, role, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("Image request returned non-success status")
		return core.FetchedImage{}, &core.FetchError{
			Kind: core.FetchUnreachable,
			Role: role,
			URL:  url,
			Err:  fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return core.FetchedImage{}, f.transportError(ctx, role, url, err)
	}
	if int64(len(data)) > f.maxBytes {
		return core.FetchedImage{}, &core.FetchError{
			Kind: core.FetchInvalidFormat,
			Role: role,
			URL:  url,
			Err:  fmt.Errorf("image exceeds %d bytes", f.maxBytes),
		}
	}

	img, err := f.validateImage(role, url, data)
	if err != nil {
		return core.FetchedImage{}, err
	}

	log.WithFields(logrus.Fields{
		"bytes":   len(data),
		"elapsed": time.Since(start),
	}).Debug("Image fetched")
	return img, nil
}

func (f *Fetcher) validateImage(role core.ImageRole, url string, data []byte) (core.FetchedImage, error) {
	img := core.FetchedImage{Role: role, URL: url, Data: data}
	if !f.validate {
		img.Format = sniffFormat(data)
		return img, nil
	}
	if err := Validate(data); err != nil {
		return core.FetchedImage{}, &core.FetchError{Kind: core.FetchInvalidFormat, Role: role, URL: url, Err: err}
	}
	img.Format = core.FormatPNG
	return img, nil
}

func (f *Fetcher) transportError(ctx context.Context, role core.ImageRole, url string, err error) error {
	kind := core.FetchUnreachable
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		kind = core.FetchTimeout
	}
	return &core.FetchError{Kind: kind, Role: role, URL: url, Err: err}
}

// FetchSet fetches the three images of req concurrently and waits for all of them.
// The first failure cancels the fetches still in flight.
func (f *Fetcher) FetchSet(ctx context.Context, req core.CardRequest) (core.ImageSet, error) {
	var set core.ImageSet
	if missing := req.Missing(); len(missing) > 0 {
		return set, &core.FetchError{Kind: core.FetchUnreachable, Role: missing[0], Err: core.ErrMissingImageRef}
	}

	refs := req.Refs()
	results := make([]core.FetchedImage, len(core.ImageRoles))

	g, gctx := errgroup.WithContext(ctx)
	for i, role := range core.ImageRoles {
		g.Go(func() error {
			img, err := f.FetchAndValidate(gctx, role, refs[role])
			if err != nil {
				return err
			}
			results[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.ImageSet{}, err
	}

	for _, img := range results {
		set.Set(img)
	}
	return set, nil
}

// Validate fails unless data begins with the PNG signature.
func Validate(data []byte) error {
	if len(data) < len(core.PNGSignature) {
		return fmt.Errorf("got %d bytes, need at least %d for a PNG signature", len(data), len(core.PNGSignature))
	}
	if !core.HasPNGSignature(data) {
		return fmt.Errorf("missing PNG signature: got % X", data[:len(core.PNGSignature)])
	}
	return nil
}

func sniffFormat(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.Index(ct, "/"); i >= 0 && strings.HasPrefix(ct, "image/") {
		return ct[i+1:]
	}
	return ct
}
