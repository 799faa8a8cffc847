package compose

import (
	"errors"
	"fmt"
	"time"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/sirupsen/logrus"
)

type (
	Options struct {
		// ValidateImages rejects images that lack the PNG signature before any page is drawn.
		ValidateImages bool
		// MaxImageDimension caps the long side of embedded images in pixels; 0 keeps them as-is.
		MaxImageDimension int
		// Now stamps the document creation date. Defaults to time.Now.
		Now func() time.Time
		// Uncompressed leaves page content streams readable, for debugging output.
		Uncompressed bool
	}

	// Composer turns a card request and its images into a two-page PDF.
	Composer struct {
		validate bool
		maxDim   int
		now      func() time.Time
		compress bool
	}
)

func NewComposer(opts Options) *Composer {
	c := &Composer{
		validate: opts.ValidateImages,
		maxDim:   opts.MaxImageDimension,
		now:      opts.Now,
		compress: !opts.Uncompressed,
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Compose lays out req and serializes it. Invalid images abort before any page content is
// produced; renderer failures are reported as encoding failures.
func (c *Composer) Compose(req core.CardRequest, images core.ImageSet) ([]byte, error) {
	doc := Layout(req)

	normalized := make(map[core.ImageRole][]byte, len(core.ImageRoles))
	for _, role := range doc.Roles() {
		img := images.Get(role)
		if err := c.checkImage(role, img); err != nil {
			return nil, &core.ComposeError{Kind: core.ComposeInvalidInput, Err: err}
		}
		data, err := normalizeImage(img.Data, c.maxDim)
		if err != nil {
			return nil, &core.ComposeError{Kind: core.ComposeEncodingFailure, Err: fmt.Errorf("%s image: %w", role, err)}
		}
		normalized[role] = data
	}

	out, err := render(doc, normalized, c.now(), c.compress)
	if err != nil {
		return nil, &core.ComposeError{Kind: core.ComposeEncodingFailure, Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"pages": len(doc.Pages),
		"bytes": len(out),
		"font":  doc.Pages[1].Texts[0].Font,
		"size":  doc.Pages[1].Texts[0].Size,
	}).Debug("Card composed")
	return out, nil
}

func (c *Composer) checkImage(role core.ImageRole, img core.FetchedImage) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("%s image: %w", role, errEmptyImage)
	}
	if c.validate && !core.HasPNGSignature(img.Data) {
		return fmt.Errorf("%s image: %w", role, errNotPNG)
	}
	return nil
}

var (
	errEmptyImage = errors.New("no image data")
	errNotPNG     = errors.New("missing PNG signature")
)
