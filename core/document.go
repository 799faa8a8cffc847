package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"
)

const (
	ResourceKindRaw = "raw"
	FormatPDF       = "pdf"
	ContentTypePDF  = "application/pdf"
)

type (
	// Document is a stored card file.
	Document struct {
		Key         string
		ContentType string
		Data        bytes.Buffer
		CreatedAt   time.Time
	}

	// StoreOptions describe how a blob should be stored.
	// ResourceKind is always "raw" for cards: the payload is a multi-page document,
	// not a displayable image.
	StoreOptions struct {
		ResourceKind string
		Format       string
		Folder       string
		NameHint     string
	}

	// BlobStore persists a blob and returns a URL the customer can download it from.
	BlobStore interface {
		Store(ctx context.Context, data []byte, opts StoreOptions) (string, error)
	}

	// DocumentStore is implemented by stores that serve their documents through this service.
	DocumentStore interface {
		FindKey(ctx context.Context, key string) (*Document, error)
	}
)

// PDFOptions returns the options used for every card document.
func PDFOptions(folder, nameHint string) StoreOptions {
	return StoreOptions{
		ResourceKind: ResourceKindRaw,
		Format:       FormatPDF,
		Folder:       folder,
		NameHint:     nameHint,
	}
}

// Key is the store-wide identifier for the blob: folder/name.format.
func (o StoreOptions) Key() string {
	name := o.NameHint
	if o.Format != "" {
		name += "." + o.Format
	}
	if o.Folder == "" {
		return name
	}
	return o.Folder + "/" + name
}

var ErrInvalidKey = errors.New("invalid document key")

// ValidateKey rejects keys that are empty or could escape a store's root.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
