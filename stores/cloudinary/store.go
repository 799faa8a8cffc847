package cloudinary

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/sirupsen/logrus"
)

type cloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewStore uploads documents to Cloudinary as public raw resources.
func NewStore(cloudName, apiKey, apiSecret string) (*cloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}
	return &cloudinaryStore{cld: cld}, nil
}

func (s *cloudinaryStore) Store(ctx context.Context, data []byte, opts core.StoreOptions) (string, error) {
	if err := core.ValidateKey(opts.Key()); err != nil {
		return "", fmt.Errorf("%w: %q", err, opts.Key())
	}
	log := logrus.WithFields(logrus.Fields{
		"public_id":     opts.NameHint,
		"folder":        opts.Folder,
		"resource_type": opts.ResourceKind,
		"data_length":   len(data),
	})

	resp, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     opts.NameHint,
		Folder:       opts.Folder,
		ResourceType: opts.ResourceKind,
		Format:       opts.Format,
		AccessMode:   "public",
	})
	if err != nil {
		log.WithError(err).Error("Cloudinary upload failed")
		return "", fmt.Errorf("upload %s: %w", opts.Key(), err)
	}
	if resp.Error.Message != "" {
		log.WithField("error", resp.Error.Message).Error("Cloudinary rejected upload")
		return "", fmt.Errorf("upload %s: %w", opts.Key(), errors.New(resp.Error.Message))
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("upload %s: no secure url in response", opts.Key())
	}

	log.WithField("url", resp.SecureURL).Info("Document uploaded successfully")
	return resp.SecureURL, nil
}
