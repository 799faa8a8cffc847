package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/cardaverse-ai/cardaverse-customcard/links"
	"github.com/sirupsen/logrus"
)

type fsStore struct {
	basePath string
	links    *links.Signer
}

// NewStore keeps documents as files under basePath, one directory per folder.
func NewStore(basePath string, signer *links.Signer) (*fsStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &fsStore{basePath: basePath, links: signer}, nil
}

func (s *fsStore) path(key string) (string, error) {
	if err := core.ValidateKey(key); err != nil {
		return "", fmt.Errorf("%w: %q", err, key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

func (s *fsStore) Store(ctx context.Context, data []byte, opts core.StoreOptions) (string, error) {
	key := opts.Key()
	filePath, err := s.path(key)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"key":       key,
		"file_path": filePath,
	})

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		log.WithError(err).Error("Failed to create folder")
		return "", err
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write document")
		return "", err
	}

	log.WithField("data_length", len(data)).Info("Document stored successfully")
	return s.links.URL(key)
}

func (s *fsStore) FindKey(ctx context.Context, key string) (*core.Document, error) {
	filePath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	log := logrus.WithField("key", key)

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Document with specified key not found")
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
		}
		log.WithError(err).Error("Failed to stat document")
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		log.WithError(err).Error("Failed to read document")
		return nil, err
	}

	doc := core.Document{
		Key:         key,
		ContentType: core.ContentTypePDF,
		Data:        *bytes.NewBuffer(data),
		CreatedAt:   info.ModTime(),
	}
	log.Debug("Document retrieved successfully")
	return &doc, nil
}
