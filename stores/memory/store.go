package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/cardaverse-ai/cardaverse-customcard/links"
	"github.com/sirupsen/logrus"
)

type documentStore struct {
	mu        sync.RWMutex
	documents map[string]core.Document
	links     *links.Signer
}

// NewStore keeps documents in process memory. Links are served by this service.
func NewStore(signer *links.Signer) *documentStore {
	return &documentStore{
		documents: make(map[string]core.Document),
		links:     signer,
	}
}

func (s *documentStore) Store(ctx context.Context, data []byte, opts core.StoreOptions) (string, error) {
	key := opts.Key()
	if err := core.ValidateKey(key); err != nil {
		return "", fmt.Errorf("%w: %q", err, key)
	}

	doc := core.Document{
		Key:         key,
		ContentType: core.ContentTypePDF,
		CreatedAt:   time.Now(),
	}
	doc.Data.Write(data)

	s.mu.Lock()
	s.documents[key] = doc
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"key":         key,
		"data_length": len(data),
	}).Info("Document stored successfully")

	return s.links.URL(key)
}

func (s *documentStore) FindKey(ctx context.Context, key string) (*core.Document, error) {
	log := logrus.WithField("key", key)

	s.mu.RLock()
	doc, ok := s.documents[key]
	s.mu.RUnlock()

	if !ok {
		log.Warn("Document with specified key not found")
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}

	out := core.Document{Key: doc.Key, ContentType: doc.ContentType, CreatedAt: doc.CreatedAt}
	out.Data = *bytes.NewBuffer(append([]byte(nil), doc.Data.Bytes()...))
	log.Debug("Document retrieved successfully")
	return &out, nil
}
