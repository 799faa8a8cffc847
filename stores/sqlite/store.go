package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/cardaverse-ai/cardaverse-customcard/links"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db    *sql.DB
	links *links.Signer
}

// NewStore opens the database at dataSourceName and creates the cards table.
func NewStore(dataSourceName string, signer *links.Signer) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	cardsTable := `
	CREATE TABLE IF NOT EXISTS cards (
		key TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at DATETIME NOT NULL
	);`
	if _, err = db.Exec(cardsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cards table: %w", err)
	}

	return &sqliteStore{db: db, links: signer}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Store(ctx context.Context, data []byte, opts core.StoreOptions) (string, error) {
	key := opts.Key()
	if err := core.ValidateKey(key); err != nil {
		return "", fmt.Errorf("%w: %q", err, key)
	}
	log := logrus.WithFields(logrus.Fields{
		"key":         key,
		"data_length": len(data),
	})

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cards (key, content_type, data, created_at) VALUES (?, ?, ?, ?)",
		key, core.ContentTypePDF, data, time.Now().UTC())
	if err != nil {
		log.WithError(err).Error("Failed to store document")
		return "", err
	}

	log.Info("Document stored successfully")
	return s.links.URL(key)
}

func (s *sqliteStore) FindKey(ctx context.Context, key string) (*core.Document, error) {
	log := logrus.WithField("key", key)
	log.Debug("Retrieving document by key")

	var (
		contentType string
		data        []byte
		createdAt   time.Time
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT content_type, data, created_at FROM cards WHERE key = ?", key).
		Scan(&contentType, &data, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Warn("Document with specified key not found")
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
		}
		log.WithError(err).Error("Failed to retrieve document")
		return nil, err
	}

	doc := core.Document{
		Key:         key,
		ContentType: contentType,
		Data:        *bytes.NewBuffer(data),
		CreatedAt:   createdAt,
	}
	log.Debug("Document retrieved successfully")
	return &doc, nil
}
