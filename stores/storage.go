package stores

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/cardaverse-ai/cardaverse-customcard/config"
	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/cardaverse-ai/cardaverse-customcard/links"
	"github.com/cardaverse-ai/cardaverse-customcard/stores/aws"
	"github.com/cardaverse-ai/cardaverse-customcard/stores/cloudinary"
	"github.com/cardaverse-ai/cardaverse-customcard/stores/filesystem"
	"github.com/cardaverse-ai/cardaverse-customcard/stores/memory"
	"github.com/cardaverse-ai/cardaverse-customcard/stores/sqlite"
	"github.com/sirupsen/logrus"
)

// Store is the configured blob store. Documents is nil for stores that hand out
// provider URLs instead of serving files through this service.
type Store struct {
	core.BlobStore
	Documents core.DocumentStore
	Links     *links.Signer
}

func GetStore(ctx context.Context, cfg config.Config) (Store, error) {
	sc := cfg.Storage
	storageField := logrus.Fields{
		"storageType": sc.Type,
	}

	signer := links.NewSigner(cfg.Links.Secret, cfg.Links.PublicBaseURL, cfg.Links.TTL)
	selfHosted := func() error {
		if cfg.Links.Secret == "" {
			return fmt.Errorf("DOWNLOAD_LINK_SECRET must be set for %s storage", sc.Type)
		}
		storageField["publicBaseURL"] = cfg.Links.PublicBaseURL
		return nil
	}

	var store Store
	switch sc.Type {
	case "filesystem":
		if err := selfHosted(); err != nil {
			return Store{}, err
		}
		storageField["basePath"] = sc.LocalPath
		fs, err := filesystem.NewStore(sc.LocalPath, signer)
		if err != nil {
			return Store{}, err
		}
		store = Store{BlobStore: fs, Documents: fs, Links: signer}
	case "sqlite":
		if err := selfHosted(); err != nil {
			return Store{}, err
		}
		storageField["dataSourceName"] = sc.DataSourceName
		db, err := sqlite.NewStore(sc.DataSourceName, signer)
		if err != nil {
			return Store{}, err
		}
		store = Store{BlobStore: db, Documents: db, Links: signer}
	case "s3":
		if sc.S3Bucket == "" {
			return Store{}, fmt.Errorf("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = sc.S3Bucket
		s3, err := aws.NewStore(ctx, sc.S3Bucket, sc.S3LinkTTL)
		if err != nil {
			return Store{}, err
		}
		store = Store{BlobStore: s3}
	case "cloudinary":
		if sc.CloudinaryCloud == "" || sc.CloudinaryKey == "" || sc.CloudinarySecret == "" {
			return Store{}, fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET must be set for cloudinary storage type")
		}
		storageField["cloudName"] = sc.CloudinaryCloud
		cld, err := cloudinary.NewStore(sc.CloudinaryCloud, sc.CloudinaryKey, sc.CloudinarySecret)
		if err != nil {
			return Store{}, err
		}
		store = Store{BlobStore: cld}
	default:
		if cfg.Links.Secret == "" {
			secret, err := randomSecret()
			if err != nil {
				return Store{}, err
			}
			signer = links.NewSigner(secret, cfg.Links.PublicBaseURL, cfg.Links.TTL)
			logrus.Warn("DOWNLOAD_LINK_SECRET is not set, using a per-process secret for in-memory download links")
		}
		mem := memory.NewStore(signer)
		store = Store{BlobStore: mem, Documents: mem, Links: signer}
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate link secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
