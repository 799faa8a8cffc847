package aws

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/sirupsen/logrus"
)

// MaxLinkTTL is the longest expiry S3 accepts for a presigned URL.
const MaxLinkTTL = 7 * 24 * time.Hour

type s3Store struct {
	s3Client  *s3.Client
	presigner *s3.PresignClient
	bucket    string
	linkTTL   time.Duration
}

// NewStore creates an S3-backed store. Returned links are presigned GET URLs.
func NewStore(ctx context.Context, bucketName string, linkTTL time.Duration) (*s3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newStore(s3.NewFromConfig(cfg), bucketName, linkTTL), nil
}

func newStore(client *s3.Client, bucketName string, linkTTL time.Duration) *s3Store {
	if linkTTL <= 0 || linkTTL > MaxLinkTTL {
		linkTTL = MaxLinkTTL
	}
	return &s3Store{
		s3Client:  client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucketName,
		linkTTL:   linkTTL,
	}
}

func (s *s3Store) Store(ctx context.Context, data []byte, opts core.StoreOptions) (string, error) {
	key := opts.Key()
	if err := core.ValidateKey(key); err != nil {
		return "", fmt.Errorf("%w: %q", err, key)
	}
	log := logrus.WithFields(logrus.Fields{
		"bucket":      s.bucket,
		"key":         key,
		"data_length": len(data),
	})

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(core.ContentTypePDF),
	})
	if err != nil {
		log.WithError(err).Error("Failed to upload document")
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.linkTTL))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	log.Info("Document uploaded successfully")
	return req.URL, nil
}
