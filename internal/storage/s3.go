package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"catalog-service/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// S3Config configures the S3 image store
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
	PresignTTL    time.Duration
}

// S3ImageStore stores variant images in an S3 bucket
type S3ImageStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     S3Config
	logger  *logrus.Entry
}

// NewS3ImageStore loads AWS credentials from the default chain and creates the store.
// A custom endpoint switches to path-style addressing for S3-compatible servers.
func NewS3ImageStore(ctx context.Context, cfg S3Config, logger *logrus.Logger) (*S3ImageStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = time.Hour
	}

	return &S3ImageStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
		logger:  logger.WithField("component", "storage.s3"),
	}, nil
}

// Put uploads one image and returns its stored reference
func (s *S3ImageStore) Put(ctx context.Context, tenantID string, upload models.ImageUpload) (models.VariantImage, error) {
	key := objectKey(tenantID, upload.Filename)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        upload.Body,
		ContentType: aws.String(upload.ContentType),
	}
	if upload.Size > 0 {
		input.ContentLength = aws.Int64(upload.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return models.VariantImage{}, fmt.Errorf("failed to upload image to S3: %w", err)
	}

	url, err := s.url(ctx, key)
	if err != nil {
		return models.VariantImage{}, err
	}
	s.logger.WithFields(logrus.Fields{"tenant_id": tenantID, "key": key}).Debug("image uploaded")
	return models.VariantImage{Ref: key, URL: url, ContentType: upload.ContentType, Size: upload.Size}, nil
}

// Delete removes an image by reference
func (s *S3ImageStore) Delete(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", ref, err)
	}
	return nil
}

func (s *S3ImageStore) url(ctx context.Context, key string) (string, error) {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key, nil
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to sign image URL: %w", err)
	}
	return req.URL, nil
}

func objectKey(tenantID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("variants/%s/%s%s", tenantID, uuid.New().String(), ext)
}
