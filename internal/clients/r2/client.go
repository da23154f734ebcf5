// Package r2 downloads observation caches from Cloudflare R2 (S3-compatible storage).
package r2

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Config holds R2 credentials and the bucket to read from.
// Endpoint overrides the account endpoint and is mainly used by tests.
type Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
}

// endpoint returns the S3 API endpoint for the account
func (c Config) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// Client reads objects from one R2 bucket
type Client struct {
	s3         *s3.Client
	downloader *manager.Downloader
	bucket     string
	log        zerolog.Logger
}

// NewClient creates an R2 client with static credentials
func NewClient(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("r2 bucket name is required")
	}
	if cfg.AccountID == "" && cfg.Endpoint == "" {
		return nil, errors.New("r2 account id is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.endpoint())
		o.UsePathStyle = true
	})

	return &Client{
		s3:         client,
		downloader: manager.NewDownloader(client),
		bucket:     cfg.BucketName,
		log:        log.With().Str("client", "r2").Logger(),
	}, nil
}

// Download writes the object at key to dest and returns the number of bytes written.
// The object is written to a temporary file next to dest and renamed on success,
// so dest is never left half-written.
func (c *Client) Download(ctx context.Context, key, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	c.log.Debug().Str("bucket", c.bucket).Str("key", key).Msg("Downloading object")

	n, err := c.downloader.Download(ctx, tmp, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to download %s/%s: %w", c.bucket, key, err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("failed to move download into place: %w", err)
	}

	c.log.Info().
		Str("key", key).
		Str("path", dest).
		Int64("bytes", n).
		Msg("Downloaded observation cache")

	return n, nil
}
