package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"homesite_sync/config"
)

// S3Archive stores pages in S3-compatible storage
type S3Archive struct {
	client *s3.Client
	cfg    config.S3Config
}

func NewS3Archive(ctx context.Context, cfg config.S3Config) (*S3Archive, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Archive{client: client, cfg: cfg}, nil
}

func (a *S3Archive) Save(ctx context.Context, step, pageURL string, body []byte) (string, error) {
	key := path.Join(a.cfg.Prefix, archiveKey(step, pageURL, time.Now()))
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return a.PublicURL(key), nil
}

// PublicURL returns the public URL for an S3 key
func (a *S3Archive) PublicURL(key string) string {
	if a.cfg.Endpoint != "" && strings.Contains(a.cfg.Endpoint, "digitaloceanspaces.com") {
		// DO Spaces: https://{bucket}.{region}.digitaloceanspaces.com/{key}
		host := strings.TrimPrefix(a.cfg.Endpoint, "https://")
		return fmt.Sprintf("https://%s.%s/%s", a.cfg.Bucket, host, key)
	}
	if a.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(a.cfg.Endpoint, "/"), a.cfg.Bucket, key)
	}
	// AWS S3: https://{bucket}.s3.{region}.amazonaws.com/{key}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.cfg.Bucket, a.cfg.Region, key)
}

// NewArchive picks S3 when a bucket is configured, then a local directory,
// then nothing.
func NewArchive(ctx context.Context, cfg config.ArchiveConfig) (PageArchive, error) {
	switch {
	case cfg.S3.Enabled():
		return NewS3Archive(ctx, cfg.S3)
	case cfg.Dir != "":
		return NewDirArchive(cfg.Dir)
	default:
		return NopArchive{}, nil
	}
}
