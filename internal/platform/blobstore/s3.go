package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds the construction parameters of an S3Store. Static keys are
// used when both are set, otherwise credentials come from the default AWS chain.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible services such as MinIO
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store implements Store on an S3-compatible bucket. Keys are the stable
// paths; access URLs are presigned GETs.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Store(client, cfg.Bucket), nil
}

func newS3Store(client *s3.Client, bucket string) *S3Store {
	return &S3Store{client: client, presign: s3.NewPresignClient(client), bucket: bucket}
}

func (s *S3Store) PutObject(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	key, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	data, err := readLimited(r)
	if err != nil {
		return "", err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

func (s *S3Store) PresignGet(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	out, err := s.presign.PresignGetObject(ctx,
		&s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(path)},
		func(po *s3.PresignOptions) { po.Expires = ttl },
	)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", path, err)
	}
	return out.URL, nil
}

// StablePathFromURL accepts both virtual-hosted ("bucket.host/key") and
// path-style ("host/bucket/key") URLs.
func (s *S3Store) StablePathFromURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return "", false
	}
	var key string
	switch {
	case strings.HasPrefix(u.Host, s.bucket+"."):
		key = strings.TrimPrefix(u.Path, "/")
	case strings.HasPrefix(u.Path, "/"+s.bucket+"/"):
		key = strings.TrimPrefix(u.Path, "/"+s.bucket+"/")
	default:
		return "", false
	}
	if key == "" {
		return "", false
	}
	return key, true
}

func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(path)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return ErrNotFound
		}
		return fmt.Errorf("delete object %s: %w", path, err)
	}
	return nil
}
