package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/metrics"
	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	httpTimeout  = 30 * time.Second
	cacheControl = "public, max-age=31536000"
)

// S3AvatarStorage puts avatars into an S3-compatible bucket and serves them
// from a public base URL.
type S3AvatarStorage struct {
	api       *s3.Client
	bucket    string
	publicURL string
	uploads   *prometheus.CounterVec
}

func NewS3AvatarStorage(ctx context.Context, cfg config.AvatarConfig, uploads *prometheus.CounterVec) (*S3AvatarStorage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("avatar bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(httpTimeout)),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3AvatarStorage{
		api:       client,
		bucket:    cfg.Bucket,
		publicURL: publicBaseURL(cfg),
		uploads:   uploads,
	}, nil
}

// Upload buffers the body so the SDK can sign it over plain HTTP endpoints.
// Avatars are small and bounded by the caller.
func (s *S3AvatarStorage) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	url, err := s.upload(ctx, key, contentType, body, size)
	if s.uploads != nil {
		s.uploads.WithLabelValues(metrics.Result(err)).Inc()
	}
	return url, err
}

func (s *S3AvatarStorage) upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, size+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("avatar body is %d bytes, expected %d", len(data), size)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(cacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

func publicBaseURL(cfg config.AvatarConfig) string {
	if cfg.PublicBaseURL != "" {
		return cfg.PublicBaseURL
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}
