package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
)

type S3Config struct {
	Endpoint     string // empty for AWS; set for MinIO/R2
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool
}

// ReportStore writes analytics reports to an S3-compatible bucket.
type ReportStore struct {
	client *s3.Client
	bucket string
	log    zerolog.Logger
}

func NewReportStore(ctx context.Context, cfg S3Config) (*ReportStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// MinIO and R2 reject some default checksum headers
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &ReportStore{client: client, bucket: cfg.Bucket, log: logger.Component("storage")}, nil
}

func (s *ReportStore) PutReport(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s.bucket, key, err)
	}
	s.log.Info().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(body)).Msg("report uploaded")
	return nil
}
