package repository

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	xconfig "github.com/Fepozopo/xray/internal/config"
)

// ExportSink stores an exported enhanced image and returns the key it was
// written under.
type ExportSink interface {
	Export(ctx context.Context, filename string, data []byte, contentType string) (string, error)
}

// NopSink is used when S3 export is disabled.
type NopSink struct{}

func (NopSink) Export(context.Context, string, []byte, string) (string, error) {
	return "", nil
}

// putObjectAPI is the subset of *s3.Client used by the sink.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

type s3Sink struct {
	client putObjectAPI
	cfg    *xconfig.S3Config
	log    *zap.Logger
}

// NewS3Sink connects to the configured bucket. A custom endpoint (MinIO and
// friends) switches the client to path-style addressing.
func NewS3Sink(ctx context.Context, cfg *xconfig.S3Config, log *zap.Logger) (ExportSink, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	sink := newS3Sink(client, cfg, log)
	if err := sink.ensureBucketExists(ctx); err != nil {
		log.Warn("Failed to ensure bucket exists", zap.String("bucket", cfg.BucketName), zap.Error(err))
	}
	return sink, nil
}

func newS3Sink(client putObjectAPI, cfg *xconfig.S3Config, log *zap.Logger) *s3Sink {
	return &s3Sink{client: client, cfg: cfg, log: log}
}

func (r *s3Sink) ensureBucketExists(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.cfg.BucketName),
	})
	if err == nil {
		r.log.Debug("Bucket already exists", zap.String("bucket", r.cfg.BucketName))
		return nil
	}

	r.log.Info("Creating bucket", zap.String("bucket", r.cfg.BucketName))
	in := &s3.CreateBucketInput{Bucket: aws.String(r.cfg.BucketName)}
	// us-east-1 rejects an explicit location constraint
	if r.cfg.Region != "" && r.cfg.Region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(r.cfg.Region),
		}
	}
	if _, err := r.client.CreateBucket(ctx, in); err != nil {
		return err
	}
	r.log.Info("Bucket created successfully", zap.String("bucket", r.cfg.BucketName))
	return nil
}

func (r *s3Sink) key(filename string) string {
	if r.cfg.Prefix == "" {
		return filename
	}
	return path.Join(r.cfg.Prefix, filename)
}

func (r *s3Sink) Export(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	key := r.key(filename)
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.cfg.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		r.log.Error("Failed to upload export to S3",
			zap.String("key", key),
			zap.Error(err))
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	r.log.Info("Export uploaded to S3",
		zap.String("bucket", r.cfg.BucketName),
		zap.String("key", key),
		zap.Int("size", len(data)))
	return key, nil
}
