package storage

import (
	"accounts/internal/config"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type s3ClientOptions struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ForcePathStyle  bool
}

type remoteS3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

func (s *remoteS3Storage) Put(ctx context.Context, data []byte, opts PutOptions) (string, error) {
	if err := checkPayload(ctx, data); err != nil {
		return "", err
	}

	key := prefixedKey(s.prefix, opts)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(detectContentType(opts.Extension)),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object: %w", describeS3Error(err))
	}
	return key, nil
}

var _ Storage = (*remoteS3Storage)(nil)

// describeS3Error 提取 smithy API 错误码，便于日志定位
func describeS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s: %w", apiErr.ErrorCode(), apiErr.ErrorMessage(), err)
	}
	return err
}

func NewS3Storage(cfg config.Config) (Storage, error) {
	store, err := newRemoteS3Storage("S3", cfg.ArchiveS3Bucket, cfg.ArchiveS3Prefix, s3ClientOptions{
		Region:          cfg.ArchiveS3Region,
		Endpoint:        cfg.ArchiveS3Endpoint,
		AccessKeyID:     cfg.ArchiveS3AccessKeyID,
		SecretAccessKey: cfg.ArchiveS3SecretAccessKey,
		SessionToken:    cfg.ArchiveS3SessionToken,
		ForcePathStyle:  cfg.ArchiveS3ForcePathStyle,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// newRemoteS3Storage 供 S3 及兼容服务共用，label 仅用于错误信息
func newRemoteS3Storage(label, bucket, prefix string, opts s3ClientOptions) (*remoteS3Storage, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("storage: missing %s bucket", label)
	}
	client, err := newS3Client(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: create %s client: %w", label, err)
	}
	return &remoteS3Storage{
		client: client,
		bucket: bucket,
		prefix: trimPrefix(prefix),
	}, nil
}

func newS3Client(opts s3ClientOptions) (*s3.Client, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		return nil, errors.New("storage: missing S3 region")
	}
	accessKey := strings.TrimSpace(opts.AccessKeyID)
	secretKey := strings.TrimSpace(opts.SecretAccessKey)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing S3 credentials")
	}

	awsCfg := aws.Config{
		Region: region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, strings.TrimSpace(opts.SessionToken)),
		),
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.ForcePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}
