package storage

import (
	"accounts/internal/config"
	"errors"
	"fmt"
	"strings"
)

const r2DefaultRegion = "auto"

// r2Endpoint 优先使用显式 endpoint，否则由账户 ID 推导
func r2Endpoint(endpoint, accountID string) (string, error) {
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		return endpoint, nil
	}
	if accountID = strings.TrimSpace(accountID); accountID != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID), nil
	}
	return "", errors.New("storage: missing R2 endpoint or account id")
}

// NewR2Storage Cloudflare R2 走 S3 兼容接口，强制 path-style
func NewR2Storage(cfg config.Config) (Storage, error) {
	if strings.TrimSpace(cfg.ArchiveR2Bucket) == "" {
		return nil, errors.New("storage: missing R2 bucket")
	}
	endpoint, err := r2Endpoint(cfg.ArchiveR2Endpoint, cfg.ArchiveR2AccountID)
	if err != nil {
		return nil, err
	}
	region := strings.TrimSpace(cfg.ArchiveR2Region)
	if region == "" {
		region = r2DefaultRegion
	}
	store, err := newRemoteS3Storage("R2", cfg.ArchiveR2Bucket, cfg.ArchiveR2Prefix, s3ClientOptions{
		Region:          region,
		Endpoint:        endpoint,
		AccessKeyID:     cfg.ArchiveR2AccessKeyID,
		SecretAccessKey: cfg.ArchiveR2SecretAccessKey,
		ForcePathStyle:  true,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
