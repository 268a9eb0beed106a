package storage

import (
	"accounts/internal/config"
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// TypeNone 表示不归档。
	TypeNone = "none"
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeS3 表示 Amazon S3 或兼容的存储后端。
	TypeS3 = "s3"
	// TypeOSS 表示阿里云 OSS 存储。
	TypeOSS = "oss"
	// TypeCOS 表示腾讯云 COS 存储。
	TypeCOS = "cos"
	// TypeR2 表示 Cloudflare R2 存储。
	TypeR2 = "r2"
)

// PutOptions 控制对象的存放位置。
//
// Category 是顶层目录（例如 mail），BaseName 是文件名主体，Extension 不含前导点。
// At 决定日期目录，零值时使用当前 UTC 时间。
type PutOptions struct {
	Category  string
	BaseName  string
	Extension string
	At        time.Time
}

// Storage 持久化一个对象并返回其在后端中的 key。
type Storage interface {
	Put(ctx context.Context, data []byte, opts PutOptions) (string, error)
}

// NewStorage 根据配置实例化归档后端。ARCHIVE_TYPE 为空或 none 时返回 nil。
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.ArchiveType))
	switch typeName {
	case "", TypeNone:
		return nil, nil
	case TypeLocal:
		return NewLocalStorage(cfg.ArchiveLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", cfg.ArchiveType)
	}
}

func checkPayload(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return errEmptyPayload
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
