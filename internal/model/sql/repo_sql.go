package sql

import (
	"accounts/internal/entity"
	"context"
	"errors"

	"gorm.io/gorm"
)

var errRepositoryNotReady = errors.New("repository not initialised")

// GormRepository 基于 GORM 的账户仓储
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// conn 返回绑定了请求上下文的会话；仓储未初始化时报错
func (r *GormRepository) conn(ctx context.Context) (*gorm.DB, error) {
	if r == nil || r.db == nil {
		return nil, errRepositoryNotReady
	}
	return r.db.WithContext(ctx), nil
}

// users scopes a session to the account table.
func (r *GormRepository) users(ctx context.Context) (*gorm.DB, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	return db.Model(&entity.DbUser{}), nil
}

// pageWindow 归一化分页参数。pageSize 为 0 表示不分页，返回全部记录
type pageWindow struct {
	page     int
	pageSize int
}

func newPageWindow(params entity.BaseParams) pageWindow {
	w := pageWindow{page: 1}
	if !params.Paginated() {
		return w
	}
	w.pageSize = int(params.PageSize)
	if params.Page > 0 {
		w.page = int(params.Page)
	}
	return w
}

// scope 作为 gorm Scopes 使用
func (w pageWindow) scope(db *gorm.DB) *gorm.DB {
	if w.pageSize <= 0 {
		return db
	}
	return db.Offset((w.page - 1) * w.pageSize).Limit(w.pageSize)
}

// meta 未分页时 page_size 等于总数
func (w pageWindow) meta(total int64) *entity.Meta {
	size := int64(w.pageSize)
	if size <= 0 {
		size = total
	}
	return &entity.Meta{
		Total:    total,
		Page:     int64(w.page),
		PageSize: size,
	}
}
