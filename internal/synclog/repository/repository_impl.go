package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/taxbridge/internal/synclog/domain"
	"github.com/smallbiznis/taxbridge/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.SyncLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.SyncLog, error) {
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.SyncLog{}), filter)

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor.CreatedAt != "" {
			if createdAt, err := time.Parse(time.RFC3339, cursor.CreatedAt); err == nil {
				stmt = stmt.Where("(created_at, id) < (?, ?)", createdAt, cursor.ID)
			}
		}
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}

	var logs []*domain.SyncLog
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.SyncLog, error) {
	var logs []*domain.SyncLog
	err := applyFilter(db.WithContext(ctx).Model(&domain.SyncLog{}), filter).
		Order("created_at desc, id desc").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func applyFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	return stmt
}
