package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxbridge/internal/customer/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.Customer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var customers []*domain.Customer
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) MergeCustomFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer domain.Customer
		if err := tx.Where("id = ?", id).First(&customer).Error; err != nil {
			return err
		}

		merged := datatypes.JSONMap{}
		for k, v := range customer.CustomFields {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}

		return tx.Model(&domain.Customer{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"custom_fields": merged,
				"updated_at":    time.Now().UTC(),
			}).Error
	})
}
