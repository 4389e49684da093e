package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxbridge/internal/taxrule/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindRulesByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.TaxRule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rules []*domain.TaxRule
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) FindProvidersByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.TaxProvider, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var providers []*domain.TaxProvider
	err := db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}
