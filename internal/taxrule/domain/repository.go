package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository batch-loads reference records. The engine always fetches by id
// list so one checkout pass costs two queries regardless of cart size.
type Repository interface {
	FindRulesByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*TaxRule, error)
	FindProvidersByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*TaxProvider, error)
}
