package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not_found")

type Repository interface {
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*Customer, error)
	// MergeCustomFields merges the given entries into the customer's custom
	// field map without replacing unrelated keys.
	MergeCustomFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
}
