package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxbridge/pkg/db/pagination"
	"gorm.io/gorm"
)

// Log kinds.
const (
	KindTaxCalculation = "tax_calculation"
	KindProfileSync    = "profile_sync"
	KindOrderMarker    = "order_marker"
)

// Log statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// SyncLog records one interaction with the external tax service. Writes are
// best effort; a failed log write never fails the operation it describes.
type SyncLog struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	ChannelID    snowflake.ID `gorm:"index" json:"channel_id"`
	Kind         string       `gorm:"type:text;not null;index" json:"kind"`
	ReferenceID  string       `gorm:"type:text;not null" json:"reference_id"`
	Status       string       `gorm:"type:text;not null;index" json:"status"`
	Message      string       `gorm:"type:text" json:"message"`
	ResponseCode int          `gorm:"not null;default:0" json:"response_code"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SyncLog) TableName() string { return "sync_logs" }

type ListFilter struct {
	Kind   string
	Status string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *SyncLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*SyncLog, error)
	ListAll(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*SyncLog, error)
}

// Recorder is the write-side interface handed to the engine and syncer.
type Recorder interface {
	Record(ctx context.Context, entry SyncLog)
}

type ListRequest struct {
	Kind      string
	Status    string
	PageToken string
	PageSize  int
}

type ListResponse struct {
	pagination.PageInfo
	Logs []SyncLog `json:"logs"`
}

type Service interface {
	Recorder
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	ExportCSV(ctx context.Context, filter ListFilter) ([]byte, error)
}
