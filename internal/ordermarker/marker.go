package ordermarker

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Payload key the host platform sets when billing and shipping addresses
// diverge on an order write.
const payloadKeyAddressMismatch = "addressMismatch"

// OrderMarker is the structured mirror of the address mismatch flag.
type OrderMarker struct {
	OrderID         snowflake.ID `gorm:"primaryKey" json:"order_id"`
	ChannelID       snowflake.ID `gorm:"index" json:"channel_id"`
	AddressMismatch bool         `gorm:"not null;default:false" json:"address_mismatch"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (OrderMarker) TableName() string { return "order_markers" }
