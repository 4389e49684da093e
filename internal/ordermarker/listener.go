package ordermarker

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxbridge/internal/events"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

// Listener propagates the address mismatch flag from raw order write
// payloads into a queryable column. Everything here is best effort; a lookup
// failure reads as "no marker".
type Listener struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewListener(p Params) *Listener {
	return &Listener{
		db:  p.DB,
		log: p.Log.Named("ordermarker"),
	}
}

// OnOrderWritten records the mismatch flag for every order in the event.
func (l *Listener) OnOrderWritten(ctx context.Context, ev events.OrderWrittenEvent) {
	for _, write := range ev.Orders {
		if write.OrderID == 0 {
			continue
		}
		marker := OrderMarker{
			OrderID:         write.OrderID,
			ChannelID:       ev.ChannelID,
			AddressMismatch: mismatchFromPayload(write.Payload),
			UpdatedAt:       time.Now().UTC(),
		}
		err := l.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"address_mismatch", "updated_at"}),
			}).
			Create(&marker).Error
		if err != nil {
			l.log.Warn("order marker write failed",
				zap.String("order_id", write.OrderID.String()),
				zap.Error(err),
			)
		}
	}
}

// HasMismatch reports whether an order carries the mismatch marker. Lookup
// failures default to false.
func (l *Listener) HasMismatch(ctx context.Context, orderID snowflake.ID) bool {
	var marker OrderMarker
	err := l.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&marker).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.log.Warn("order marker lookup failed",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
		}
		return false
	}
	return marker.AddressMismatch
}

func mismatchFromPayload(payload map[string]any) bool {
	if payload == nil {
		return false
	}
	switch v := payload[payloadKeyAddressMismatch].(type) {
	case bool:
		return v
	case string:
		return v == "1" || v == "true"
	case float64:
		return v != 0
	default:
		return false
	}
}

var Module = fx.Module("ordermarker",
	fx.Provide(NewListener),
)
