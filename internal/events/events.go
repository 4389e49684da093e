package events

import (
	"github.com/bwmarrin/snowflake"
)

// CustomerWrittenEvent is the host platform's notification that customer
// entities were written. Source tags where the write originated; only
// administrative writes drive profile sync.
type CustomerWrittenEvent struct {
	ChannelID   snowflake.ID   `json:"channel_id"`
	Source      string         `json:"source"`
	CustomerIDs []snowflake.ID `json:"customer_ids"`
}

// OrderWrite is one affected order in an order-written event, carrying the
// raw write payload.
type OrderWrite struct {
	OrderID snowflake.ID   `json:"order_id"`
	Payload map[string]any `json:"payload"`
}

// OrderWrittenEvent notifies that order entities were written.
type OrderWrittenEvent struct {
	ChannelID snowflake.ID `json:"channel_id"`
	Source    string       `json:"source"`
	Orders    []OrderWrite `json:"orders"`
}
