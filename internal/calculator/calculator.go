package calculator

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxbridge/internal/checkout"
)

var (
	ErrCalculatorNotFound = errors.New("calculator_not_found")
	ErrEmptyBatch         = errors.New("empty_batch")
)

// RequestItem is one line item of a batched calculation request. IDs are the
// platform's product references, not line item ids.
type RequestItem struct {
	ID        string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// Response is a provider's answer for one batch. Amounts is keyed by the
// request item id. ShippingTax and Rate are nil when the provider did not
// report them.
type Response struct {
	Amounts     map[string]decimal.Decimal
	ShippingTax *decimal.Decimal
	Rate        *decimal.Decimal
}

// Empty reports whether the response carries nothing to reconcile.
func (r Response) Empty() bool {
	return len(r.Amounts) == 0
}

// Calculator computes taxes for one batch of line items through an external
// service. The cart is passed read-only for context such as shipping costs.
type Calculator interface {
	Name() string
	Calculate(ctx context.Context, channelID string, items []RequestItem, cart *checkout.Cart) (Response, error)
}
