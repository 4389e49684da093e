package checkout

import (
	"github.com/shopspring/decimal"
)

// Line item types as the host platform names them.
const (
	LineItemTypeProduct = "product"
	LineItemTypeCustom  = "custom"
	LineItemTypeCredit  = "credit"
)

// Payload keys read and written on line items.
const (
	// PayloadKeyTaxID references the tax rule a product line item is taxed
	// under. The camel-cased key is the platform's, not ours.
	PayloadKeyTaxID = "taxId"

	// PayloadKeyTaxJarRate is the fractional rate stamped back onto line
	// items after a successful calculation.
	PayloadKeyTaxJarRate = "taxJarRate"
)

// CalculatedTax is one tax entry on a price. Rate is a percentage, Amount an
// absolute value in the cart currency.
type CalculatedTax struct {
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Price carries the platform's calculated price for a line item or shipping
// cost, including its tax entries.
type Price struct {
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	TotalPrice      decimal.Decimal  `json:"total_price"`
	Quantity        int              `json:"quantity"`
	CalculatedTaxes []*CalculatedTax `json:"calculated_taxes"`
}

// LineItem is one entry in the cart. Payload is the platform's untyped
// key/value bag attached to each item.
type LineItem struct {
	ID           string         `json:"id"`
	ReferencedID string         `json:"referenced_id"`
	Type         string         `json:"type"`
	Label        string         `json:"label"`
	Payload      map[string]any `json:"payload,omitempty"`
	Price        *Price         `json:"price,omitempty"`
}

// TaxRuleID returns the tax rule reference from the item payload, or "" when
// the item carries none.
func (li *LineItem) TaxRuleID() string {
	if li == nil || li.Payload == nil {
		return ""
	}
	id, _ := li.Payload[PayloadKeyTaxID].(string)
	return id
}

// SetPayloadValue writes a payload entry, allocating the map when the
// platform sent the item without one.
func (li *LineItem) SetPayloadValue(key string, value any) {
	if li == nil {
		return
	}
	if li.Payload == nil {
		li.Payload = map[string]any{}
	}
	li.Payload[key] = value
}

// ShippingCost is the cart's delivery cost with its own tax entries.
type ShippingCost struct {
	TotalPrice      decimal.Decimal  `json:"total_price"`
	CalculatedTaxes []*CalculatedTax `json:"calculated_taxes"`
}

// TaxAmount sums the shipping cost's tax entries.
func (s *ShippingCost) TaxAmount() decimal.Decimal {
	total := decimal.Zero
	if s == nil {
		return total
	}
	for _, entry := range s.CalculatedTaxes {
		if entry != nil {
			total = total.Add(entry.Amount)
		}
	}
	return total
}

// Cart mirrors the host platform's cart for one calculation pass.
type Cart struct {
	Token     string        `json:"token"`
	LineItems []*LineItem   `json:"line_items"`
	Shipping  *ShippingCost `json:"shipping,omitempty"`
}

// ProductLineItems returns the product-typed items in cart order.
func (c *Cart) ProductLineItems() []*LineItem {
	if c == nil {
		return nil
	}
	items := make([]*LineItem, 0, len(c.LineItems))
	for _, item := range c.LineItems {
		if item != nil && item.Type == LineItemTypeProduct {
			items = append(items, item)
		}
	}
	return items
}

// Clone deep-copies the cart so a snapshot survives in-place reconciliation.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}

	clone := &Cart{Token: c.Token}

	if c.LineItems != nil {
		clone.LineItems = make([]*LineItem, 0, len(c.LineItems))
		for _, item := range c.LineItems {
			clone.LineItems = append(clone.LineItems, item.clone())
		}
	}

	if c.Shipping != nil {
		clone.Shipping = &ShippingCost{
			TotalPrice:      c.Shipping.TotalPrice,
			CalculatedTaxes: cloneTaxes(c.Shipping.CalculatedTaxes),
		}
	}

	return clone
}

func (li *LineItem) clone() *LineItem {
	if li == nil {
		return nil
	}

	clone := &LineItem{
		ID:           li.ID,
		ReferencedID: li.ReferencedID,
		Type:         li.Type,
		Label:        li.Label,
	}

	if li.Payload != nil {
		clone.Payload = make(map[string]any, len(li.Payload))
		for key, value := range li.Payload {
			clone.Payload[key] = value
		}
	}

	if li.Price != nil {
		clone.Price = &Price{
			UnitPrice:       li.Price.UnitPrice,
			TotalPrice:      li.Price.TotalPrice,
			Quantity:        li.Price.Quantity,
			CalculatedTaxes: cloneTaxes(li.Price.CalculatedTaxes),
		}
	}

	return clone
}

func cloneTaxes(taxes []*CalculatedTax) []*CalculatedTax {
	if taxes == nil {
		return nil
	}
	out := make([]*CalculatedTax, 0, len(taxes))
	for _, entry := range taxes {
		if entry == nil {
			out = append(out, nil)
			continue
		}
		copied := *entry
		out = append(out, &copied)
	}
	return out
}
