package engine

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxbridge/internal/calculator"
	"github.com/smallbiznis/taxbridge/internal/checkout"
)

// GroupLineItems partitions the cart's product line items into one request
// batch per tax rule. Items without a tax rule reference are excluded; their
// upstream tax stands. Insertion order within a group follows cart order,
// which later decides which line item absorbs the shipping tax carry-over.
func GroupLineItems(cart *checkout.Cart) map[string][]calculator.RequestItem {
	groups := map[string][]calculator.RequestItem{}
	if cart == nil {
		return groups
	}

	for _, item := range cart.ProductLineItems() {
		taxRuleID := item.TaxRuleID()
		if taxRuleID == "" || item.Price == nil {
			continue
		}
		groups[taxRuleID] = append(groups[taxRuleID], calculator.RequestItem{
			ID:        item.ReferencedID,
			Quantity:  item.Price.Quantity,
			UnitPrice: item.Price.UnitPrice,
			Discount:  decimal.Zero,
		})
	}

	return groups
}
