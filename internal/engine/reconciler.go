package engine

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxbridge/internal/calculator"
	"github.com/smallbiznis/taxbridge/internal/checkout"
)

var oneHundred = decimal.NewFromInt(100)

// Reconcile merges one group's provider response into the cart in place and
// returns the number of line items whose tax was replaced.
//
// The shipping tax delta (provider shipping tax minus the shipping tax the
// platform had already computed) is folded into exactly one line item: the
// first product line item in cart order with a matching response entry. The
// remaining carry-over is threaded through the loop as an explicit value and
// zeroed on first use, so the one-time consumption is visible in the data
// flow rather than hidden in a shared flag.
//
// When a line item carries more than one calculated tax entry, every entry
// receives the full provider amount. Splitting across brackets is not
// attempted; this mirrors the upstream integration's behavior and is kept
// for compatibility.
func Reconcile(resp calculator.Response, cart *checkout.Cart, original *checkout.Cart) int {
	if resp.Empty() || cart == nil {
		return 0
	}

	shippingTax := decimal.Zero
	if resp.ShippingTax != nil {
		shippingTax = *resp.ShippingTax
	}

	// Baseline from the pre-mutation cart: a previous group may already have
	// zeroed the live cart's shipping taxes.
	methodTax := decimal.Zero
	if original != nil {
		methodTax = original.Shipping.TaxAmount()
	}

	carry := shippingTax
	reconciled := 0

	for _, item := range cart.ProductLineItems() {
		amount, ok := resp.Amounts[item.ReferencedID]
		if !ok || item.Price == nil {
			continue
		}

		matched := false
		for _, entry := range item.Price.CalculatedTaxes {
			if entry == nil {
				continue
			}

			lineAmount := amount
			if !carry.IsZero() {
				lineAmount = lineAmount.Add(carry.Sub(methodTax))
				carry = decimal.Zero
			}

			entry.Amount = lineAmount
			if resp.Rate != nil {
				entry.Rate = resp.Rate.Mul(oneHundred).Round(2)
			}
			matched = true
		}
		if matched {
			reconciled++
		}
	}

	// The provider reported shipping tax and it was folded into a line item;
	// the shipping cost must not keep charging it a second time.
	if resp.ShippingTax != nil && !resp.ShippingTax.IsZero() && cart.Shipping != nil {
		for _, entry := range cart.Shipping.CalculatedTaxes {
			if entry != nil {
				entry.Amount = decimal.Zero
			}
		}
	}

	return reconciled
}

// BroadcastRate stamps the provider's fractional rate onto every line item's
// payload, product or not, so downstream consumers can read the applied rate.
func BroadcastRate(cart *checkout.Cart, rate decimal.Decimal) {
	if cart == nil || rate.IsZero() {
		return
	}
	for _, item := range cart.LineItems {
		item.SetPayloadValue(checkout.PayloadKeyTaxJarRate, rate)
	}
}
