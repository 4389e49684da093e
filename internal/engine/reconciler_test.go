package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxbridge/internal/calculator"
	"github.com/smallbiznis/taxbridge/internal/checkout"
	"github.com/stretchr/testify/assert"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func productItem(ref, taxRuleID, taxAmount string) *checkout.LineItem {
	return &checkout.LineItem{
		ID:           "line-" + ref,
		ReferencedID: ref,
		Type:         checkout.LineItemTypeProduct,
		Payload:      map[string]any{checkout.PayloadKeyTaxID: taxRuleID},
		Price: &checkout.Price{
			UnitPrice:  dec("100"),
			TotalPrice: dec("100"),
			Quantity:   1,
			CalculatedTaxes: []*checkout.CalculatedTax{
				{Rate: dec("19"), Amount: dec(taxAmount)},
			},
		},
	}
}

func cartWithShipping(shippingTax string, items ...*checkout.LineItem) *checkout.Cart {
	return &checkout.Cart{
		Token:     "cart-token",
		LineItems: items,
		Shipping: &checkout.ShippingCost{
			TotalPrice: dec("10"),
			CalculatedTaxes: []*checkout.CalculatedTax{
				{Rate: dec("19"), Amount: dec(shippingTax)},
			},
		},
	}
}

func TestReconcileFoldsShippingTaxIntoFirstMatchedItem(t *testing.T) {
	cart := cartWithShipping("2",
		productItem("P1", "1", "10"),
		productItem("P2", "1", "5"),
	)
	original := cart.Clone()

	resp := calculator.Response{
		Amounts: map[string]decimal.Decimal{
			"P1": dec("100"),
			"P2": dec("50"),
		},
		ShippingTax: decPtr("12"),
	}

	reconciled := Reconcile(resp, cart, original)
	assert.Equal(t, 2, reconciled)

	// First matched item absorbs provider shipping tax minus the platform's
	// own shipping tax: 100 + (12 - 2).
	assert.Equal(t, "110", cart.LineItems[0].Price.CalculatedTaxes[0].Amount.String())
	assert.Equal(t, "50", cart.LineItems[1].Price.CalculatedTaxes[0].Amount.String())

	// The shipping cost no longer charges its own tax.
	assert.Equal(t, "0", cart.Shipping.CalculatedTaxes[0].Amount.String())
}

func TestReconcileCarryOverConsumedOnce(t *testing.T) {
	cart := cartWithShipping("0",
		productItem("P1", "1", "1"),
		productItem("P2", "1", "1"),
		productItem("P3", "1", "1"),
	)
	original := cart.Clone()

	resp := calculator.Response{
		Amounts: map[string]decimal.Decimal{
			"P1": dec("10"),
			"P2": dec("20"),
			"P3": dec("30"),
		},
		ShippingTax: decPtr("5"),
	}

	Reconcile(resp, cart, original)

	assert.Equal(t, "15", cart.LineItems[0].Price.CalculatedTaxes[0].Amount.String())
	assert.Equal(t, "20", cart.LineItems[1].Price.CalculatedTaxes[0].Amount.String())
	assert.Equal(t, "30", cart.LineItems[2].Price.CalculatedTaxes[0].Amount.String())
}

func TestReconcileCarrySkipsUnmatchedItems(t *testing.T) {
	cart := cartWithShipping("0",
		productItem("P1", "1", "1"),
		productItem("P2", "1", "1"),
	)
	original := cart.Clone()

	// P1 has no response entry, so P2 is the first matched item and absorbs
	// the carry-over.
	resp := calculator.Response{
		Amounts: map[string]decimal.Decimal{
			"P2": dec("20"),
		},
		ShippingTax: decPtr("3"),
	}

	reconciled := Reconcile(resp, cart, original)
	assert.Equal(t, 1, reconciled)
	assert.Equal(t, "1", cart.LineItems[0].Price.CalculatedTaxes[0].Amount.String())
	assert.Equal(t, "23", cart.LineItems[1].Price.CalculatedTaxes[0].Amount.String())
}

func TestReconcileZeroShippingTaxLeavesShippingAlone(t *testing.T) {
	cart := cartWithShipping("2", productItem("P1", "1", "10"))
	original := cart.Clone()

	resp := calculator.Response{
		Amounts:     map[string]decimal.Decimal{"P1": dec("100")},
		ShippingTax: decPtr("0"),
	}

	Reconcile(resp, cart, original)

	assert.Equal(t, "100", cart.LineItems[0].Price.CalculatedTaxes[0].Amount.String())
	assert.Equal(t, "2", cart.Shipping.CalculatedTaxes[0].Amount.String())
}

func TestReconcileNoShippingTaxReported(t *testing.T) {
	cart := cartWithShipping("2", productItem("P1", "1", "10"))
	original := cart.Clone()

	resp := calculator.Response{
		Amounts: map[string]decimal.Decimal{"P1": dec("100")},
	}

	Reconcile(resp, cart, original)

	assert.Equal(t, "100", cart.LineItems[0].Price.CalculatedTaxes[0].Amount.String())
	assert.Equal(t, "2", cart.Shipping.CalculatedTaxes[0].Amount.String())
}

func TestReconcileOverridesRateAsPercentage(t *testing.T) {
	cart := cartWithShipping("0", productItem("P1", "1", "10"))
	original := cart.Clone()

	resp := calculator.Response{
		Amounts: map[string]decimal.Decimal{"P1": dec("8.25")},
		Rate:    decPtr("0.0825"),
	}

	Reconcile(resp, cart, original)

	entry := cart.LineItems[0].Price.CalculatedTaxes[0]
	assert.Equal(t, "8.25", entry.Rate.String())
	assert.Equal(t, "8.25", entry.Amount.String())
}

func TestReconcileMultipleTaxEntriesGetFullAmount(t *testing.T) {
	item := productItem("P1", "1", "10")
	item.Price.CalculatedTaxes = append(item.Price.CalculatedTaxes,
		&checkout.CalculatedTax{Rate: dec("7"), Amount: dec("3")})
	cart := cartWithShipping("0", item)
	original := cart.Clone()

	resp := calculator.Response{
		Amounts: map[string]decimal.Decimal{"P1": dec("42")},
	}

	reconciled := Reconcile(resp, cart, original)
	assert.Equal(t, 1, reconciled)
	assert.Equal(t, "42", item.Price.CalculatedTaxes[0].Amount.String())
	assert.Equal(t, "42", item.Price.CalculatedTaxes[1].Amount.String())
}

func TestReconcileEmptyResponseIsNoop(t *testing.T) {
	cart := cartWithShipping("2", productItem("P1", "1", "10"))

	reconciled := Reconcile(calculator.Response{}, cart, cart.Clone())

	assert.Equal(t, 0, reconciled)
	assert.Equal(t, "10", cart.LineItems[0].Price.CalculatedTaxes[0].Amount.String())
}

func TestBroadcastRateStampsEveryLineItem(t *testing.T) {
	custom := &checkout.LineItem{
		ID:   "line-custom",
		Type: checkout.LineItemTypeCustom,
	}
	cart := cartWithShipping("0", productItem("P1", "1", "10"), custom)

	BroadcastRate(cart, dec("0.0825"))

	for _, item := range cart.LineItems {
		rate, ok := item.Payload[checkout.PayloadKeyTaxJarRate].(decimal.Decimal)
		assert.True(t, ok)
		assert.Equal(t, "0.0825", rate.String())
	}
}

func TestBroadcastRateZeroIsNoop(t *testing.T) {
	custom := &checkout.LineItem{ID: "line-custom", Type: checkout.LineItemTypeCustom}
	cart := cartWithShipping("0", custom)

	BroadcastRate(cart, decimal.Zero)

	assert.Nil(t, custom.Payload)
}
