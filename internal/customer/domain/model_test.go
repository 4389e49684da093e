package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestTaxFieldsDecodesLooseTypes(t *testing.T) {
	customer := &Customer{
		CustomFields: datatypes.JSONMap{
			CustomFieldExemptionType:    " wholesale ",
			CustomFieldExemptRegions:    []any{"tx", 7, "ny"},
			CustomFieldTaxJarCustomerID: "ext-1",
		},
	}

	fields := customer.TaxFields()
	assert.Equal(t, "wholesale", fields.ExemptionType)
	assert.Equal(t, []string{"tx", "ny"}, fields.ExemptRegions)
	assert.Equal(t, "ext-1", fields.TaxJarCustomerID)
}

func TestTaxFieldsHandlesStringSlice(t *testing.T) {
	customer := &Customer{
		CustomFields: datatypes.JSONMap{
			CustomFieldExemptRegions: []string{"ca"},
		},
	}
	assert.Equal(t, []string{"ca"}, customer.TaxFields().ExemptRegions)
}

func TestTaxFieldsEmpty(t *testing.T) {
	assert.Empty(t, (&Customer{}).TaxFields().ExemptionType)
	assert.Empty(t, (*Customer)(nil).TaxFields().ExemptionType)
}

func TestFullNameTrims(t *testing.T) {
	customer := &Customer{FirstName: "  Jordan ", LastName: " Smith "}
	assert.Equal(t, "Jordan Smith", customer.FullName())

	onlyFirst := &Customer{FirstName: "Jordan"}
	assert.Equal(t, "Jordan", onlyFirst.FullName())
}
