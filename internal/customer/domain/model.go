package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Custom field keys on the host platform's customer entity.
const (
	CustomFieldExemptionType    = "taxjar_exemption_type"
	CustomFieldExemptRegions    = "exempt_regions"
	CustomFieldTaxJarCustomerID = "taxjar_customer_id"
)

// Write event sources. Only administrative writes trigger a profile sync.
const (
	SourceAdmin      = "admin"
	SourceStorefront = "storefront"
)

// Customer mirrors the host platform's customer entity. CustomFields is the
// platform's untyped key/value bag; TaxFields decodes the entries this system
// cares about once per read.
type Customer struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	ChannelID    snowflake.ID      `gorm:"not null;index" json:"channel_id"`
	FirstName    string            `gorm:"type:text;not null" json:"first_name"`
	LastName     string            `gorm:"type:text;not null" json:"last_name"`
	Email        string            `gorm:"type:text;not null" json:"email"`
	CustomFields datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"custom_fields,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

// FullName joins first and last name, trimmed.
func (c *Customer) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// TaxFields is the typed view over the custom field entries used for profile
// sync. A zero ExemptionType means the customer is not exempt and is skipped.
type TaxFields struct {
	ExemptionType    string
	ExemptRegions    []string
	TaxJarCustomerID string
}

// TaxFields decodes the loosely typed custom field map. Region lists arrive
// either as []string or as []any depending on how the platform serialized
// them; both are accepted.
func (c *Customer) TaxFields() TaxFields {
	fields := TaxFields{}
	if c == nil || c.CustomFields == nil {
		return fields
	}

	if v, ok := c.CustomFields[CustomFieldExemptionType].(string); ok {
		fields.ExemptionType = strings.TrimSpace(v)
	}
	if v, ok := c.CustomFields[CustomFieldTaxJarCustomerID].(string); ok {
		fields.TaxJarCustomerID = strings.TrimSpace(v)
	}

	switch regions := c.CustomFields[CustomFieldExemptRegions].(type) {
	case []string:
		fields.ExemptRegions = regions
	case []any:
		for _, region := range regions {
			if code, ok := region.(string); ok {
				fields.ExemptRegions = append(fields.ExemptRegions, code)
			}
		}
	}

	return fields
}
