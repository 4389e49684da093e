package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TaxRule is a host platform reference record identifying a taxable category.
// ProviderID links the rule to the external provider that computes it; rules
// without a provider keep the platform's own tax figures.
type TaxRule struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	ChannelID  snowflake.ID  `gorm:"not null;index" json:"channel_id"`
	Name       string        `gorm:"type:text;not null" json:"name"`
	ProviderID *snowflake.ID `gorm:"index" json:"provider_id,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (TaxRule) TableName() string { return "tax_rules" }

// TaxProvider names the calculator implementation serving a tax rule.
type TaxProvider struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Code           string       `gorm:"type:text;not null" json:"code"`
	CalculatorName string       `gorm:"column:calculator_name;type:text;not null" json:"calculator_name"`
	Active         bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (TaxProvider) TableName() string { return "tax_providers" }
