package engine

import (
	"strings"

	"github.com/smallbiznis/taxbridge/internal/calculator"
	taxruledomain "github.com/smallbiznis/taxbridge/internal/taxrule/domain"
)

// Resolver maps a tax rule to the calculator serving it. Every miss along the
// chain (unknown rule, rule without provider, unknown provider, unregistered
// calculator) is a soft skip: the host platform's own tax figures stand.
type Resolver struct {
	registry *calculator.Registry
}

func NewResolver(registry *calculator.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns the calculator for taxRuleID, or false when the chain does
// not resolve. Lookups run against prefetched maps keyed by id string.
func (r *Resolver) Resolve(taxRuleID string, rules map[string]*taxruledomain.TaxRule, providers map[string]*taxruledomain.TaxProvider) (calculator.Calculator, bool) {
	if strings.TrimSpace(taxRuleID) == "" {
		return nil, false
	}

	rule, ok := rules[taxRuleID]
	if !ok || rule == nil || rule.ProviderID == nil {
		return nil, false
	}

	provider, ok := providers[rule.ProviderID.String()]
	if !ok || provider == nil {
		return nil, false
	}

	name := strings.TrimSpace(provider.CalculatorName)
	if name == "" {
		return nil, false
	}

	return r.registry.Lookup(name)
}
