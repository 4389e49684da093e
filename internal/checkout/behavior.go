package checkout

// Behavior carries the host platform's flags for one cart-processing pass.
type Behavior struct {
	// SkipExternalTax leaves the platform's own tax figures untouched, e.g.
	// during recalculations that must not hit the external service.
	SkipExternalTax bool `json:"skip_external_tax"`
}
