package calculator

import (
	"net/http"

	taxjarapi "github.com/smallbiznis/taxbridge/internal/taxjar"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RegistryParams collects every calculator variant registered into the
// "calculators" group by its own module.
type RegistryParams struct {
	fx.In

	Calculators []Calculator `group:"calculators"`
}

func ProvideRegistry(p RegistryParams) *Registry {
	return NewRegistry(p.Calculators...)
}

var Module = fx.Module("calculator",
	fx.Provide(func(log *zap.Logger) *taxjarapi.Client {
		return taxjarapi.NewClient(&http.Client{}, log)
	}),
	fx.Provide(ProvideRegistry),
)
