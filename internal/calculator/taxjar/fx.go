package taxjar

import (
	"github.com/smallbiznis/taxbridge/internal/calculator"
	"go.uber.org/fx"
)

var Module = fx.Module("calculator.taxjar",
	fx.Provide(
		fx.Annotate(
			New,
			fx.As(new(calculator.Calculator)),
			fx.ResultTags(`group:"calculators"`),
		),
	),
)
