package taxrule

import (
	"github.com/smallbiznis/taxbridge/internal/taxrule/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("taxrule",
	fx.Provide(repository.Provide),
)
