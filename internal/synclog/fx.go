package synclog

import (
	"github.com/smallbiznis/taxbridge/internal/synclog/domain"
	"github.com/smallbiznis/taxbridge/internal/synclog/repository"
	"github.com/smallbiznis/taxbridge/internal/synclog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("synclog",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(svc domain.Service) domain.Recorder { return svc }),
)
