package orgsettings

import (
	"github.com/smallbiznis/orgkeeper/internal/orgsettings/repository"
	"github.com/smallbiznis/orgkeeper/internal/orgsettings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("orgsettings.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
