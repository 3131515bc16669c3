package membership

import (
	"github.com/smallbiznis/orgkeeper/internal/membership/repository"
	"github.com/smallbiznis/orgkeeper/internal/membership/service"
	"go.uber.org/fx"
)

var Module = fx.Module("membership.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
