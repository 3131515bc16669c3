package invite

import (
	"github.com/smallbiznis/orgkeeper/internal/invite/repository"
	"github.com/smallbiznis/orgkeeper/internal/invite/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invite.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
