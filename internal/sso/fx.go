package sso

import (
	"github.com/smallbiznis/orgkeeper/internal/sso/repository"
	"github.com/smallbiznis/orgkeeper/internal/sso/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sso.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
