package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/authorization"
	"github.com/smallbiznis/orgkeeper/internal/clock"
	"github.com/smallbiznis/orgkeeper/internal/config"
	"github.com/smallbiznis/orgkeeper/internal/event"
	"github.com/smallbiznis/orgkeeper/internal/invite"
	"github.com/smallbiznis/orgkeeper/internal/manager"
	"github.com/smallbiznis/orgkeeper/internal/membership"
	"github.com/smallbiznis/orgkeeper/internal/migration"
	"github.com/smallbiznis/orgkeeper/internal/orglock"
	"github.com/smallbiznis/orgkeeper/internal/organization"
	"github.com/smallbiznis/orgkeeper/internal/orgsettings"
	"github.com/smallbiznis/orgkeeper/internal/slug"
	"github.com/smallbiznis/orgkeeper/internal/sso"
	"github.com/smallbiznis/orgkeeper/internal/user"
	"github.com/smallbiznis/orgkeeper/pkg/db"
	"github.com/smallbiznis/orgkeeper/pkg/log"
	"github.com/smallbiznis/orgkeeper/pkg/secret"
	"github.com/smallbiznis/orgkeeper/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	fx.New(options()...).Run()
}

func options() []fx.Option {
	return []fx.Option{
		// Core Infrastructure
		config.Module,
		log.Module,
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		telemetry.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		secret.Module,
		migration.Module,

		// Functional Domains
		event.Module,
		slug.Module,
		user.Module,
		organization.Module,
		membership.Module,
		invite.Module,
		orgsettings.Module,
		sso.Module,
		orglock.Module,
		authorization.Module,
		manager.Module,

		fx.Invoke(func(*manager.Manager) {}),
	}
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
