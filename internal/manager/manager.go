// Package manager composes the organization, membership, invite, settings and SSO
// stores into the operations exposed to callers.
package manager

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/orgkeeper/internal/authorization"
	"github.com/smallbiznis/orgkeeper/internal/clock"
	"github.com/smallbiznis/orgkeeper/internal/config"
	invitedomain "github.com/smallbiznis/orgkeeper/internal/invite/domain"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	"github.com/smallbiznis/orgkeeper/internal/orglock"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	settingsdomain "github.com/smallbiznis/orgkeeper/internal/orgsettings/domain"
	ssodomain "github.com/smallbiznis/orgkeeper/internal/sso/domain"
	userdomain "github.com/smallbiznis/orgkeeper/internal/user/domain"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"github.com/smallbiznis/orgkeeper/pkg/log/ctxlogger"
	"github.com/smallbiznis/orgkeeper/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tracerName = "github.com/smallbiznis/orgkeeper/internal/manager"

var Module = fx.Module("manager",
	fx.Provide(New),
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	Policy        *config.PolicyHolder
	Locker        orglock.Locker
	Authorizer    *authorization.Authorizer
	Metrics       *telemetry.Metrics `optional:"true"`
	Organizations orgdomain.Service
	Members       memberdomain.Service
	Invites       invitedomain.Service
	Settings      settingsdomain.Service
	SSO           ssodomain.Service
	Users         userdomain.Repository
}

type Manager struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	policy     *config.PolicyHolder
	locker     orglock.Locker
	authorizer *authorization.Authorizer
	metrics    *telemetry.Metrics
	tracer     trace.Tracer

	orgs     orgdomain.Service
	members  memberdomain.Service
	invites  invitedomain.Service
	settings settingsdomain.Service
	sso      ssodomain.Service
	users    userdomain.Repository
}

func New(p Params) *Manager {
	return &Manager{
		db:         p.DB,
		log:        p.Log.Named("manager"),
		clock:      p.Clock,
		policy:     p.Policy,
		locker:     p.Locker,
		authorizer: p.Authorizer,
		metrics:    p.Metrics,
		tracer:     otel.Tracer(tracerName),
		orgs:       p.Organizations,
		members:    p.Members,
		invites:    p.Invites,
		settings:   p.Settings,
		sso:        p.SSO,
		users:      p.Users,
	}
}

// invariants labels the rejections counted by orgkeeper_invariant_rejections_total.
var invariants = []struct {
	err   error
	label string
}{
	{memberdomain.ErrMustRetainOwner, "owner_floor"},
	{orgdomain.ErrSlugTaken, "slug_unique"},
	{invitedomain.ErrInviteExpired, "invite_valid"},
}

// actorAttribute names the span attribute that identifies the acting user.
const actorAttribute attribute.Key = "user_id"

// observe opens a span for op and returns the function that closes it. The closer
// records the outcome metric and logs invariant rejections.
func (m *Manager) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := m.tracer.Start(ctx, "manager."+op, trace.WithAttributes(attrs...))
	if ctxlogger.ActorFromContext(ctx) == "" {
		for _, attr := range attrs {
			if attr.Key == actorAttribute {
				ctx = ctxlogger.ContextWithActor(ctx, attr.Value.AsString())
				break
			}
		}
	}

	return ctx, func(errp *error) {
		err := *errp
		outcome := "ok"
		if err != nil {
			outcome = string(errs.KindOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		m.metrics.ObserveOperation(op, outcome, time.Since(start))

		for _, inv := range invariants {
			if errors.Is(err, inv.err) {
				m.metrics.RecordInvariantRejection(inv.label)
				m.logger(ctx).Warn("operation rejected", zap.String("operation", op), zap.String("invariant", inv.label))
				break
			}
		}
	}
}

// locked runs fn while holding every key, acquired in order.
func (m *Manager) locked(ctx context.Context, keys []string, fn func(context.Context) error) error {
	start := time.Now()
	releases := make([]orglock.Release, 0, len(keys))
	defer func() {
		for i := len(releases) - 1; i >= 0; i-- {
			if err := releases[i](ctx); err != nil {
				m.logger(ctx).Warn("release organization lock", zap.Error(err))
			}
		}
	}()

	for _, key := range keys {
		release, err := m.locker.Lock(ctx, key)
		if err != nil {
			return err
		}
		releases = append(releases, release)
	}
	m.metrics.ObserveLockWait(time.Since(start))

	return fn(ctx)
}

// inTx runs fn in one transaction and translates what escapes it.
func (m *Manager) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return errs.FromDB(m.db.WithContext(ctx).Transaction(fn))
}

func (m *Manager) logger(ctx context.Context) *zap.Logger {
	return ctxlogger.WithContext(ctx, m.log)
}
