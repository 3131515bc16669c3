package event

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/clock"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var Module = fx.Module("event",
	fx.Provide(NewOutboxPublisher),
)

type Publisher interface {
	WithTx(tx *gorm.DB) Publisher
	Publish(ctx context.Context, orgID snowflake.ID, topic string, payload map[string]any) error
}

type outboxPublisher struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func NewOutboxPublisher(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) Publisher {
	return &outboxPublisher{
		db:    db,
		genID: genID,
		clock: clk,
	}
}

func (p *outboxPublisher) WithTx(tx *gorm.DB) Publisher {
	return &outboxPublisher{db: tx, genID: p.genID, clock: p.clock}
}

func (p *outboxPublisher) Publish(ctx context.Context, orgID snowflake.ID, topic string, payload map[string]any) error {
	if orgID == 0 {
		return errors.New("missing organization_id")
	}
	if topic == "" {
		return errors.New("missing topic")
	}

	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["organization_id"] = orgID.String()

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return p.db.WithContext(ctx).Exec(
		`INSERT INTO membership_events (id, org_id, event_type, payload, published, created_at)
		 VALUES (?, ?, ?, ?, false, ?)`,
		p.genID.Generate(),
		orgID,
		topic,
		datatypes.JSON(data),
		p.clock.Now(),
	).Error
}
