package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
)

// EventRepo stores submission outcomes. It is write-only: the directory stays
// the system of record for subscribers.
type EventRepo struct {
	db *sqlx.DB
}

func NewEventRepo(db *sqlx.DB) *EventRepo {
	return &EventRepo{db: db}
}

// EnsureTable creates the subscription_events table if it does not already exist.
func (r *EventRepo) EnsureTable(ctx context.Context) error {
	const tbl = `
	CREATE TABLE IF NOT EXISTS subscription_events (
		id varchar(32) PRIMARY KEY,
		request_id varchar(32) NOT NULL DEFAULT '',
		member_key char(32) NOT NULL,
		provider varchar(16) NOT NULL,
		outcome varchar(16) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	if _, err := r.db.ExecContext(ctx, tbl); err != nil {
		return err
	}

	const idx = `
	CREATE INDEX IF NOT EXISTS idx_subscription_events_member_key ON subscription_events (member_key);
	`
	if _, err := r.db.ExecContext(ctx, idx); err != nil {
		return err
	}
	return nil
}

func (r *EventRepo) Record(ctx context.Context, ev entity.Event) error {
	const q = `INSERT INTO subscription_events (id, request_id, member_key, provider, outcome, created_at)
		VALUES (:id, :request_id, :member_key, :provider, :outcome, :created_at)`
	_, err := r.db.NamedExecContext(ctx, q, ev)
	return err
}
