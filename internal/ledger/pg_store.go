package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shipmux/rate-router/internal/models"
)

// PGStore persists routing decisions in Postgres. The order_id unique key is
// the system's sole concurrency-control point: the insert is a single
// transactional statement, not an application-level lock.
//
// Expected schema:
//
//	CREATE TABLE routing_decisions (
//	    order_id        TEXT PRIMARY KEY,
//	    id              UUID NOT NULL,
//	    org_id          TEXT NOT NULL DEFAULT '',
//	    ts              TIMESTAMPTZ NOT NULL,
//	    zone            INT NOT NULL,
//	    candidates      JSONB NOT NULL,
//	    chosen_carrier  TEXT NOT NULL DEFAULT '',
//	    chosen_service  TEXT NOT NULL DEFAULT '',
//	    reason          TEXT NOT NULL,
//	    savings_cents   BIGINT NOT NULL DEFAULT 0,
//	    margin_threshold_cents BIGINT NOT NULL DEFAULT 0
//	);
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (p *PGStore) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}

func (p *PGStore) Record(ctx context.Context, d models.RoutingDecision) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.TS.IsZero() {
		d.TS = time.Now().UTC()
	}
	candidates, err := json.Marshal(d.Candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}

	q := `
		INSERT INTO routing_decisions
		  (order_id, id, org_id, ts, zone, candidates, chosen_carrier, chosen_service, reason, savings_cents, margin_threshold_cents)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (order_id) DO NOTHING
	`
	res, err := p.db.ExecContext(ctx, q,
		d.OrderID,
		d.ID,
		d.OrgID,
		d.TS,
		d.Zone,
		candidates,
		d.ChosenCarrier,
		d.ChosenService,
		string(d.Reason),
		d.SavingsCents,
		d.MarginThresholdCents,
	)
	if err != nil {
		return fmt.Errorf("insert routing decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert routing decision result: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (p *PGStore) Has(ctx context.Context, orderID string) (bool, error) {
	var one int
	err := p.db.QueryRowContext(ctx, `SELECT 1 FROM routing_decisions WHERE order_id=$1`, orderID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check routing decision: %w", err)
	}
	return true, nil
}

const decisionColumns = `order_id, id, org_id, ts, zone, candidates, chosen_carrier, chosen_service, reason, savings_cents, margin_threshold_cents`

func (p *PGStore) Get(ctx context.Context, orderID string) (models.RoutingDecision, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+decisionColumns+` FROM routing_decisions WHERE order_id=$1`, orderID)
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoutingDecision{}, ErrNotFound
	}
	if err != nil {
		return models.RoutingDecision{}, fmt.Errorf("get routing decision: %w", err)
	}
	return d, nil
}

func (p *PGStore) Query(ctx context.Context, f Filter) ([]models.RoutingDecision, error) {
	q := `SELECT ` + decisionColumns + ` FROM routing_decisions WHERE 1=1`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Carrier != "" {
		q += ` AND chosen_carrier=` + arg(f.Carrier)
	}
	if f.OrgID != "" {
		q += ` AND org_id=` + arg(f.OrgID)
	}
	if !f.From.IsZero() {
		q += ` AND ts >= ` + arg(f.From)
	}
	if !f.To.IsZero() {
		q += ` AND ts <= ` + arg(f.To)
	}
	q += ` ORDER BY ts DESC`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query routing decisions: %w", err)
	}
	defer rows.Close()

	var out []models.RoutingDecision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan routing decision: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routing decisions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(row rowScanner) (models.RoutingDecision, error) {
	var (
		d          models.RoutingDecision
		reason     string
		candidates []byte
	)
	if err := row.Scan(
		&d.OrderID,
		&d.ID,
		&d.OrgID,
		&d.TS,
		&d.Zone,
		&candidates,
		&d.ChosenCarrier,
		&d.ChosenService,
		&reason,
		&d.SavingsCents,
		&d.MarginThresholdCents,
	); err != nil {
		return models.RoutingDecision{}, err
	}
	d.Reason = models.Reason(reason)
	if len(candidates) > 0 {
		if err := json.Unmarshal(candidates, &d.Candidates); err != nil {
			return models.RoutingDecision{}, fmt.Errorf("unmarshal candidates: %w", err)
		}
	}
	return d, nil
}
