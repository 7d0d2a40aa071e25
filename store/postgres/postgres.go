// Package postgres persists ONU records and MAC table rows into PostgreSQL.
// The tables are managed outside this program; schema.sql lists the columns
// the store writes.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/nanoncore/pon-telemetry/types"
)

const (
	querySwitch    = `SELECT id FROM switches WHERE ip = $1`
	queryMacInsert = `INSERT INTO olt_customer_mac (olt_id, vlan, port, mac, udate) VALUES ($1, $2, $3, $4, $5)`
)

var onuColumns = []string{
	"sw_id", "ifindex", "ifindex2", "technology", "pon_port", "onu_port",
	"mac", "slno", "status", "admin_status", "distance", "up_since",
	"onu_vendor", "onu_model", "power", "udate",
}

type switchRow struct {
	ID int64 `db:"id"`
}

// Store implements types.OnuStore and types.MacStore on a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open connects to PostgreSQL.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	s := &Store{pool: pool, logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// switchID returns the switches row of olt, or nil when it is not registered.
func (s *Store) switchID(ctx context.Context, tx pgx.Tx, olt string) (any, error) {
	var row switchRow
	err := pgxscan.Get(ctx, tx, &row, querySwitch, olt)
	if pgxscan.NotFound(err) {
		s.logger.Warn().Str("olt", olt).Msg("no switch registered for OLT, sw_id will be NULL")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up switch %s: %w", olt, err)
	}
	return row.ID, nil
}

// SaveOnuRecords copies records into switch_snmp_onu_ports.
func (s *Store) SaveOnuRecords(ctx context.Context, olt string, records []types.OnuRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	swID, err := s.switchID(ctx, tx, olt)
	if err != nil {
		return err
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"switch_snmp_onu_ports"}, onuColumns,
		pgx.CopyFromRows(onuRows(swID, records, s.now())))
	if err != nil {
		return fmt.Errorf("failed to copy ONU records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ONU records: %w", err)
	}

	s.logger.Info().Str("olt", olt).Int64("records", n).Msg("ONU records stored")
	return nil
}

// SaveMacRecords inserts records into olt_customer_mac as one batch.
func (s *Store) SaveMacRecords(ctx context.Context, olt string, records []types.MacTableRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	oltID, err := s.switchID(ctx, tx, olt)
	if err != nil {
		return err
	}

	batch := macBatch(oltID, records, s.now())
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert MAC records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit MAC records: %w", err)
	}

	s.logger.Info().Str("olt", olt).Int("records", len(records)).Msg("MAC table stored")
	return nil
}

func onuRows(swID any, records []types.OnuRecord, udate time.Time) [][]any {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			swID,
			int64(r.DeviceID),
			r.Interface,
			string(r.Technology),
			r.PonPort(),
			int32(r.ONU), //nolint:gosec // ONU ids are bytes
			optString(r.MAC),
			optString(r.Serial),
			optValue(r.Status),
			optValue(r.AdminStatus),
			optValue(r.Distance),
			optValue(r.UpSince),
			optString(r.Vendor),
			optString(r.Model),
			optValue(r.Power),
			udate,
		})
	}
	return rows
}

func macBatch(oltID any, records []types.MacTableRecord, udate time.Time) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(queryMacInsert, oltID, int32(r.VLAN), r.Port, r.MAC, udate)
	}
	return batch
}

func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optValue[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

var (
	_ types.OnuStore = (*Store)(nil)
	_ types.MacStore = (*Store)(nil)
)
