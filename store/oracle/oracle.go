// Package oracle persists ONU records and MAC table rows into the Oracle
// inventory schema (SWITCH_SNMP_ONU_PORTS, OLT_CUSTOMER_MAC).
package oracle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	go_ora "github.com/sijms/go-ora/v2"

	"github.com/nanoncore/pon-telemetry/types"
)

const (
	querySwitchID = `SELECT ID FROM SWITCHES WHERE IP = :1`

	queryOnuNextID = `SELECT SWITCH_SNMP_ONU_PORTS_sq.nextval FROM DUAL`
	queryOnuInsert = `INSERT INTO SWITCH_SNMP_ONU_PORTS (ID, PORT_ID, MAC, POWER, STATUS, IFDESCR, PORTNO, SW_ID, IFINDEX, UDATE, ONU_PORT, PON_PORT, PARENT_ID, SLNO, DISTANCE, UP_SINCE, ONU_MODEL, ONU_VENDOR, IFINDEX2, ADMIN_STATUS) VALUES (:1, NULL, :2, :3, :4, NULL, NULL, :5, :6, :7, :8, :9, NULL, :10, :11, :12, :13, :14, :15, :16)`

	queryMacNextID = `SELECT OLT_CUSTOMER_MAC_sq.nextval FROM DUAL`
	queryMacInsert = `INSERT INTO OLT_CUSTOMER_MAC (ID, OLT_ID, VLAN, PORT, MAC, UDATE) VALUES (:1, :2, :3, :4, :5, :6)`
)

// Config locates the database. SID takes precedence over Service.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	SID      string
	Service  string
}

// DSN builds a go-ora connection URL.
func DSN(cfg Config) string {
	port := cfg.Port
	if port == 0 {
		port = 1521
	}
	var options map[string]string
	if cfg.SID != "" {
		options = map[string]string{"SID": cfg.SID}
	}
	return go_ora.BuildUrl(cfg.Host, port, cfg.Service, cfg.User, cfg.Password, options)
}

// Store implements types.OnuStore and types.MacStore.
type Store struct {
	db     *sql.DB
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

// WithClock overrides the UDATE timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open connects to Oracle.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Host == "" {
		return nil, errors.New("oracle host is required")
	}

	db, err := sql.Open("oracle", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open oracle connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach oracle at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return New(db, opts...), nil
}

// New wraps an open database handle.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// switchID looks up the SWITCHES row of an OLT. A missing row, or a failed
// lookup, leaves the foreign key NULL.
func (s *Store) switchID(ctx context.Context, q queryer, olt string) sql.NullInt64 {
	var id sql.NullInt64
	err := q.QueryRowContext(ctx, querySwitchID, olt).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.Warn().Str("olt", olt).Msg("no switch registered for OLT, SW_ID will be NULL")
	case err != nil:
		s.logger.Warn().Err(err).Str("olt", olt).Msg("switch lookup failed, SW_ID will be NULL")
	}
	return id
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SaveOnuRecords inserts one SWITCH_SNMP_ONU_PORTS row per record in a single transaction.
func (s *Store) SaveOnuRecords(ctx context.Context, olt string, records []types.OnuRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	swID := s.switchID(ctx, tx, olt)
	udate := s.now()

	for _, r := range records {
		var id int64
		if err := tx.QueryRowContext(ctx, queryOnuNextID).Scan(&id); err != nil {
			return fmt.Errorf("failed to allocate ONU row id: %w", err)
		}

		_, err := tx.ExecContext(ctx, queryOnuInsert,
			id,
			nullString(r.MAC),
			nullFloat(r.Power),
			nullInt(r.Status),
			swID,
			int64(r.DeviceID),
			udate,
			int64(r.ONU),
			r.PonPort(),
			nullString(r.Serial),
			nullInt(r.Distance),
			nullTime(r.UpSince),
			nullString(r.Model),
			nullString(r.Vendor),
			nullString(r.Interface),
			nullInt(r.AdminStatus),
		)
		if err != nil {
			return fmt.Errorf("failed to insert ONU %s: %w", r.Interface, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ONU records: %w", err)
	}

	s.logger.Info().Str("olt", olt).Int("records", len(records)).Msg("ONU records stored")
	return nil
}

// SaveMacRecords inserts one OLT_CUSTOMER_MAC row per record in a single transaction.
func (s *Store) SaveMacRecords(ctx context.Context, olt string, records []types.MacTableRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	oltID := s.switchID(ctx, tx, olt)
	udate := s.now()

	for _, r := range records {
		var id int64
		if err := tx.QueryRowContext(ctx, queryMacNextID).Scan(&id); err != nil {
			return fmt.Errorf("failed to allocate MAC row id: %w", err)
		}
		if _, err := tx.ExecContext(ctx, queryMacInsert, id, oltID, int64(r.VLAN), r.Port, r.MAC, udate); err != nil {
			return fmt.Errorf("failed to insert MAC %s: %w", r.MAC, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit MAC records: %w", err)
	}

	s.logger.Info().Str("olt", olt).Int("records", len(records)).Msg("MAC table stored")
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

var (
	_ types.OnuStore = (*Store)(nil)
	_ types.MacStore = (*Store)(nil)
)
