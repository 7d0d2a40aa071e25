// Package collector drives SNMP polls and MAC table scrapes against OLTs and
// hands the structured results to the stores.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gookit/event"
	"github.com/rs/zerolog"

	"github.com/nanoncore/pon-telemetry/codec"
	"github.com/nanoncore/pon-telemetry/mactable"
	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
	"github.com/nanoncore/pon-telemetry/walk"
)

// ErrNoSuchONU is returned by QueryInterface when the OLT reports nothing for
// the requested interface.
var ErrNoSuchONU = errors.New("no ONU at interface")

// SNMPSession is an open SNMP session to one OLT.
type SNMPSession interface {
	types.SNMPExecutor
	Disconnect(ctx context.Context) error
}

// CLISession is an open terminal session to one OLT.
type CLISession interface {
	types.CLIExecutor
	Disconnect(ctx context.Context) error
}

// SNMPDialer opens an SNMP session.
type SNMPDialer func(ctx context.Context, olt types.EquipmentConfig) (SNMPSession, error)

// CLIDialer opens a terminal session.
type CLIDialer func(ctx context.Context, olt types.EquipmentConfig) (CLISession, error)

// Collector polls OLTs. Sessions are opened per call, so one Collector may
// serve many OLTs concurrently.
type Collector struct {
	dialSNMP SNMPDialer
	dialCLI  CLIDialer
	onus     types.OnuStore
	macs     types.MacStore
	events   *event.Manager
	logger   zerolog.Logger
	now      func() time.Time
	dryRun   bool
	workers  int
}

// Option configures a Collector.
type Option func(*Collector)

// WithSNMPDialer sets how SNMP sessions are opened.
func WithSNMPDialer(d SNMPDialer) Option {
	return func(c *Collector) { c.dialSNMP = d }
}

// WithCLIDialer sets how terminal sessions are opened.
func WithCLIDialer(d CLIDialer) Option {
	return func(c *Collector) { c.dialCLI = d }
}

// WithOnuStore sets the ONU record sink.
func WithOnuStore(s types.OnuStore) Option {
	return func(c *Collector) { c.onus = s }
}

// WithMacStore sets the MAC table sink.
func WithMacStore(s types.MacStore) Option {
	return func(c *Collector) { c.macs = s }
}

// WithEvents publishes poll outcomes on m.
func WithEvents(m *event.Manager) Option {
	return func(c *Collector) { c.events = m }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Collector) { c.logger = logger }
}

// WithClock overrides the time source used for UP_SINCE.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithDryRun parses everything but stores nothing.
func WithDryRun(dryRun bool) Option {
	return func(c *Collector) { c.dryRun = dryRun }
}

// WithWorkers bounds the number of OLTs polled at once by CollectAll.
func WithWorkers(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// New creates a Collector.
func New(opts ...Option) *Collector {
	c := &Collector{
		logger:  zerolog.Nop(),
		now:     time.Now,
		workers: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnuReport is the outcome of one ONU poll.
type OnuReport struct {
	OLT         string
	Technology  types.Technology
	Records     []types.OnuRecord
	Diagnostics []walk.Diagnostic
	Stored      bool
}

// CollectONUs walks every ONU table of olt, assembles the records and stores
// them unless the collector is in dry-run mode.
func (c *Collector) CollectONUs(ctx context.Context, olt types.EquipmentConfig) (*OnuReport, error) {
	sess, err := c.openSNMP(ctx, olt)
	if err != nil {
		return nil, err
	}
	defer c.closeSession(ctx, olt, sess)

	tech, err := c.technology(ctx, olt, sess)
	if err != nil {
		return nil, err
	}
	if !codec.Supported(olt.Vendor, tech) {
		return nil, fmt.Errorf("%s/%s: %w", olt.Vendor, tech, codec.ErrUnsupportedVariant)
	}

	var lines []string
	for _, entry := range cdata.OIDTable {
		oid, err := cdata.OID(entry.Branch, tech)
		if err != nil {
			return nil, err
		}
		out, err := sess.WalkLines(ctx, oid)
		if err != nil {
			return nil, fmt.Errorf("walk of %s on %s failed: %w", entry.Branch, olt.Address, err)
		}
		c.logger.Debug().Str("olt", olt.Address).Str("branch", string(entry.Branch)).Int("lines", len(out)).Msg("branch walked")
		lines = append(lines, out...)
	}

	res, err := walk.Parse(lines, olt.Vendor, tech, walk.WithClock(c.now), walk.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}

	report := &OnuReport{
		OLT:         olt.Address,
		Technology:  tech,
		Records:     walk.BuildOnuRecords(res),
		Diagnostics: res.Diagnostics,
	}

	if !c.dryRun && c.onus != nil {
		if err := c.onus.SaveOnuRecords(ctx, olt.Address, report.Records); err != nil {
			return report, fmt.Errorf("failed to store ONU records for %s: %w", olt.Address, err)
		}
		report.Stored = true
	}

	c.logger.Info().
		Str("olt", olt.Address).
		Str("tech", string(tech)).
		Int("onus", len(report.Records)).
		Int("diagnostics", len(report.Diagnostics)).
		Bool("stored", report.Stored).
		Msg("ONU poll complete")
	c.fire(EventOnusCollected, event.M{"olt": olt.Address, "report": report})

	return report, nil
}

// QueryInterface reads every attribute of the single ONU at iface
// ("epon0/2/4/16") with targeted GETs instead of full walks.
func (c *Collector) QueryInterface(ctx context.Context, olt types.EquipmentConfig, iface string) (*types.OnuRecord, error) {
	l, err := codec.ParseInterface(iface)
	if err != nil {
		return nil, err
	}
	id, err := codec.Encode(olt.Vendor, l.Technology, l.Slot, l.PON, l.ONU)
	if err != nil {
		return nil, err
	}
	want, err := codec.Interface(olt.Vendor, l.Technology, id)
	if err != nil {
		return nil, err
	}

	sess, err := c.openSNMP(ctx, olt)
	if err != nil {
		return nil, err
	}
	defer c.closeSession(ctx, olt, sess)

	var (
		gets  []string
		lines []string
	)
	for _, entry := range cdata.OIDTable {
		oid, err := cdata.InstanceOID(entry.Branch, l.Technology, id)
		if err != nil {
			return nil, err
		}
		if entry.Branch == cdata.BranchPower {
			out, err := sess.WalkLines(ctx, oid)
			if err != nil {
				return nil, fmt.Errorf("walk of %s failed: %w", oid, err)
			}
			lines = append(lines, out...)
			continue
		}
		gets = append(gets, oid)
	}

	out, err := sess.GetLines(ctx, gets...)
	if err != nil {
		return nil, fmt.Errorf("get of %s attributes failed: %w", want, err)
	}
	lines = append(out, lines...)

	res, err := walk.Parse(lines, olt.Vendor, l.Technology, walk.WithClock(c.now), walk.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}

	for _, r := range walk.BuildOnuRecords(res) {
		if r.Interface == want.String() {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%s on %s: %w", want, olt.Address, ErrNoSuchONU)
}

// MacReport is the outcome of one MAC table scrape.
type MacReport struct {
	OLT     string
	Records []types.MacTableRecord
	Skipped []types.SkippedLine
	Stored  bool
}

// CollectMacTable prints the MAC table over the terminal, parses it with the
// vendor's dialect and stores the rows unless in dry-run mode.
func (c *Collector) CollectMacTable(ctx context.Context, terminal types.EquipmentConfig) (*MacReport, error) {
	dialect, err := mactable.DialectFor(terminal.Vendor)
	if err != nil {
		return nil, err
	}
	if c.dialCLI == nil {
		return nil, errors.New("no terminal dialer configured")
	}

	sess, err := c.dialCLI(ctx, terminal)
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal to %s: %w", terminal.Address, err)
	}
	defer func() {
		if err := sess.Disconnect(ctx); err != nil {
			c.logger.Warn().Err(err).Str("olt", terminal.Address).Msg("terminal disconnect failed")
		}
	}()

	text, err := sess.ExecCommand(ctx, dialect.Command)
	if err != nil {
		return nil, fmt.Errorf("%q on %s failed: %w", dialect.Command, terminal.Address, err)
	}

	records, skipped, err := mactable.Parse(terminal.Vendor, text, mactable.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}

	report := &MacReport{OLT: terminal.Address, Records: records, Skipped: skipped}
	if !c.dryRun && c.macs != nil {
		if err := c.macs.SaveMacRecords(ctx, terminal.Address, records); err != nil {
			return report, fmt.Errorf("failed to store MAC table for %s: %w", terminal.Address, err)
		}
		report.Stored = true
	}

	c.logger.Info().
		Str("olt", terminal.Address).
		Int("macs", len(records)).
		Int("skipped", len(skipped)).
		Bool("stored", report.Stored).
		Msg("MAC table scrape complete")
	c.fire(EventMacsCollected, event.M{"olt": terminal.Address, "report": report})

	return report, nil
}

func (c *Collector) openSNMP(ctx context.Context, olt types.EquipmentConfig) (SNMPSession, error) {
	if c.dialSNMP == nil {
		return nil, errors.New("no SNMP dialer configured")
	}
	sess, err := c.dialSNMP(ctx, olt)
	if err != nil {
		return nil, fmt.Errorf("failed to open SNMP session to %s: %w", olt.Address, err)
	}
	return sess, nil
}

func (c *Collector) closeSession(ctx context.Context, olt types.EquipmentConfig, sess SNMPSession) {
	if err := sess.Disconnect(ctx); err != nil {
		c.logger.Warn().Err(err).Str("olt", olt.Address).Msg("SNMP disconnect failed")
	}
}

func (c *Collector) technology(ctx context.Context, olt types.EquipmentConfig, sess types.SNMPExecutor) (types.Technology, error) {
	if olt.Technology != "" {
		return olt.Technology, nil
	}
	tech, err := DetectTechnology(ctx, sess)
	if err != nil {
		return "", fmt.Errorf("technology of %s: %w", olt.Address, err)
	}
	c.logger.Info().Str("olt", olt.Address).Str("tech", string(tech)).Msg("PON technology detected")
	return tech, nil
}
