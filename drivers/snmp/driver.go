package snmp

import (
	"context"
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/rs/zerolog"

	"github.com/nanoncore/pon-telemetry/snmpfmt"
	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/common"
)

// OIDSysDescr is queried by HealthCheck.
const OIDSysDescr = "1.3.6.1.2.1.1.1.0"

// Driver implements types.SNMPExecutor using gosnmp. Results are rendered as
// net-snmp style walk lines through snmpfmt and the Resolver.
type Driver struct {
	config   *types.EquipmentConfig
	snmp     *gosnmp.GoSNMP
	resolver *Resolver
	logger   zerolog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithResolver sets the OID name resolver.
func WithResolver(r *Resolver) Option {
	return func(d *Driver) {
		d.resolver = r
	}
}

// WithLogger sets the driver logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a new SNMP driver
func NewDriver(config *types.EquipmentConfig, opts ...Option) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	// Default SNMP port
	if config.Port == 0 {
		config.Port = 161
	}

	// Default timeout
	if config.Timeout == 0 {
		config.Timeout = 3 * time.Second
	}

	if config.Retries == 0 {
		config.Retries = 3
	}

	d := &Driver{config: config, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}

	if d.resolver == nil {
		r, err := NewResolver()
		if err != nil {
			return nil, err
		}
		d.resolver = r
	}

	return d, nil
}

// Connect opens the SNMP session
func (d *Driver) Connect(ctx context.Context) error {
	client, err := d.newClient(ctx)
	if err != nil {
		return err
	}

	if err := client.Connect(); err != nil {
		return fmt.Errorf("failed to connect SNMP: %w", err)
	}

	d.snmp = client
	d.logger.Debug().Str("olt", d.config.Address).Int("port", d.config.Port).Msg("snmp session open")

	return nil
}

func (d *Driver) newClient(ctx context.Context) (*gosnmp.GoSNMP, error) {
	md := d.config.Metadata

	// Get SNMP version from metadata (default v2c)
	version := gosnmp.Version2c
	switch common.MetadataStringWithDefault(md, "2c", "snmp_version") {
	case "1":
		version = gosnmp.Version1
	case "2c", "2":
		version = gosnmp.Version2c
	case "3":
		version = gosnmp.Version3
	default:
		return nil, fmt.Errorf("unsupported snmp_version %q", md["snmp_version"])
	}

	port := d.config.Port
	if port <= 0 || port > 65535 {
		port = 161 // default SNMP port
	}

	client := &gosnmp.GoSNMP{
		Context:            ctx,
		Target:             d.config.Address,
		Port:               uint16(port), //nolint:gosec // validated above
		Community:          common.MetadataStringWithDefault(md, "public", "snmp_community"),
		Version:            version,
		Timeout:            d.config.Timeout,
		Retries:            d.config.Retries,
		MaxRepetitions:     uint32(common.MetadataIntWithDefault(md, 25, "snmp_max_repetitions")), //nolint:gosec // small config value
		ExponentialTimeout: false,
	}

	// For SNMPv3, set security parameters
	if version == gosnmp.Version3 {
		client.SecurityModel = gosnmp.UserSecurityModel
		client.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 d.config.Username,
			AuthenticationProtocol:   gosnmp.SHA,
			AuthenticationPassphrase: d.config.Password,
			PrivacyProtocol:          gosnmp.AES,
			PrivacyPassphrase:        d.config.Password,
		}
		client.MsgFlags = gosnmp.AuthPriv
	}

	return client, nil
}

// Disconnect closes the SNMP session
func (d *Driver) Disconnect(ctx context.Context) error {
	if d.snmp != nil && d.snmp.Conn != nil {
		err := d.snmp.Conn.Close()
		d.snmp = nil
		return err
	}
	d.snmp = nil
	return nil
}

// IsConnected returns true if connected
func (d *Driver) IsConnected() bool {
	return d.snmp != nil
}

// HealthCheck queries sysDescr
func (d *Driver) HealthCheck(ctx context.Context) error {
	_, err := d.GetLines(ctx, OIDSysDescr)
	return err
}

// WalkPDUs walks the subtree under oid. v1 sessions use GETNEXT, others GETBULK.
func (d *Driver) WalkPDUs(ctx context.Context, oid string) ([]gosnmp.SnmpPDU, error) {
	if !d.IsConnected() {
		return nil, fmt.Errorf("not connected")
	}
	d.snmp.Context = ctx

	var (
		pdus []gosnmp.SnmpPDU
		err  error
	)
	if d.snmp.Version == gosnmp.Version1 {
		pdus, err = d.snmp.WalkAll(oid)
	} else {
		pdus, err = d.snmp.BulkWalkAll(oid)
	}
	if err != nil {
		return nil, fmt.Errorf("SNMP WALK %s failed: %w", oid, err)
	}

	d.logger.Debug().Str("olt", d.config.Address).Str("oid", oid).Int("rows", len(pdus)).Msg("walk complete")
	return pdus, nil
}

// WalkLines implements types.SNMPExecutor. On failure the returned lines hold
// the single "Error: ..." report the walk parser recognises.
func (d *Driver) WalkLines(ctx context.Context, oid string) ([]string, error) {
	pdus, err := d.WalkPDUs(ctx, oid)
	if err != nil {
		return ErrorLines(err), err
	}
	return d.Render(pdus), nil
}

// GetLines implements types.SNMPExecutor
func (d *Driver) GetLines(ctx context.Context, oids ...string) ([]string, error) {
	if !d.IsConnected() {
		err := fmt.Errorf("not connected")
		return ErrorLines(err), err
	}
	d.snmp.Context = ctx

	result, err := d.snmp.Get(oids)
	if err != nil {
		err = fmt.Errorf("SNMP GET failed: %w", err)
		return ErrorLines(err), err
	}
	if result.Error != gosnmp.NoError {
		err = fmt.Errorf("SNMP GET failed: %s at index %d", result.Error, result.ErrorIndex)
		return []string{"SNMP Error: " + result.Error.String()}, err
	}

	pdus := make([]gosnmp.SnmpPDU, 0, len(result.Variables))
	for _, v := range result.Variables {
		switch v.Type {
		case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
			continue
		}
		pdus = append(pdus, v)
	}

	return d.Render(pdus), nil
}

// Render turns PDUs into walk lines.
func (d *Driver) Render(pdus []gosnmp.SnmpPDU) []string {
	lines := make([]string, 0, len(pdus))
	for _, pdu := range pdus {
		lines = append(lines, snmpfmt.Line(d.resolver.Name(pdu.Name), pdu))
	}
	return lines
}

// ErrorLines is the transport error report for err.
func ErrorLines(err error) []string {
	return []string{"Error: " + err.Error()}
}

// Ensure Driver implements SNMPExecutor
var _ types.SNMPExecutor = (*Driver)(nil)
