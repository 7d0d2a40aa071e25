package types

import (
	"context"
	"time"
)

// Protocol is how an OLT is reached
type Protocol string

const (
	ProtocolSNMP   Protocol = "snmp"
	ProtocolCLI    Protocol = "cli" // SSH
	ProtocolTelnet Protocol = "telnet"
)

// Vendor represents the OLT vendor
type Vendor string

const (
	VendorCData Vendor = "cdata" // C-Data OLTs (FD1104S, FD1208S, FD1616 series)
	VendorVSOL  Vendor = "vsol"
)

// Technology is the PON flavour of an OLT line card
type Technology string

const (
	TechnologyEPON Technology = "epon"
	TechnologyGPON Technology = "gpon"
)

// Valid reports whether t is one of the known technologies.
func (t Technology) Valid() bool {
	return t == TechnologyEPON || t == TechnologyGPON
}

// EquipmentConfig contains configuration for an OLT instance
type EquipmentConfig struct {
	// Name is a unique identifier for this equipment
	Name string

	// Vendor is the equipment vendor
	Vendor Vendor

	// Technology is the PON technology. Empty means autodetect via ifDescr.
	Technology Technology

	// Address is the management IP/hostname
	Address string

	// Port is the management port (if not default)
	Port int

	// Protocol is the management protocol
	Protocol Protocol

	// Username for authentication
	Username string

	// Password for authentication
	Password string

	// Timeout for operations
	Timeout time.Duration

	// Retries for SNMP requests
	Retries int

	// Metadata contains vendor-specific configuration
	// (snmp_community, snmp_version, enable_password)
	Metadata map[string]string
}

// CLIExecutor is implemented by drivers that run commands on a terminal session.
// Output is returned with pagination prompts and ANSI codes removed.
type CLIExecutor interface {
	// ExecCommand executes a CLI command and returns the output
	ExecCommand(ctx context.Context, command string) (string, error)

	// ExecCommands executes multiple CLI commands sequentially
	ExecCommands(ctx context.Context, commands []string) ([]string, error)
}

// SNMPExecutor is implemented by drivers that answer SNMP queries.
// Results are rendered as walk lines: "<object>.<index> = <TAG>: <value>".
type SNMPExecutor interface {
	// GetLines retrieves the given OIDs
	GetLines(ctx context.Context, oids ...string) ([]string, error)

	// WalkLines performs an SNMP walk on an OID subtree
	WalkLines(ctx context.Context, oid string) ([]string, error)
}

// OnuStore persists structured ONU records for one OLT.
type OnuStore interface {
	SaveOnuRecords(ctx context.Context, oltAddress string, records []OnuRecord) error
}

// MacStore persists MAC-table rows scraped from one OLT.
type MacStore interface {
	SaveMacRecords(ctx context.Context, oltAddress string, records []MacTableRecord) error
}
