// Package mock simulates an OLT: its SNMP ONU tables and its terminal MAC
// table are generated in memory and rendered exactly like the real drivers
// render device answers.
package mock

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/nanoncore/pon-telemetry/codec"
	"github.com/nanoncore/pon-telemetry/drivers/snmp"
	"github.com/nanoncore/pon-telemetry/snmpfmt"
	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
	"github.com/nanoncore/pon-telemetry/vendors/vsol"
)

// Driver implements a mock SNMP and terminal session for testing.
// It simulates a C-Data OLT without connecting to real equipment.
type Driver struct {
	config     *types.EquipmentConfig
	tech       types.Technology
	connected  bool
	mu         sync.RWMutex
	onus       []mockONU
	pdus       []gosnmp.SnmpPDU
	resolver   *snmp.Resolver
	cmdHistory []string
}

type mockONU struct {
	ID       types.DeviceID
	Slot     uint32
	PON      uint32
	ONU      uint32
	Serial   string
	MAC      []byte
	Model    string
	Distance int
	RxPower  float64
	Status   int
	Admin    int
	Uptime   int
	VLAN     int
}

// Option configures a Driver.
type Option func(*options)

type options struct {
	onus int
	seed int64
}

// WithONUs sets how many ONUs the simulated OLT reports.
func WithONUs(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.onus = n
		}
	}
}

// WithSeed makes the generated ONUs reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// NewDriver creates a new mock driver. The technology comes from the config
// and defaults to GPON.
func NewDriver(config *types.EquipmentConfig, opts ...Option) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	o := options{onus: 5, seed: time.Now().UnixNano()}
	for _, opt := range opts {
		opt(&o)
	}

	tech := config.Technology
	if tech == "" {
		tech = types.TechnologyGPON
	}

	resolver, err := snmp.NewResolver()
	if err != nil {
		return nil, err
	}

	d := &Driver{
		config:     config,
		tech:       tech,
		resolver:   resolver,
		cmdHistory: make([]string, 0),
	}

	if err := d.generateMockONUs(rand.New(rand.NewSource(o.seed)), o.onus); err != nil { //nolint:gosec // mock data
		return nil, err
	}
	d.pdus = d.buildPDUs()

	return d, nil
}

// Connect simulates connecting to equipment
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Simulate connection delay
	select {
	case <-time.After(10 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	d.connected = true
	d.recordCommand("connect")

	return nil
}

// Disconnect simulates closing the session
func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.connected = false
	d.recordCommand("disconnect")

	return nil
}

// IsConnected returns true if connected
func (d *Driver) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// HealthCheck checks if the simulated device is reachable
func (d *Driver) HealthCheck(ctx context.Context) error {
	if !d.IsConnected() {
		return fmt.Errorf("not connected to device")
	}
	return nil
}

// WalkLines returns every simulated row under oid.
func (d *Driver) WalkLines(ctx context.Context, oid string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		err := fmt.Errorf("not connected to device")
		return snmp.ErrorLines(err), err
	}
	d.recordCommand("walk " + oid)

	prefix := "." + strings.TrimPrefix(oid, ".") + "."
	var lines []string
	for _, pdu := range d.pdus {
		if strings.HasPrefix(pdu.Name, prefix) {
			lines = append(lines, snmpfmt.Line(d.resolver.Name(pdu.Name), pdu))
		}
	}
	return lines, nil
}

// GetLines returns the simulated rows with exactly the given OIDs. Unknown
// OIDs are skipped like noSuchInstance answers.
func (d *Driver) GetLines(ctx context.Context, oids ...string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		err := fmt.Errorf("not connected to device")
		return snmp.ErrorLines(err), err
	}

	var lines []string
	for _, oid := range oids {
		d.recordCommand("get " + oid)
		name := "." + strings.TrimPrefix(oid, ".")
		for _, pdu := range d.pdus {
			if pdu.Name == name {
				lines = append(lines, snmpfmt.Line(d.resolver.Name(pdu.Name), pdu))
			}
		}
	}
	return lines, nil
}

// ExecCommand answers the MAC table commands of both supported dialects and
// rejects anything else like the terminal driver does.
func (d *Driver) ExecCommand(ctx context.Context, command string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return "", fmt.Errorf("not connected to device")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.recordCommand(command)

	switch strings.TrimSpace(command) {
	case cdata.ShowMacCommand:
		return d.cdataMacTable(), nil
	case vsol.ShowMacCommand:
		return d.vsolMacTable(), nil
	default:
		out := "% Unknown command."
		return out, cdata.TranslateError(fmt.Errorf("command %q rejected: %w", command, errors.New(out)))
	}
}

// ExecCommands executes multiple commands
func (d *Driver) ExecCommands(ctx context.Context, commands []string) ([]string, error) {
	results := make([]string, 0, len(commands))
	for _, cmd := range commands {
		out, err := d.ExecCommand(ctx, cmd)
		if err != nil {
			return results, err
		}
		results = append(results, out)
	}
	return results, nil
}

// GetCommandHistory returns the history of operations run on the simulator
func (d *Driver) GetCommandHistory() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	result := make([]string, len(d.cmdHistory))
	copy(result, d.cmdHistory)
	return result
}

// Interfaces returns the logical interface of every simulated ONU.
func (d *Driver) Interfaces() []string {
	out := make([]string, len(d.onus))
	for i, onu := range d.onus {
		out[i] = types.LogicalInterface{Technology: d.tech, Slot: onu.Slot, PON: onu.PON, ONU: onu.ONU}.String()
	}
	return out
}

func (d *Driver) recordCommand(cmd string) {
	d.cmdHistory = append(d.cmdHistory, cmd)
}

func (d *Driver) generateMockONUs(rng *rand.Rand, n int) error {
	models := []string{"FD511G", "FD512XW", "FD600", "FD514GD"}

	for i := 0; i < n; i++ {
		pon := uint32(i/8) + 1
		onuID := uint32(i%8) + 1

		id, err := codec.Encode(types.VendorCData, d.tech, 0, pon, onuID)
		if err != nil {
			return err
		}

		mac := []byte{0x00, 0x1E, 0xA9, 0, 0, 0}
		rng.Read(mac[3:])

		d.onus = append(d.onus, mockONU{
			ID:       id,
			Slot:     0,
			PON:      pon,
			ONU:      onuID,
			Serial:   fmt.Sprintf("CDAT%08X", rng.Uint32()),
			MAC:      mac,
			Model:    fmt.Sprintf("%s(0x%04X)", models[rng.Intn(len(models))], rng.Intn(0x10000)),
			Distance: 100 + rng.Intn(5000),
			RxPower:  -18.0 - rng.Float64()*10,
			Status:   1,
			Admin:    1,
			Uptime:   rng.Intn(30 * 24 * 3600),
			VLAN:     100 + rng.Intn(50),
		})
	}

	// a single offline ONU keeps the data realistic
	if n > 1 {
		d.onus[n-1].Status = 2
	}

	sort.Slice(d.onus, func(i, j int) bool { return d.onus[i].ID < d.onus[j].ID })
	return nil
}

// buildPDUs lays out the ONU tables branch by branch in walk order.
func (d *Driver) buildPDUs() []gosnmp.SnmpPDU {
	var pdus []gosnmp.SnmpPDU

	ports := map[uint32]bool{}
	for _, onu := range d.onus {
		ports[onu.PON] = true
	}
	pons := make([]int, 0, len(ports))
	for p := range ports {
		pons = append(pons, int(p))
	}
	sort.Ints(pons)
	for i, p := range pons {
		pdus = append(pdus, gosnmp.SnmpPDU{
			Name:  fmt.Sprintf(".%s.%d", cdata.OIDIfDescr, i+1),
			Type:  gosnmp.OctetString,
			Value: []byte(fmt.Sprintf("%s0/0/%d", d.tech, p)),
		})
	}

	for _, entry := range cdata.OIDTable {
		base, _ := cdata.OID(entry.Branch, d.tech)
		for _, onu := range d.onus {
			name := fmt.Sprintf(".%s.%d", base, uint32(onu.ID))
			pdu := gosnmp.SnmpPDU{Name: name}

			switch entry.Branch {
			case cdata.BranchMAC:
				pdu.Type, pdu.Value = gosnmp.OctetString, onu.MAC
			case cdata.BranchSerial:
				pdu.Type, pdu.Value = gosnmp.OctetString, []byte(onu.Serial)
			case cdata.BranchOperStatus:
				pdu.Type, pdu.Value = gosnmp.Integer, onu.Status
			case cdata.BranchAdminStatus:
				pdu.Type, pdu.Value = gosnmp.Integer, onu.Admin
			case cdata.BranchDistance:
				pdu.Type, pdu.Value = gosnmp.Integer, onu.Distance
			case cdata.BranchUpSince:
				pdu.Type, pdu.Value = gosnmp.Integer, onu.Uptime
			case cdata.BranchVendor:
				pdu.Type, pdu.Value = gosnmp.OctetString, []byte("CDAT")
			case cdata.BranchModel:
				pdu.Type, pdu.Value = gosnmp.OctetString, []byte(onu.Model)
			case cdata.BranchPower:
				// power rows carry two more sub-indices
				pdu.Name += ".0.0"
				pdu.Type, pdu.Value = gosnmp.Integer, int(onu.RxPower*100)
			}
			pdus = append(pdus, pdu)
		}
	}

	return pdus
}

func (d *Driver) cdataMacTable() string {
	var b strings.Builder
	b.WriteString("MAC               VLAN  SPORT  PORT     ONU  GEMID  MAC-TYPE\n")
	for _, onu := range d.onus {
		fmt.Fprintf(&b, "%s %-5d -      %s0/%d  %-4d 1      dynamic\n",
			formatMAC(onu.MAC, ":", 1), onu.VLAN, d.tech, onu.PON, onu.ONU)
	}
	fmt.Fprintf(&b, "Total: %d\n", len(d.onus))
	return b.String()
}

func (d *Driver) vsolMacTable() string {
	var b strings.Builder
	b.WriteString("Mac Address    Vlan Type    Port        Onu Gem Vport\n")
	for _, onu := range d.onus {
		fmt.Fprintf(&b, "%s %d dynamic %s0/%d:%d 0 0 tag\n",
			formatMAC(onu.MAC, ".", 2), onu.VLAN, d.tech, onu.PON, onu.ONU)
	}
	return b.String()
}

// formatMAC groups the hex digits of mac in groups of group bytes.
func formatMAC(mac []byte, sep string, group int) string {
	parts := make([]string, 0, len(mac)/group)
	for i := 0; i < len(mac); i += group {
		parts = append(parts, fmt.Sprintf("%x", mac[i:i+group]))
	}
	return strings.Join(parts, sep)
}
