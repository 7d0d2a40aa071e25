// Package telemetry ties the SNMP and terminal drivers to the collector and
// records what each supported OLT vendor can do.
package telemetry

import (
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"sort"

	"github.com/nanoncore/pon-telemetry/collector"
	"github.com/nanoncore/pon-telemetry/drivers/cli"
	"github.com/nanoncore/pon-telemetry/drivers/mock"
	"github.com/nanoncore/pon-telemetry/drivers/snmp"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
	"github.com/nanoncore/pon-telemetry/vendors/vsol"
)

// CapabilityMatrix defines what each vendor supports
var CapabilityMatrix = map[Vendor]VendorCapabilities{
	VendorCData: {
		Technologies: []Technology{TechnologyEPON, TechnologyGPON},
		SupportedProtocols: []Protocol{
			ProtocolSNMP,
			ProtocolTelnet,
			ProtocolCLI,
		},
		TelemetryMethod: ProtocolSNMP,
		MacTableMethod:  ProtocolTelnet,
		MacTableCommand: cdata.ShowMacCommand,
	},
	VendorVSOL: {
		// ONU walks are not decoded for V-SOL; only the MAC table is scraped
		SupportedProtocols: []Protocol{
			ProtocolTelnet,
			ProtocolCLI,
		},
		MacTableMethod:  ProtocolTelnet,
		MacTableCommand: vsol.ShowMacCommand,
	},
}

// VendorCapabilities defines what protocols and features a vendor supports
type VendorCapabilities struct {
	// Technologies whose ONU walks can be decoded
	Technologies       []Technology
	SupportedProtocols []Protocol
	TelemetryMethod    Protocol
	MacTableMethod     Protocol
	MacTableCommand    string
}

// SupportsONUPolling reports whether ONU walks of tech can be decoded.
func (c VendorCapabilities) SupportsONUPolling(tech Technology) bool {
	if tech == "" {
		return len(c.Technologies) > 0
	}
	return slices.Contains(c.Technologies, tech)
}

func (c VendorCapabilities) supports(p Protocol) bool {
	return slices.Contains(c.SupportedProtocols, p)
}

// SNMPDialer returns a collector.SNMPDialer that opens an SNMP driver
// session per OLT.
func SNMPDialer(opts ...snmp.Option) collector.SNMPDialer {
	return func(ctx context.Context, olt EquipmentConfig) (collector.SNMPSession, error) {
		caps, ok := CapabilityMatrix[olt.Vendor]
		if !ok {
			return nil, fmt.Errorf("unsupported vendor: %s", olt.Vendor)
		}
		if !caps.supports(ProtocolSNMP) {
			return nil, fmt.Errorf("vendor %s does not support protocol %s", olt.Vendor, ProtocolSNMP)
		}

		d, err := snmp.NewDriver(&olt, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s driver: %w", ProtocolSNMP, err)
		}
		if err := d.Connect(ctx); err != nil {
			return nil, err
		}
		return d, nil
	}
}

// CLIDialer returns a collector.CLIDialer that logs into the OLT terminal
// over telnet or SSH depending on the config protocol.
func CLIDialer(opts ...cli.Option) collector.CLIDialer {
	return func(ctx context.Context, olt EquipmentConfig) (collector.CLISession, error) {
		caps, ok := CapabilityMatrix[olt.Vendor]
		if !ok {
			return nil, fmt.Errorf("unsupported vendor: %s", olt.Vendor)
		}
		protocol := olt.Protocol
		if protocol == "" {
			protocol = caps.MacTableMethod
			olt.Protocol = protocol
		}
		if !caps.supports(protocol) {
			return nil, fmt.Errorf("vendor %s does not support protocol %s", olt.Vendor, protocol)
		}

		d, err := cli.NewDriver(&olt, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s driver: %w", protocol, err)
		}
		if err := d.Connect(ctx); err != nil {
			return nil, err
		}
		return d, nil
	}
}

// SimulatedDialers returns dialers that answer from in-memory C-Data OLTs
// instead of the network. Every session to the same address sees the same
// ONUs.
func SimulatedDialers(opts ...mock.Option) (collector.SNMPDialer, collector.CLIDialer) {
	open := func(ctx context.Context, olt EquipmentConfig) (*mock.Driver, error) {
		d, err := mock.NewDriver(&olt, append([]mock.Option{mock.WithSeed(seedOf(olt.Address))}, opts...)...)
		if err != nil {
			return nil, err
		}
		if err := d.Connect(ctx); err != nil {
			return nil, err
		}
		return d, nil
	}

	snmpDial := func(ctx context.Context, olt EquipmentConfig) (collector.SNMPSession, error) {
		return open(ctx, olt)
	}
	cliDial := func(ctx context.Context, olt EquipmentConfig) (collector.CLISession, error) {
		return open(ctx, olt)
	}
	return snmpDial, cliDial
}

func seedOf(address string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(address))
	return int64(h.Sum64() >> 1) //nolint:gosec // shifted into range
}

// GetSupportedVendors returns a list of all supported vendors
func GetSupportedVendors() []Vendor {
	vendors := make([]Vendor, 0, len(CapabilityMatrix))
	for v := range CapabilityMatrix {
		vendors = append(vendors, v)
	}
	sort.Slice(vendors, func(i, j int) bool { return vendors[i] < vendors[j] })
	return vendors
}

// GetVendorCapabilities returns the capabilities for a vendor
func GetVendorCapabilities(vendor Vendor) (VendorCapabilities, bool) {
	caps, ok := CapabilityMatrix[vendor]
	return caps, ok
}
