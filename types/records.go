package types

import (
	"fmt"
	"net"
	"time"
)

// OnuRecord is the per-ONU row assembled from an SNMP walk.
// Optional attributes are nil when the OLT did not report them.
type OnuRecord struct {
	// Interface is the logical interface id, e.g. "gpon0/0/1/3"
	Interface string

	// DeviceID is the raw packed index (IFINDEX)
	DeviceID DeviceID

	// Technology of the PON port
	Technology Technology

	// Slot, PON and ONU as decoded from DeviceID
	Slot uint32
	PON  uint32
	ONU  uint32

	MAC    string
	Serial string

	// Status is the operation status as reported by the OLT
	Status *int64

	// AdminStatus is reported separately and never folded into Status
	AdminStatus *int64

	// Distance in meters
	Distance *int64

	// UpSince is the wall-clock time of the last registration
	UpSince *time.Time

	Vendor string
	Model  string

	// Power is the received optical power in dBm
	Power *float64
}

// PonPort returns "slot/pon", the PON_PORT column value.
func (r OnuRecord) PonPort() string {
	return fmt.Sprintf("%d/%d", r.Slot, r.PON)
}

// MacTableRecord is one row of an OLT MAC address table.
type MacTableRecord struct {
	// MAC in colon notation; dialect A keeps the device's casing
	MAC  string
	VLAN uint16
	// Port as "a/b/c" or "a/b/c/onu"
	Port string
}

// HardwareAddr parses MAC into a net.HardwareAddr.
func (r MacTableRecord) HardwareAddr() (net.HardwareAddr, error) {
	return net.ParseMAC(r.MAC)
}

// SkippedLine is an input line a text parser could not use.
type SkippedLine struct {
	Line   int // 1-based
	Text   string
	Reason string
}
