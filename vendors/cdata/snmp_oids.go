package cdata

import (
	"fmt"

	"github.com/nanoncore/pon-telemetry/types"
)

// C-Data OLT SNMP OIDs (NSCRTV FTTX MIBs)
// Enterprise OID: 1.3.6.1.4.1.17409
//
// ONU rows are indexed by the packed device id, see index.go.
// The optical power table carries two extra sub-indices after the device id.

const (
	// Standard MIB-II, used for EPON/GPON autodetection
	OIDIfDescr = "1.3.6.1.2.1.2.2.1.2"

	// MIB modules the object names live in
	ModuleEPON = "NSCRTV-FTTX-EPON-MIB"
	ModuleGPON = "NSCRTV-FTTX-GPON-MIB"
)

// Branch names one ONU attribute table.
type Branch string

const (
	BranchMAC         Branch = "MAC"
	BranchOperStatus  Branch = "OPERATION_STATUS"
	BranchAdminStatus Branch = "ADMIN_STATUS"
	BranchDistance    Branch = "DISTANCE"
	BranchUpSince     Branch = "UP_SINCE"
	BranchVendor      Branch = "VENDOR"
	BranchModel       Branch = "MODEL"
	BranchSerial      Branch = "SERIAL_NO"
	BranchPower       Branch = "POWER"
)

// OIDEntry is one row of the branch table.
type OIDEntry struct {
	Branch Branch
	// Object is the MIB object name; both modules use the same names
	Object string
	EPON   string
	GPON   string
}

// OIDTable lists every ONU attribute table in walk order.
var OIDTable = []OIDEntry{
	{BranchMAC, "onuMacAddress", "1.3.6.1.4.1.17409.2.3.4.1.1.7", "1.3.6.1.4.1.17409.2.8.4.6.1.1.2"},
	{BranchOperStatus, "onuOperationStatus", "1.3.6.1.4.1.17409.2.3.4.1.1.8", "1.3.6.1.4.1.17409.2.8.4.1.1.7"},
	{BranchAdminStatus, "onuAdminStatus", "1.3.6.1.4.1.17409.2.3.4.1.1.9", "1.3.6.1.4.1.17409.2.8.4.1.1.8"},
	{BranchDistance, "onuTestDistance", "1.3.6.1.4.1.17409.2.3.4.1.1.15", "1.3.6.1.4.1.17409.2.8.4.1.1.9"},
	{BranchUpSince, "onuTimeSinceLastRegister", "1.3.6.1.4.1.17409.2.3.4.1.1.18", "1.3.6.1.4.1.17409.2.8.4.1.1.12"},
	{BranchVendor, "onuVendorId", "1.3.6.1.4.1.17409.2.3.4.1.1.25", "1.3.6.1.4.1.17409.2.8.4.1.1.5"},
	{BranchModel, "onuModelId", "1.3.6.1.4.1.17409.2.3.4.1.1.26", "1.3.6.1.4.1.17409.2.8.4.1.1.6"},
	{BranchSerial, "onuSn", "1.3.6.1.4.1.17409.2.3.4.1.1.28", "1.3.6.1.4.1.17409.2.8.4.1.1.3"},
	{BranchPower, "onuReceivedOpticalPower", "1.3.6.1.4.1.17409.2.3.4.2.1.4", "1.3.6.1.4.1.17409.2.8.4.4.1.4"},
}

// OID returns the table OID of branch for tech.
func OID(branch Branch, tech types.Technology) (string, error) {
	for _, e := range OIDTable {
		if e.Branch != branch {
			continue
		}
		switch tech {
		case types.TechnologyEPON:
			return e.EPON, nil
		case types.TechnologyGPON:
			return e.GPON, nil
		default:
			return "", fmt.Errorf("unknown technology %q", tech)
		}
	}
	return "", fmt.Errorf("unknown branch %q", branch)
}

// BranchOf returns the branch whose MIB object is named object.
func BranchOf(object string) (Branch, bool) {
	for _, e := range OIDTable {
		if e.Object == object {
			return e.Branch, true
		}
	}
	return "", false
}

// Module returns the MIB module that names the ONU tables of tech.
func Module(tech types.Technology) string {
	if tech == types.TechnologyGPON {
		return ModuleGPON
	}
	return ModuleEPON
}

// InstanceOID appends a device id to a branch OID. Power rows carry two more
// sub-indices, so for BranchPower the result is a subtree to walk, not a GET target.
func InstanceOID(branch Branch, tech types.Technology, id types.DeviceID) (string, error) {
	base, err := OID(branch, tech)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%d", base, uint32(id)), nil
}
