package telemetry

// Re-export the types sub-package so callers of the root package do not
// need a second import for the common names.

import (
	"github.com/nanoncore/pon-telemetry/types"
)

type (
	Protocol        = types.Protocol
	Vendor          = types.Vendor
	Technology      = types.Technology
	EquipmentConfig = types.EquipmentConfig
	CLIExecutor     = types.CLIExecutor
	SNMPExecutor    = types.SNMPExecutor
	OnuRecord       = types.OnuRecord
	MacTableRecord  = types.MacTableRecord
	OnuStore        = types.OnuStore
	MacStore        = types.MacStore
)

const (
	ProtocolSNMP   = types.ProtocolSNMP
	ProtocolCLI    = types.ProtocolCLI
	ProtocolTelnet = types.ProtocolTelnet

	VendorCData = types.VendorCData
	VendorVSOL  = types.VendorVSOL

	TechnologyEPON = types.TechnologyEPON
	TechnologyGPON = types.TechnologyGPON
)
