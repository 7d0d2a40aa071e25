package walk

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/nanoncore/pon-telemetry/codec"
	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
	"github.com/nanoncore/pon-telemetry/vendors/common"
)

// BuildOnuRecords folds a parsed walk into one record per interface, ordered
// by device id. Objects outside the ONU branch table are ignored.
func BuildOnuRecords(res *Result) []types.OnuRecord {
	if res == nil {
		return nil
	}

	byIface := make(map[string]*types.OnuRecord)
	record := func(iface string) *types.OnuRecord {
		if r, ok := byIface[iface]; ok {
			return r
		}
		r := &types.OnuRecord{
			Interface:  iface,
			DeviceID:   res.Index[iface],
			Technology: res.Technology,
		}
		if l, err := codec.ParseInterface(iface); err == nil {
			r.Slot, r.PON, r.ONU = l.Slot, l.PON, l.ONU
		}
		byIface[iface] = r
		return r
	}

	for _, ov := range res.Objects {
		branch, ok := cdata.BranchOf(ov.Object)
		if !ok {
			continue
		}
		for iface, value := range ov.Values {
			applyBranch(record(iface), branch, value)
		}
	}

	records := make([]types.OnuRecord, 0, len(byIface))
	for _, r := range byIface {
		records = append(records, *r)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].DeviceID != records[j].DeviceID {
			return records[i].DeviceID < records[j].DeviceID
		}
		return records[i].Interface < records[j].Interface
	})
	return records
}

func applyBranch(r *types.OnuRecord, branch cdata.Branch, value any) {
	switch branch {
	case cdata.BranchMAC:
		r.MAC, _ = common.StringValue(value)
	case cdata.BranchSerial:
		r.Serial, _ = common.StringValue(value)
	case cdata.BranchOperStatus:
		r.Status = intPtr(value)
	case cdata.BranchAdminStatus:
		r.AdminStatus = intPtr(value)
	case cdata.BranchDistance:
		if d := intPtr(value); d != nil && common.IsValidReading(*d) {
			r.Distance = d
		}
	case cdata.BranchUpSince:
		if t, ok := value.(time.Time); ok {
			r.UpSince = &t
		}
	case cdata.BranchVendor:
		if s, ok := common.StringValue(value); ok {
			r.Vendor = printable(s)
		}
	case cdata.BranchModel:
		if s, ok := common.StringValue(value); ok {
			r.Model = modelName(s)
		}
	case cdata.BranchPower:
		// the offline sentinel has already been scaled by the parser
		if f, ok := common.Float64Value(value); ok && common.IsValidReading(int64(math.Round(f*100))) {
			r.Power = &f
		}
	}
}

// printable decodes hex dumps to ASCII and leaves plain text alone.
func printable(s string) string {
	if common.LooksLikeHexPairs(s) {
		return common.HexToPrintable(s)
	}
	return strings.TrimSpace(s)
}

// modelName drops the parenthesised suffix some firmwares append to the model.
func modelName(s string) string {
	s = printable(s)
	if before, _, found := strings.Cut(s, "("); found {
		s = before
	}
	return strings.TrimSpace(s)
}

func intPtr(value any) *int64 {
	n, ok := common.Int64Value(value)
	if !ok {
		return nil
	}
	return &n
}
