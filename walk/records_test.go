package walk

import (
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoncore/pon-telemetry/snmpfmt"
	"github.com/nanoncore/pon-telemetry/types"
)

func TestBuildOnuRecords(t *testing.T) {
	lines := []string{
		"NSCRTV-FTTX-EPON-MIB::onuMacAddress.38285328 = Hex-STRING: A2 4F 02 18 E5 80",
		"NSCRTV-FTTX-EPON-MIB::onuSn.38285328 = Hex-STRING: 43 44 41 54 00 11",
		"NSCRTV-FTTX-EPON-MIB::onuOperationStatus.38285328 = INTEGER32: 1",
		"NSCRTV-FTTX-EPON-MIB::onuAdminStatus.38285328 = INTEGER32: 2",
		"NSCRTV-FTTX-EPON-MIB::onuTestDistance.38285328 = INTEGER32: 850",
		"NSCRTV-FTTX-EPON-MIB::onuTimeSinceLastRegister.38285328 = Counter32: 60",
		"NSCRTV-FTTX-EPON-MIB::onuVendorId.38285328 = Hex-STRING: 43 44 41 54",
		"NSCRTV-FTTX-EPON-MIB::onuModelId.38285328 = STRING: \"FD511G(0x1234)\"",
		"NSCRTV-FTTX-EPON-MIB::onuReceivedOpticalPower.38285328.2.4 = INTEGER32: -1280",
		"NSCRTV-FTTX-EPON-MIB::onuOperationStatus.1 = INTEGER32: 2",
		"NSCRTV-FTTX-EPON-MIB::onuModelId.1 = Hex-STRING: 46 44 35 30 31",
		"IF-MIB::ifDescr.1 = STRING: \"epon0/1\"",
	}

	res, err := Parse(lines, types.VendorCData, types.TechnologyEPON, WithClock(clock))
	require.NoError(t, err)

	records := BuildOnuRecords(res)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "epon0/0/1/1", first.Interface)
	assert.Equal(t, types.DeviceID(1), first.DeviceID)
	require.NotNil(t, first.Status)
	assert.Equal(t, int64(2), *first.Status)
	assert.Equal(t, "FD501", first.Model)
	assert.Nil(t, first.Power)

	r := records[1]
	assert.Equal(t, "epon0/2/4/16", r.Interface)
	assert.Equal(t, types.DeviceID(38285328), r.DeviceID)
	assert.Equal(t, types.TechnologyEPON, r.Technology)
	assert.Equal(t, uint32(2), r.Slot)
	assert.Equal(t, uint32(4), r.PON)
	assert.Equal(t, uint32(16), r.ONU)
	assert.Equal(t, "2/4", r.PonPort())
	assert.Equal(t, "A2:4F:02:18:E5:80", r.MAC)
	assert.Equal(t, "43:44:41:54:00:11", r.Serial)

	// admin status is reported separately; operation status is not rewritten
	require.NotNil(t, r.Status)
	require.NotNil(t, r.AdminStatus)
	assert.Equal(t, int64(1), *r.Status)
	assert.Equal(t, int64(2), *r.AdminStatus)

	require.NotNil(t, r.Distance)
	assert.Equal(t, int64(850), *r.Distance)
	require.NotNil(t, r.UpSince)
	assert.Equal(t, fixedNow.Add(-time.Minute), *r.UpSince)
	assert.Equal(t, "CDAT", r.Vendor)
	assert.Equal(t, "FD511G", r.Model)
	require.NotNil(t, r.Power)
	assert.InDelta(t, -12.8, *r.Power, 1e-9)
}

func TestBuildOnuRecords_Nil(t *testing.T) {
	assert.Nil(t, BuildOnuRecords(nil))
}

func TestBuildOnuRecords_RenderedOctets(t *testing.T) {
	const prefix = "NSCRTV-FTTX-EPON-MIB::"
	pdus := []struct {
		name string
		pdu  gosnmp.SnmpPDU
	}{
		{"onuMacAddress.16", gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte{0x48, 0x5B, 0x39, 0x41, 0x42, 0x43}}},
		{"onuMacAddress.17", gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte{0xA2, 0x4F, 0x02, 0x18, 0xE5, 0x80}}},
		{"onuSn.16", gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte{}}},
		{"onuVendorId.16", gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte{}}},
		{"onuModelId.16", gosnmp.SnmpPDU{Type: gosnmp.Null}},
		{"onuSn.17", gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte("CDAT00112233")}},
	}

	lines := make([]string, 0, len(pdus))
	for _, p := range pdus {
		lines = append(lines, snmpfmt.Line(prefix+p.name, p.pdu))
	}
	assert.Equal(t, prefix+`onuMacAddress.16 = STRING: "H[9ABC"`, lines[0])

	res, err := Parse(lines, types.VendorCData, types.TechnologyEPON, WithClock(clock))
	require.NoError(t, err)
	records := BuildOnuRecords(res)
	require.Len(t, records, 2)

	assert.Equal(t, "48:5B:39:41:42:43", records[0].MAC)
	assert.Equal(t, "", records[0].Serial)
	assert.Equal(t, "", records[0].Vendor)
	assert.Equal(t, "", records[0].Model)

	assert.Equal(t, "A2:4F:02:18:E5:80", records[1].MAC)
	assert.Equal(t, "CDAT00112233", records[1].Serial)
}

func TestBuildOnuRecords_InvalidReadings(t *testing.T) {
	lines := []string{
		"onuTestDistance.16 = INTEGER: 2147483647",
		"onuReceivedOpticalPower.16.0.0 = INTEGER: 2147483647",
		"onuTestDistance.17 = INTEGER: 0",
		"onuReceivedOpticalPower.17.0.0 = INTEGER: -2147",
	}

	res, err := Parse(lines, types.VendorCData, types.TechnologyEPON)
	require.NoError(t, err)
	records := BuildOnuRecords(res)
	require.Len(t, records, 2)

	offline := records[0]
	assert.Nil(t, offline.Distance)
	assert.Nil(t, offline.Power)

	online := records[1]
	require.NotNil(t, online.Distance)
	assert.Equal(t, int64(0), *online.Distance)
	require.NotNil(t, online.Power)
	assert.InDelta(t, -21.47, *online.Power, 1e-9)
}
