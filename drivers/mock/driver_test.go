package mock

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoncore/pon-telemetry/collector"
	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
)

func connected(t *testing.T, cfg types.EquipmentConfig, opts ...Option) *Driver {
	t.Helper()
	d, err := NewDriver(&cfg, opts...)
	require.NoError(t, err)
	require.NoError(t, d.Connect(context.Background()))
	return d
}

func TestNewDriver(t *testing.T) {
	_, err := NewDriver(nil)
	assert.Error(t, err)

	d := connected(t, types.EquipmentConfig{Address: "sim"}, WithSeed(1), WithONUs(10))
	ifaces := d.Interfaces()
	require.Len(t, ifaces, 10)
	assert.Equal(t, "gpon0/0/1/1", ifaces[0])
	assert.Contains(t, ifaces, "gpon0/0/2/2")
}

func TestWalkLines(t *testing.T) {
	d := connected(t, types.EquipmentConfig{Technology: types.TechnologyEPON}, WithSeed(7), WithONUs(3))

	oid, err := cdata.OID(cdata.BranchMAC, types.TechnologyEPON)
	require.NoError(t, err)

	lines, err := d.WalkLines(context.Background(), oid)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "NSCRTV-FTTX-EPON-MIB::onuMacAddress."), line)
		assert.Contains(t, line, "= HEX-STRING: 00 1E A9 ")
	}

	descr, err := d.WalkLines(context.Background(), cdata.OIDIfDescr)
	require.NoError(t, err)
	assert.Equal(t, []string{`IF-MIB::ifDescr.1 = STRING: "epon0/0/1"`}, descr)

	require.NoError(t, d.Disconnect(context.Background()))
	lines, err = d.WalkLines(context.Background(), oid)
	assert.Error(t, err)
	assert.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "Error: "))
}

func TestExecCommand(t *testing.T) {
	d := connected(t, types.EquipmentConfig{}, WithSeed(3), WithONUs(2))

	out, err := d.ExecCommand(context.Background(), cdata.ShowMacCommand)
	require.NoError(t, err)
	assert.Contains(t, out, "dynamic")
	assert.Contains(t, out, "Total: 2")

	out, err = d.ExecCommand(context.Background(), "reboot")
	require.Error(t, err)
	assert.Equal(t, cdata.ErrUnknownCommand, cdata.GetErrorCode(err))
	assert.Equal(t, "% Unknown command.", out)

	assert.Equal(t, []string{"connect", cdata.ShowMacCommand, "reboot"}, d.GetCommandHistory())
}

func TestSimulatedPoll(t *testing.T) {
	olt := types.EquipmentConfig{Address: "sim", Vendor: types.VendorCData}

	var sim *Driver
	c := collector.New(
		collector.WithSNMPDialer(func(ctx context.Context, cfg types.EquipmentConfig) (collector.SNMPSession, error) {
			sim = connected(t, cfg, WithSeed(42), WithONUs(4))
			return sim, nil
		}),
		collector.WithCLIDialer(func(ctx context.Context, cfg types.EquipmentConfig) (collector.CLISession, error) {
			return connected(t, cfg, WithSeed(42), WithONUs(4)), nil
		}),
	)

	report, err := c.CollectONUs(context.Background(), olt)
	require.NoError(t, err)
	assert.Equal(t, types.TechnologyGPON, report.Technology)
	assert.Empty(t, report.Diagnostics)
	require.Len(t, report.Records, 4)

	got := make([]string, 0, len(report.Records))
	for _, r := range report.Records {
		got = append(got, r.Interface)
		assert.Regexp(t, `^00:1E:A9(:[0-9A-F]{2}){3}$`, r.MAC)
		assert.Equal(t, "CDAT", r.Vendor)
		assert.NotContains(t, r.Model, "(")
		require.NotNil(t, r.Power)
		assert.Less(t, *r.Power, -17.9)
	}
	assert.Equal(t, sim.Interfaces(), got)

	one, err := c.QueryInterface(context.Background(), olt, got[2])
	require.NoError(t, err)
	assert.Equal(t, report.Records[2].MAC, one.MAC)

	for _, vendor := range []types.Vendor{types.VendorCData, types.VendorVSOL} {
		t.Run(string(vendor), func(t *testing.T) {
			macs, err := c.CollectMacTable(context.Background(), types.EquipmentConfig{Address: "sim", Vendor: vendor})
			require.NoError(t, err)
			assert.Len(t, macs.Records, 4)
		})
	}
}
