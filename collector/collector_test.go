package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gookit/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoncore/pon-telemetry/codec"
	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fakeSNMP struct {
	mu     sync.Mutex
	walks  map[string][]string
	gets   map[string][]string
	failOn string

	walked []string
	got    []string
	closed bool
}

func (f *fakeSNMP) WalkLines(_ context.Context, oid string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.walked = append(f.walked, oid)
	if oid == f.failOn {
		return []string{"Error: request timeout"}, errors.New("request timeout")
	}
	return f.walks[oid], nil
}

func (f *fakeSNMP) GetLines(_ context.Context, oids ...string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, oid := range oids {
		f.got = append(f.got, oid)
		out = append(out, f.gets[oid]...)
	}
	return out, nil
}

func (f *fakeSNMP) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeCLI struct {
	output   string
	err      error
	commands []string
	closed   bool
}

func (f *fakeCLI) ExecCommand(_ context.Context, command string) (string, error) {
	f.commands = append(f.commands, command)
	return f.output, f.err
}

func (f *fakeCLI) ExecCommands(ctx context.Context, commands []string) ([]string, error) {
	out := make([]string, 0, len(commands))
	for _, c := range commands {
		s, err := f.ExecCommand(ctx, c)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeCLI) Disconnect(context.Context) error {
	f.closed = true
	return nil
}

type fakeStore struct {
	mu   sync.Mutex
	onus map[string][]types.OnuRecord
	macs map[string][]types.MacTableRecord
	err  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		onus: make(map[string][]types.OnuRecord),
		macs: make(map[string][]types.MacTableRecord),
	}
}

func (s *fakeStore) SaveOnuRecords(_ context.Context, olt string, records []types.OnuRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.onus[olt] = records
	return nil
}

func (s *fakeStore) SaveMacRecords(_ context.Context, olt string, records []types.MacTableRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.macs[olt] = records
	return nil
}

func snmpDialer(sessions map[string]*fakeSNMP) SNMPDialer {
	return func(_ context.Context, olt types.EquipmentConfig) (SNMPSession, error) {
		s, ok := sessions[olt.Address]
		if !ok {
			return nil, errors.New("connection refused")
		}
		return s, nil
	}
}

func mustOID(t *testing.T, branch cdata.Branch, tech types.Technology) string {
	t.Helper()
	oid, err := cdata.OID(branch, tech)
	require.NoError(t, err)
	return oid
}

func eponSession(t *testing.T) *fakeSNMP {
	return &fakeSNMP{walks: map[string][]string{
		cdata.OIDIfDescr: {
			`IF-MIB::ifDescr.1 = STRING: "ethernet0/1"`,
			`IF-MIB::ifDescr.9 = STRING: "epon0/0/1"`,
		},
		mustOID(t, cdata.BranchMAC, types.TechnologyEPON): {
			"NSCRTV-FTTX-EPON-MIB::onuMacAddress.38285328 = Hex-STRING: A2 4F 02 18 E5 80",
		},
		mustOID(t, cdata.BranchOperStatus, types.TechnologyEPON): {
			"NSCRTV-FTTX-EPON-MIB::onuOperationStatus.38285328 = INTEGER32: 1",
			"NSCRTV-FTTX-EPON-MIB::onuOperationStatus.38285328 INTEGER32 1",
		},
		mustOID(t, cdata.BranchPower, types.TechnologyEPON): {
			"NSCRTV-FTTX-EPON-MIB::onuReceivedOpticalPower.38285328.2.4 = INTEGER32: -2150",
		},
	}}
}

func TestDetectTechnology(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		want    types.Technology
		wantErr bool
	}{
		{
			name:  "epon interface",
			lines: []string{`IF-MIB::ifDescr.1 = STRING: "ge0/1"`, `IF-MIB::ifDescr.2 = STRING: "EPON0/0/1"`},
			want:  types.TechnologyEPON,
		},
		{
			name:  "gpon interface",
			lines: []string{`IF-MIB::ifDescr.3 = STRING: "gpon0/0/3"`},
			want:  types.TechnologyGPON,
		},
		{
			name:  "bare pon defaults to gpon",
			lines: []string{`IF-MIB::ifDescr.3 = STRING: "PON 0/1"`},
			want:  types.TechnologyGPON,
		},
		{
			name:    "pon inside another word is ignored",
			lines:   []string{`IF-MIB::ifDescr.3 = STRING: "response-port"`},
			wantErr: true,
		},
		{
			name:    "xgpon and xpon are not word starts",
			lines:   []string{`IF-MIB::ifDescr.3 = STRING: "xgpon0/1"`, `IF-MIB::ifDescr.4 = STRING: "xpon 2"`},
			wantErr: true,
		},
		{
			name:  "first word in a description decides",
			lines: []string{`IF-MIB::ifDescr.3 = STRING: "gpon-epon combo 0/1"`},
			want:  types.TechnologyGPON,
		},
		{
			name:    "transport error",
			lines:   []string{"Error: no response"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSNMP{walks: map[string][]string{cdata.OIDIfDescr: tt.lines}}
			got, err := DetectTechnology(context.Background(), s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectONUs(t *testing.T) {
	olt := types.EquipmentConfig{Address: "10.0.0.1", Vendor: types.VendorCData}

	t.Run("detects technology and stores records", func(t *testing.T) {
		sess := eponSession(t)
		store := newFakeStore()
		c := New(
			WithSNMPDialer(snmpDialer(map[string]*fakeSNMP{olt.Address: sess})),
			WithOnuStore(store),
			WithClock(clock),
		)

		report, err := c.CollectONUs(context.Background(), olt)
		require.NoError(t, err)

		assert.Equal(t, types.TechnologyEPON, report.Technology)
		assert.True(t, report.Stored)
		assert.True(t, sess.closed)
		require.Len(t, report.Records, 1)
		r := report.Records[0]
		assert.Equal(t, "epon0/2/4/16", r.Interface)
		assert.Equal(t, "A2:4F:02:18:E5:80", r.MAC)
		require.NotNil(t, r.Power)
		assert.InDelta(t, -21.5, *r.Power, 1e-9)
		require.Len(t, report.Diagnostics, 1)
		assert.Equal(t, report.Records, store.onus[olt.Address])

		// ifDescr plus one walk per branch
		assert.Len(t, sess.walked, len(cdata.OIDTable)+1)
	})

	t.Run("dry run stores nothing", func(t *testing.T) {
		store := newFakeStore()
		c := New(
			WithSNMPDialer(snmpDialer(map[string]*fakeSNMP{olt.Address: eponSession(t)})),
			WithOnuStore(store),
			WithDryRun(true),
		)

		report, err := c.CollectONUs(context.Background(), olt)
		require.NoError(t, err)
		assert.False(t, report.Stored)
		assert.Empty(t, store.onus)
	})

	t.Run("configured technology skips detection", func(t *testing.T) {
		sess := eponSession(t)
		c := New(WithSNMPDialer(snmpDialer(map[string]*fakeSNMP{olt.Address: sess})))

		withTech := olt
		withTech.Technology = types.TechnologyEPON
		_, err := c.CollectONUs(context.Background(), withTech)
		require.NoError(t, err)
		assert.NotContains(t, sess.walked, cdata.OIDIfDescr)
	})

	t.Run("unsupported vendor", func(t *testing.T) {
		vsol := types.EquipmentConfig{Address: olt.Address, Vendor: types.VendorVSOL, Technology: types.TechnologyGPON}
		c := New(WithSNMPDialer(snmpDialer(map[string]*fakeSNMP{olt.Address: eponSession(t)})))

		_, err := c.CollectONUs(context.Background(), vsol)
		assert.ErrorIs(t, err, codec.ErrUnsupportedVariant)
	})

	t.Run("walk failure", func(t *testing.T) {
		sess := eponSession(t)
		sess.failOn = mustOID(t, cdata.BranchMAC, types.TechnologyEPON)
		c := New(WithSNMPDialer(snmpDialer(map[string]*fakeSNMP{olt.Address: sess})))

		_, err := c.CollectONUs(context.Background(), olt)
		assert.ErrorContains(t, err, "request timeout")
		assert.True(t, sess.closed)
	})

	t.Run("store failure keeps report", func(t *testing.T) {
		store := newFakeStore()
		store.err = errors.New("ORA-00942")
		c := New(
			WithSNMPDialer(snmpDialer(map[string]*fakeSNMP{olt.Address: eponSession(t)})),
			WithOnuStore(store),
		)

		report, err := c.CollectONUs(context.Background(), olt)
		assert.ErrorContains(t, err, "ORA-00942")
		require.NotNil(t, report)
		assert.False(t, report.Stored)
	})

	t.Run("no dialer", func(t *testing.T) {
		_, err := New().CollectONUs(context.Background(), olt)
		assert.Error(t, err)
	})
}

func TestQueryInterface(t *testing.T) {
	olt := types.EquipmentConfig{Address: "10.0.0.2", Vendor: types.VendorCData}
	const id = "16779546"

	instance := func(branch cdata.Branch) string {
		return mustOID(t, branch, types.TechnologyGPON) + "." + id
	}

	sess := &fakeSNMP{
		gets: map[string][]string{
			instance(cdata.BranchMAC):        {"NSCRTV-FTTX-GPON-MIB::onuMacAddress." + id + " = Hex-STRING: 00 11 22 33 44 55"},
			instance(cdata.BranchOperStatus): {"NSCRTV-FTTX-GPON-MIB::onuOperationStatus." + id + " = INTEGER: 1"},
			instance(cdata.BranchDistance):   {"NSCRTV-FTTX-GPON-MIB::onuTestDistance." + id + " = INTEGER: 1200"},
		},
		walks: map[string][]string{
			instance(cdata.BranchPower): {"NSCRTV-FTTX-GPON-MIB::onuReceivedOpticalPower." + id + ".1.1 = INTEGER: -1900"},
		},
	}
	c := New(WithSNMPDialer(snmpDialer(map[string]*fakeSNMP{olt.Address: sess})), WithClock(clock))

	r, err := c.QueryInterface(context.Background(), olt, "gpon0/0/3/26")
	require.NoError(t, err)

	assert.Equal(t, "gpon0/0/3/26", r.Interface)
	assert.Equal(t, types.DeviceID(16779546), r.DeviceID)
	assert.Equal(t, "00:11:22:33:44:55", r.MAC)
	require.NotNil(t, r.Distance)
	assert.Equal(t, int64(1200), *r.Distance)
	require.NotNil(t, r.Power)
	assert.InDelta(t, -19.0, *r.Power, 1e-9)

	assert.Equal(t, []string{instance(cdata.BranchPower)}, sess.walked)
	assert.Len(t, sess.got, len(cdata.OIDTable)-1)
	assert.True(t, sess.closed)

	t.Run("nothing answered", func(t *testing.T) {
		c := New(WithSNMPDialer(snmpDialer(map[string]*fakeSNMP{olt.Address: {}})))
		_, err := c.QueryInterface(context.Background(), olt, "epon0/2/4/16")
		assert.ErrorIs(t, err, ErrNoSuchONU)
	})

	t.Run("bad interface", func(t *testing.T) {
		_, err := c.QueryInterface(context.Background(), olt, "xpon0/1")
		assert.Error(t, err)
	})
}

func TestCollectMacTable(t *testing.T) {
	terminal := types.EquipmentConfig{Address: "10.0.0.3", Vendor: types.VendorCData}

	sess := &fakeCLI{output: "aa:bb:cc:dd:ee:ff 100 - gpon0/1 5 3 dynamic\nMAC VLAN PORT\n"}
	store := newFakeStore()
	c := New(
		WithCLIDialer(func(context.Context, types.EquipmentConfig) (CLISession, error) { return sess, nil }),
		WithMacStore(store),
	)

	report, err := c.CollectMacTable(context.Background(), terminal)
	require.NoError(t, err)

	want := []types.MacTableRecord{{MAC: "aa:bb:cc:dd:ee:ff", VLAN: 100, Port: "gpon0/1/5"}}
	assert.Equal(t, want, report.Records)
	assert.Len(t, report.Skipped, 1)
	assert.True(t, report.Stored)
	assert.Equal(t, want, store.macs[terminal.Address])
	assert.Equal(t, []string{"show mac-address all"}, sess.commands)
	assert.True(t, sess.closed)

	t.Run("command failure", func(t *testing.T) {
		failing := &fakeCLI{err: errors.New("timeout waiting for prompt")}
		c := New(WithCLIDialer(func(context.Context, types.EquipmentConfig) (CLISession, error) { return failing, nil }))
		_, err := c.CollectMacTable(context.Background(), terminal)
		assert.ErrorContains(t, err, "timeout waiting for prompt")
		assert.True(t, failing.closed)
	})

	t.Run("rejected command", func(t *testing.T) {
		rejecting := &fakeCLI{
			output: "% Unknown command.",
			err:    cdata.TranslateError(errors.New("% Unknown command.")),
		}
		store := newFakeStore()
		c := New(
			WithCLIDialer(func(context.Context, types.EquipmentConfig) (CLISession, error) { return rejecting, nil }),
			WithMacStore(store),
		)
		_, err := c.CollectMacTable(context.Background(), terminal)
		require.Error(t, err)
		assert.Equal(t, cdata.ErrUnknownCommand, cdata.GetErrorCode(err))
		assert.Empty(t, store.macs)
	})

	t.Run("no dialer", func(t *testing.T) {
		_, err := New().CollectMacTable(context.Background(), terminal)
		assert.Error(t, err)
	})
}

func TestCollectAll(t *testing.T) {
	good := types.EquipmentConfig{Address: "10.0.0.1", Vendor: types.VendorCData}
	bad := types.EquipmentConfig{Address: "10.0.0.9", Vendor: types.VendorCData}

	events := event.NewManager("test")
	var (
		mu     sync.Mutex
		failed []string
		done   []string
	)
	events.On(EventPollFailed, event.ListenerFunc(func(e event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, e.Get("olt").(string))
		return nil
	}))
	events.On(EventOnusCollected, event.ListenerFunc(func(e event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		done = append(done, e.Get("olt").(string))
		return nil
	}))

	c := New(
		WithSNMPDialer(snmpDialer(map[string]*fakeSNMP{good.Address: eponSession(t)})),
		WithEvents(events),
		WithWorkers(2),
		WithDryRun(true),
	)

	results := c.CollectAll(context.Background(), []types.EquipmentConfig{good, bad})
	require.Len(t, results, 2)

	byOLT := make(map[string]PollResult)
	for _, r := range results {
		byOLT[r.OLT.Address] = r
	}
	require.NoError(t, byOLT[good.Address].Err)
	assert.Len(t, byOLT[good.Address].Report.Records, 1)
	assert.ErrorContains(t, byOLT[bad.Address].Err, "connection refused")

	assert.Equal(t, []string{bad.Address}, failed)
	assert.Equal(t, []string{good.Address}, done)
}
