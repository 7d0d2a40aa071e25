// Command ponpoll polls C-Data OLTs over SNMP for ONU state, or scrapes the
// OLT MAC table over the terminal, and writes the results to the inventory
// database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/event"
	"github.com/rs/zerolog"

	telemetry "github.com/nanoncore/pon-telemetry"
	"github.com/nanoncore/pon-telemetry/collector"
	"github.com/nanoncore/pon-telemetry/drivers/cli"
	"github.com/nanoncore/pon-telemetry/drivers/snmp"
	"github.com/nanoncore/pon-telemetry/internal/config"
	"github.com/nanoncore/pon-telemetry/internal/logger"
	"github.com/nanoncore/pon-telemetry/store/oracle"
	"github.com/nanoncore/pon-telemetry/store/postgres"
	"github.com/nanoncore/pon-telemetry/types"
)

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if isHelp(err) {
			os.Exit(0)
		}
		if errors.Is(err, errConflictingModes) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "ponpoll:", err)
		stop()
		os.Exit(1)
	}
}

// store is satisfied by both database backends.
type store interface {
	types.OnuStore
	types.MacStore
	Close() error
}

func run(ctx context.Context, opts *Options) error {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.JSONFormat = cfg.LogJSON
	if opts.Debug {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return err
	}

	snmpDial, cliDial, err := dialers(cfg, opts.Simulate, log)
	if err != nil {
		return err
	}

	collectorOpts := []collector.Option{
		collector.WithLogger(log),
		collector.WithSNMPDialer(snmpDial),
		collector.WithCLIDialer(cliDial),
		collector.WithEvents(newEvents(log)),
		collector.WithWorkers(cfg.Workers),
		collector.WithDryRun(opts.DryRun),
	}

	if !opts.DryRun {
		st, err := openStore(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		if st != nil {
			defer func() {
				if err := st.Close(); err != nil {
					log.Warn().Err(err).Msg("failed to close database")
				}
			}()
			collectorOpts = append(collectorOpts, collector.WithOnuStore(st), collector.WithMacStore(st))
		}
	}

	c := collector.New(collectorOpts...)

	switch {
	case opts.MacTable:
		if cfg.Terminal.Address == "" {
			return errors.New("TELNET_HOST is required for --mac-table")
		}
		_, err := c.CollectMacTable(ctx, cfg.Terminal)
		return err

	case opts.Interface != "":
		olt, err := pickOLT(cfg.OLTs, opts.OLT)
		if err != nil {
			return err
		}
		r, err := c.QueryInterface(ctx, olt, opts.Interface)
		if err != nil {
			return err
		}
		logRecord(log, r)
		return nil

	default:
		if len(cfg.OLTs) == 0 {
			return errors.New("TARGET_IP is required")
		}
		var failed int
		for _, res := range c.CollectAll(ctx, cfg.OLTs) {
			if res.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d OLT polls failed", failed, len(cfg.OLTs))
		}
		return nil
	}
}

func dialers(cfg *config.Config, simulate bool, log zerolog.Logger) (collector.SNMPDialer, collector.CLIDialer, error) {
	if simulate {
		log.Warn().Msg("simulated OLTs, no device is contacted")
		snmpDial, cliDial := telemetry.SimulatedDialers()
		return snmpDial, cliDial, nil
	}

	resolver, err := snmp.NewResolver(snmp.WithMIBs(cfg.MIBDirs, cfg.MIBModules...))
	if err != nil {
		return nil, nil, err
	}
	return telemetry.SNMPDialer(snmp.WithResolver(resolver), snmp.WithLogger(log)),
		telemetry.CLIDialer(cli.WithLogger(log)),
		nil
}

func openStore(ctx context.Context, db config.Database, log zerolog.Logger) (store, error) {
	switch db.Driver {
	case config.DriverOracle:
		return oracle.Open(ctx, db.Oracle, oracle.WithLogger(log))
	case config.DriverPostgres:
		return postgres.Open(ctx, db.DSN, postgres.WithLogger(log))
	default:
		log.Warn().Str("driver", db.Driver).Msg("no database configured, results are only logged")
		return nil, nil
	}
}

func pickOLT(olts []types.EquipmentConfig, address string) (types.EquipmentConfig, error) {
	if len(olts) == 0 {
		return types.EquipmentConfig{}, errors.New("TARGET_IP is required")
	}
	if address == "" {
		return olts[0], nil
	}
	for _, olt := range olts {
		if olt.Address == address {
			return olt, nil
		}
	}
	return types.EquipmentConfig{}, fmt.Errorf("OLT %s is not in TARGET_IP", address)
}

func newEvents(log zerolog.Logger) *event.Manager {
	m := event.NewManager("ponpoll")

	m.On(collector.EventOnusCollected, event.ListenerFunc(func(e event.Event) error {
		report, ok := e.Get("report").(*collector.OnuReport)
		if !ok {
			return nil
		}
		for _, d := range report.Diagnostics {
			log.Debug().Str("olt", report.OLT).Int("line", d.Line).Str("reason", d.Reason).Msg("walk line not used")
		}
		if !report.Stored {
			for i := range report.Records {
				logRecord(log, &report.Records[i])
			}
		}
		return nil
	}))

	m.On(collector.EventMacsCollected, event.ListenerFunc(func(e event.Event) error {
		report, ok := e.Get("report").(*collector.MacReport)
		if !ok || report.Stored {
			return nil
		}
		for _, r := range report.Records {
			log.Info().Str("olt", report.OLT).Str("mac", r.MAC).Uint16("vlan", r.VLAN).Str("port", r.Port).Msg("MAC entry")
		}
		return nil
	}))

	m.On(collector.EventPollFailed, event.ListenerFunc(func(e event.Event) error {
		log.Debug().Interface("olt", e.Get("olt")).Msg("poll failure published")
		return nil
	}))

	return m
}

func logRecord(log zerolog.Logger, r *types.OnuRecord) {
	ev := log.Info().
		Str("interface", r.Interface).
		Uint32("ifindex", uint32(r.DeviceID)).
		Str("mac", r.MAC).
		Str("serial", r.Serial).
		Str("vendor", r.Vendor).
		Str("model", r.Model)
	if r.Status != nil {
		ev = ev.Int64("status", *r.Status)
	}
	if r.AdminStatus != nil {
		ev = ev.Int64("admin_status", *r.AdminStatus)
	}
	if r.Distance != nil {
		ev = ev.Int64("distance", *r.Distance)
	}
	if r.Power != nil {
		ev = ev.Float64("power", *r.Power)
	}
	if r.UpSince != nil {
		ev = ev.Time("up_since", *r.UpSince)
	}
	ev.Msg("ONU")
}
