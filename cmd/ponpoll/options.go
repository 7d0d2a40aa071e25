package main

import (
	"errors"

	"github.com/jessevdk/go-flags"
)

// Options defines command line options.
type Options struct {
	EnvFile   string `short:"e" long:"env-file" description:"dotenv file to load before the environment"`
	DryRun    bool   `short:"n" long:"dry-run" description:"parse and log results without writing to the database"`
	MacTable  bool   `short:"m" long:"mac-table" description:"scrape the MAC table over the terminal instead of polling ONUs"`
	Interface string `short:"i" long:"interface" description:"query a single ONU, e.g. epon0/2/4/16"`
	OLT       string `short:"o" long:"olt" description:"OLT address for --interface (default: first TARGET_IP)"`
	Simulate  bool   `short:"s" long:"simulate" description:"answer from simulated OLTs instead of the network"`
	Debug     bool   `short:"d" long:"debug" description:"debug logging"`
}

var errConflictingModes = errors.New("--mac-table and --interface are mutually exclusive")

// parseOptions returns parsed command-line flags in Options struct
func parseOptions(args []string) (*Options, error) {
	opts := &Options{}
	parser := flags.NewParser(opts, flags.Default)
	parser.Name = "ponpoll"
	parser.Usage = "[OPTIONS]"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if opts.MacTable && opts.Interface != "" {
		return nil, errConflictingModes
	}
	return opts, nil
}

func isHelp(err error) bool {
	return flags.WroteHelp(err)
}
