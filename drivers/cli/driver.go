package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
	"github.com/nanoncore/pon-telemetry/vendors/common"
)

// errorTranslators turn raw terminal errors into vendor error codes
var errorTranslators = map[types.Vendor]func(error) error{
	types.VendorCData: cdata.TranslateError,
}

// Driver implements types.CLIExecutor over SSH or telnet
type Driver struct {
	config        *types.EquipmentConfig
	sshClient     *ssh.Client
	expectSession *ExpectSession
	logger        zerolog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a new CLI driver
func NewDriver(config *types.EquipmentConfig, opts ...Option) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	// Default SSH/telnet port
	if config.Port == 0 {
		if config.Protocol == types.ProtocolTelnet {
			config.Port = 23
		} else {
			config.Port = 22
		}
	}

	// Default timeout
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	d := &Driver{config: config, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Connect opens the terminal session and logs in
func (d *Driver) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := ExpectSessionConfig{
		Vendor:         string(d.config.Vendor),
		Timeout:        d.config.Timeout,
		CustomPrompt:   common.MetadataStringWithDefault(d.config.Metadata, "", "cli_prompt"),
		Username:       d.config.Username,
		Password:       d.config.Password,
		EnablePassword: common.MetadataStringWithDefault(d.config.Metadata, d.config.Password, "enable_password"),
		Logger:         d.logger,
	}

	if d.config.Protocol == types.ProtocolTelnet {
		cfg.TelnetCommand = fmt.Sprintf("telnet %s %d", d.config.Address, d.config.Port)
	} else {
		client, err := d.dialSSH()
		if err != nil {
			return d.translate(err)
		}
		d.sshClient = client
		cfg.SSHClient = client
	}

	expectSession, err := NewExpectSession(cfg)
	if err != nil {
		if d.sshClient != nil {
			d.sshClient.Close()
			d.sshClient = nil
		}
		return d.translate(fmt.Errorf("failed to create expect session: %w", err))
	}

	d.expectSession = expectSession
	d.logger.Info().
		Str("olt", d.config.Address).
		Str("protocol", string(d.config.Protocol)).
		Msg("terminal session open")

	return nil
}

func (d *Driver) dialSSH() (*ssh.Client, error) {
	// Some devices (like V-Sol OLTs) may require keyboard-interactive instead of password
	keyboardInteractive := ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = d.config.Password
		}
		return answers, nil
	})

	sshConfig := &ssh.ClientConfig{
		User: d.config.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(d.config.Password),
			keyboardInteractive,
		},
		Timeout:         d.config.Timeout,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // OLT host keys are not provisioned
	}

	target := fmt.Sprintf("%s:%d", d.config.Address, d.config.Port)

	client, err := ssh.Dial("tcp", target, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to dial SSH: %w", err)
	}
	return client, nil
}

// Disconnect closes the session
func (d *Driver) Disconnect(ctx context.Context) error {
	if d.expectSession != nil {
		_ = d.expectSession.Close()
		d.expectSession = nil
	}
	if d.sshClient != nil {
		err := d.sshClient.Close()
		d.sshClient = nil
		return err
	}
	return nil
}

// IsConnected returns true if connected
func (d *Driver) IsConnected() bool {
	return d.expectSession != nil
}

// HealthCheck sends an empty line and waits for the prompt
func (d *Driver) HealthCheck(ctx context.Context) error {
	_, err := d.ExecCommand(ctx, "")
	return err
}

// ExecCommand executes a CLI command and returns the cleaned output
func (d *Driver) ExecCommand(ctx context.Context, command string) (string, error) {
	if !d.IsConnected() {
		return "", fmt.Errorf("not connected to device")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left > 0 && left < d.config.Timeout {
			d.expectSession.SetTimeout(left)
			defer d.expectSession.SetTimeout(d.config.Timeout)
		}
	}

	output, err := d.expectSession.Execute(command)
	if err != nil {
		return output, d.translate(fmt.Errorf("command failed: %w", err))
	}

	if line, ok := errorLine(output); ok {
		return output, d.translate(fmt.Errorf("command %q rejected: %w", command, errors.New(line)))
	}

	return output, nil
}

// errorLine returns the first "%" line of output. OLTs report rejected
// commands that way and still return to the prompt.
func errorLine(output string) (string, bool) {
	for _, line := range common.Lines(output) {
		if strings.HasPrefix(line, "%") {
			return line, true
		}
	}
	return "", false
}

// ExecCommands executes multiple CLI commands sequentially
func (d *Driver) ExecCommands(ctx context.Context, commands []string) ([]string, error) {
	outputs := make([]string, 0, len(commands))
	for _, cmd := range commands {
		out, err := d.ExecCommand(ctx, cmd)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func (d *Driver) translate(err error) error {
	if tr, ok := errorTranslators[d.config.Vendor]; ok {
		return tr(err)
	}
	return err
}

// Ensure Driver implements CLIExecutor
var _ types.CLIExecutor = (*Driver)(nil)
