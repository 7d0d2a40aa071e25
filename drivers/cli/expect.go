package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	expect "github.com/google/goexpect"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/nanoncore/pon-telemetry/vendors/common"
)

// DefaultPromptPattern matches common CLI prompts like "hostname#" or "hostname>"
const DefaultPromptPattern = `[\w\-\[\]()]+[#>]\s*$`

// VendorPrompts contains vendor-specific prompt patterns
var VendorPrompts = map[string]string{
	"vsol":  `[\w\-]+(\([\w\-]+\))?[#>]\s*$`,
	"cdata": `[\w\-]+(\([\w\-]+\))?[#>]\s*$`,
}

// MorePattern matches the pager prompt printed between pages of long output,
// e.g. "--More ( Press 'Q' to quit )--".
const MorePattern = `--\s*[Mm]ore\b[^\n]*?--`

// PrivilegeCommands are sent after login to reach the mode where show
// commands print full tables.
var PrivilegeCommands = map[string][]string{
	"cdata": {"enable", "config"},
	"vsol":  {"enable"},
}

const (
	usernamePattern = `(?:user\s*name|login)\s*:\s*$`
	passwordPattern = `password\s*:\s*$`
)

var moreRE = regexp.MustCompile(MorePattern)

// expecter is the subset of *expect.GExpect the session needs.
type expecter interface {
	Send(in string) error
	Expect(re *regexp.Regexp, timeout time.Duration) (string, []string, error)
	Close() error
}

// ExpectSession wraps google/goexpect for OLT terminal interaction. It logs
// in, enters privileged mode and answers pager prompts until the command
// prompt returns.
type ExpectSession struct {
	expecter expecter
	promptRE *regexp.Regexp
	// matches the pager prompt (group 1) or the command prompt
	pageRE  *regexp.Regexp
	loginRE *regexp.Regexp
	timeout time.Duration
	vendor  string
	logger  zerolog.Logger
}

// ExpectSessionConfig holds configuration for creating an expect session
type ExpectSessionConfig struct {
	// SSHClient is used when set; otherwise TelnetCommand is spawned
	SSHClient     *ssh.Client
	TelnetCommand string

	Vendor         string
	Timeout        time.Duration
	CustomPrompt   string
	Username       string
	Password       string
	EnablePassword string
	Logger         zerolog.Logger
}

// NewExpectSession spawns the terminal and logs in
func NewExpectSession(cfg ExpectSessionConfig) (*ExpectSession, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	var (
		exp *expect.GExpect
		err error
	)
	opts := []expect.Option{
		expect.Verbose(false),
		expect.CheckDuration(500 * time.Millisecond),
	}
	switch {
	case cfg.SSHClient != nil:
		exp, _, err = expect.SpawnSSH(cfg.SSHClient, cfg.Timeout, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to spawn SSH expect session: %w", err)
		}
	case cfg.TelnetCommand != "":
		exp, _, err = expect.Spawn(cfg.TelnetCommand, cfg.Timeout, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to spawn telnet session: %w", err)
		}
	default:
		return nil, fmt.Errorf("SSH client or telnet command is required")
	}

	session, err := newSession(exp, cfg)
	if err != nil {
		exp.Close()
		return nil, err
	}
	return session, nil
}

func newSession(exp expecter, cfg ExpectSessionConfig) (*ExpectSession, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	prompt := cfg.CustomPrompt
	if prompt == "" {
		if vendorPrompt, ok := VendorPrompts[strings.ToLower(cfg.Vendor)]; ok {
			prompt = vendorPrompt
		} else {
			prompt = DefaultPromptPattern
		}
	}

	promptRE, err := regexp.Compile(`(?m)` + prompt)
	if err != nil {
		return nil, fmt.Errorf("invalid prompt pattern: %w", err)
	}
	loginRE, err := regexp.Compile(`(?im)(` + usernamePattern + `)|(` + passwordPattern + `)|(?:` + prompt + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid prompt pattern: %w", err)
	}

	s := &ExpectSession{
		expecter: exp,
		promptRE: promptRE,
		pageRE:   regexp.MustCompile(`(?m)(` + MorePattern + `)|(?:` + prompt + `)`),
		loginRE:  loginRE,
		timeout:  cfg.Timeout,
		vendor:   strings.ToLower(cfg.Vendor),
		logger:   cfg.Logger,
	}

	if err := s.login(cfg.Username, cfg.Password); err != nil {
		return nil, err
	}
	if err := s.elevate(cfg.EnablePassword); err != nil {
		return nil, err
	}

	return s, nil
}

// login answers username and password prompts until the command prompt
// shows. Some OLTs ask twice (SSH auth followed by a CLI login).
func (s *ExpectSession) login(username, password string) error {
	for attempt := 0; attempt < 6; attempt++ {
		_, match, err := s.expecter.Expect(s.loginRE, s.timeout)
		if err != nil {
			return fmt.Errorf("failed to detect initial prompt: %w", err)
		}

		switch {
		case len(match) > 1 && match[1] != "":
			if err := s.expecter.Send(username + "\n"); err != nil {
				return fmt.Errorf("failed to send username: %w", err)
			}
		case len(match) > 2 && match[2] != "":
			if err := s.expecter.Send(password + "\n"); err != nil {
				return fmt.Errorf("failed to send password: %w", err)
			}
		default:
			s.logger.Debug().Str("vendor", s.vendor).Msg("logged in")
			return nil
		}
	}
	return fmt.Errorf("authentication failed: no prompt after login")
}

// elevate enters the vendor's privileged mode.
func (s *ExpectSession) elevate(enablePassword string) error {
	for _, cmd := range PrivilegeCommands[s.vendor] {
		if err := s.expecter.Send(cmd + "\n"); err != nil {
			return fmt.Errorf("failed to send %q: %w", cmd, err)
		}
		_, match, err := s.expecter.Expect(s.loginRE, s.timeout)
		if err != nil {
			return fmt.Errorf("timeout waiting for prompt after command %q: %w", cmd, err)
		}
		if len(match) > 2 && match[2] != "" {
			if err := s.expecter.Send(enablePassword + "\n"); err != nil {
				return fmt.Errorf("failed to send enable password: %w", err)
			}
			if _, _, err := s.expecter.Expect(s.promptRE, s.timeout); err != nil {
				return fmt.Errorf("timeout waiting for prompt after command %q: %w", cmd, err)
			}
		}
	}
	return nil
}

// Execute sends a command and waits for the prompt, returning the output.
// Pager prompts are answered with a space; the returned text has ANSI codes,
// erased pager prompts, the command echo and the trailing prompt removed.
func (s *ExpectSession) Execute(command string) (string, error) {
	if s.expecter == nil {
		return "", fmt.Errorf("expect session not initialized")
	}

	// Send command
	if err := s.expecter.Send(command + "\n"); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}

	var raw strings.Builder
	pages := 0
	for {
		output, match, err := s.expecter.Expect(s.pageRE, s.timeout)
		raw.WriteString(output)
		if err != nil {
			return s.cleanOutput(raw.String(), command), fmt.Errorf("timeout waiting for prompt after command %q: %w", command, err)
		}
		if len(match) < 2 || match[1] == "" {
			break
		}

		pages++
		if err := s.expecter.Send(" "); err != nil {
			return s.cleanOutput(raw.String(), command), fmt.Errorf("failed to page output: %w", err)
		}
	}

	s.logger.Debug().Str("command", command).Int("pages", pages+1).Msg("command complete")
	return s.cleanOutput(raw.String(), command), nil
}

// cleanOutput removes terminal noise, command echo and prompt from output
func (s *ExpectSession) cleanOutput(output, command string) string {
	output = moreRE.ReplaceAllString(common.CleanTerminal(output), "")

	lines := strings.Split(output, "\n")
	var cleaned []string

	for i, line := range lines {
		// Skip the first line if it's the command echo
		if i == 0 && strings.Contains(line, command) {
			continue
		}
		// Skip lines that match the prompt pattern
		if s.promptRE.MatchString(strings.TrimSpace(line)) {
			continue
		}
		cleaned = append(cleaned, line)
	}

	result := strings.Join(cleaned, "\n")
	return strings.TrimSpace(result)
}

// Close closes the expect session
func (s *ExpectSession) Close() error {
	if s.expecter != nil {
		return s.expecter.Close()
	}
	return nil
}

// SetTimeout updates the command timeout
func (s *ExpectSession) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}
