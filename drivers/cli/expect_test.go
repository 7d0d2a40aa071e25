package cli

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExpecter replays terminal output chunks, one per Expect call.
type fakeExpecter struct {
	chunks   []string
	sent     []string
	timeouts []time.Duration
	closed   bool
}

func (f *fakeExpecter) Send(in string) error {
	f.sent = append(f.sent, in)
	return nil
}

func (f *fakeExpecter) Expect(re *regexp.Regexp, timeout time.Duration) (string, []string, error) {
	f.timeouts = append(f.timeouts, timeout)
	if len(f.chunks) == 0 {
		return "", nil, errors.New("expect: timer expired")
	}
	out := f.chunks[0]
	f.chunks = f.chunks[1:]
	match := re.FindStringSubmatch(out)
	if match == nil {
		return out, nil, errors.New("expect: timer expired")
	}
	return out, match, nil
}

func (f *fakeExpecter) Close() error {
	f.closed = true
	return nil
}

const morePrompt = "--More ( Press 'Q' to quit )--"

func TestNewSession_CDataLogin(t *testing.T) {
	exp := &fakeExpecter{chunks: []string{
		"\r\nUsername: ",
		"Password: ",
		"\r\nOLT> ",
		"enable\r\nPassword: ",
		"\r\nOLT# ",
		"config\r\nOLT(config)# ",
	}}

	_, err := newSession(exp, ExpectSessionConfig{
		Vendor:         "cdata",
		Username:       "admin",
		Password:       "secret",
		EnablePassword: "topsecret",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"admin\n", "secret\n", "enable\n", "topsecret\n", "config\n"}, exp.sent)
}

func TestNewSession_AlreadyAtPrompt(t *testing.T) {
	exp := &fakeExpecter{chunks: []string{
		"Welcome\r\nOLT# ",
		"\r\nOLT# ",
	}}

	_, err := newSession(exp, ExpectSessionConfig{Vendor: "vsol", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, []string{"enable\n"}, exp.sent)
}

func TestNewSession_NoPrompt(t *testing.T) {
	exp := &fakeExpecter{chunks: []string{"connecting..."}}

	_, err := newSession(exp, ExpectSessionConfig{Vendor: "cdata"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to detect initial prompt")
}

func TestNewSession_BadCustomPrompt(t *testing.T) {
	_, err := newSession(&fakeExpecter{}, ExpectSessionConfig{CustomPrompt: "(["})
	assert.Error(t, err)
}

func loggedIn(t *testing.T, chunks ...string) (*ExpectSession, *fakeExpecter) {
	t.Helper()
	exp := &fakeExpecter{chunks: []string{"OLT# "}}
	s, err := newSession(exp, ExpectSessionConfig{Vendor: "generic"})
	require.NoError(t, err)
	exp.chunks = chunks
	exp.sent = nil
	return s, exp
}

func TestExecute_Pagination(t *testing.T) {
	s, exp := loggedIn(t,
		"show mac-address all\r\nMAC               VLAN\r\naa:bb:cc:dd:ee:ff 100 - gpon0/1 5 3 dynamic\r\n"+morePrompt,
		strings.Repeat("\b", len(morePrompt))+"aa:bb:cc:dd:ee:01 10 - gpon0/2 1 1 dynamic\r\n"+morePrompt,
		"\x1b[2K\raa:bb:cc:dd:ee:02 20 - gpon0/2 2 1 dynamic\r\nOLT# ",
	)

	out, err := s.Execute("show mac-address all")
	require.NoError(t, err)

	assert.Equal(t, []string{"show mac-address all\n", " ", " "}, exp.sent)
	assert.Equal(t, strings.Join([]string{
		"MAC               VLAN",
		"aa:bb:cc:dd:ee:ff 100 - gpon0/1 5 3 dynamic",
		"aa:bb:cc:dd:ee:01 10 - gpon0/2 1 1 dynamic",
		"aa:bb:cc:dd:ee:02 20 - gpon0/2 2 1 dynamic",
	}, "\n"), out)
}

func TestExecute_Timeout(t *testing.T) {
	s, _ := loggedIn(t, "partial output without prompt")

	out, err := s.Execute("show version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout waiting for prompt")
	assert.Equal(t, "partial output without prompt", out)
}

func TestExecuteUninitialized(t *testing.T) {
	var s ExpectSession
	_, err := s.Execute("show version")
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}
