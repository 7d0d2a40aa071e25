// Package logger builds the zerolog logger used by the poller binary.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const maxMessageSize = 48

var (
	timestampColor = color.New(color.FgHiCyan, color.Italic)
	messageColor   = color.New(color.FgWhite)
	fieldKeyColor  = color.New(color.FgHiYellow)
	fieldValColor  = color.New(color.FgCyan)
)

type levelStyle struct {
	Text  string
	Color *color.Color
}

var levelStyles = map[string]levelStyle{
	zerolog.LevelTraceValue: {"TRAC", color.New(color.FgHiBlack, color.Bold)},
	zerolog.LevelDebugValue: {"DEBG", color.New(color.FgHiBlue, color.Bold)},
	zerolog.LevelInfoValue:  {"INFO", color.New(color.FgHiGreen, color.Bold)},
	zerolog.LevelWarnValue:  {"WARN", color.New(color.FgHiYellow, color.Bold)},
	zerolog.LevelErrorValue: {"ERRO", color.New(color.FgHiRed, color.Bold)},
	zerolog.LevelFatalValue: {"FATL", color.New(color.FgHiRed, color.Bold)},
	zerolog.LevelPanicValue: {"PANC", color.New(color.FgWhite, color.BgRed, color.Bold)},
}

// Config selects level and output format.
type Config struct {
	Level          string
	DateTimeLayout string
	Colored        bool
	JSONFormat     bool
}

// DefaultConfig is used when New gets a nil config.
func DefaultConfig() *Config {
	return &Config{
		Level:          "info",
		DateTimeLayout: time.RFC3339,
		Colored:        true,
	}
}

// New creates a logger writing to stdout.
func New(config *Config) (zerolog.Logger, error) {
	return NewWithWriter(config, os.Stdout)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(config *Config, w io.Writer) (zerolog.Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.DateTimeLayout == "" {
		config.DateTimeLayout = time.RFC3339
	}

	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	if config.JSONFormat {
		return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !config.Colored,
		TimeFormat: config.DateTimeLayout,
		PartsOrder: []string{"time", "level", "message"},
	}
	if config.Colored {
		f := &consoleFormatter{config: config}
		output.FormatLevel = f.formatLevel
		output.FormatMessage = f.formatMessage
		output.FormatTimestamp = f.formatTimestamp
		output.FormatFieldName = f.formatFieldName
		output.FormatFieldValue = f.formatFieldValue
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger(), nil
}

type consoleFormatter struct {
	config *Config
}

func (f *consoleFormatter) formatLevel(i any) string {
	s, _ := i.(string)
	style, ok := levelStyles[s]
	if !ok {
		return color.New(color.FgHiWhite).Sprint(" UNKN ")
	}
	return style.Color.Sprintf(" %s ", style.Text)
}

func (f *consoleFormatter) formatMessage(i any) string {
	msg, ok := i.(string)
	if !ok || msg == "" {
		return messageColor.Sprint("│")
	}
	if len(msg) < maxMessageSize {
		msg = fmt.Sprintf("%-*s", maxMessageSize, msg)
	}
	return messageColor.Sprintf("│ %s", msg)
}

func (f *consoleFormatter) formatTimestamp(i any) string {
	s, ok := i.(string)
	if !ok {
		return timestampColor.Sprintf("[ %v ]", i)
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return timestampColor.Sprintf("[ %s ]", s)
	}
	return timestampColor.Sprintf("[ %s ]", ts.In(time.Local).Format(f.config.DateTimeLayout))
}

func (f *consoleFormatter) formatFieldName(i any) string {
	return fieldKeyColor.Sprint(i)
}

func (f *consoleFormatter) formatFieldValue(i any) string {
	switch v := i.(type) {
	case string:
		if strings.ContainsAny(v, " \t\n\r\"'") {
			return "=" + fieldValColor.Sprintf("%q", v)
		}
		return "=" + fieldValColor.Sprint(v)
	case nil:
		return "=" + color.HiBlackString("null")
	default:
		return fieldValColor.Sprintf("=%v", v)
	}
}
