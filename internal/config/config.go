// Package config loads poller settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nanoncore/pon-telemetry/store/oracle"
	"github.com/nanoncore/pon-telemetry/types"
)

// Database drivers
const (
	DriverNone     = "none"
	DriverOracle   = "oracle"
	DriverPostgres = "postgres"
)

// Config is the poller configuration.
type Config struct {
	// OLTs polled over SNMP; one entry per TARGET_IP address
	OLTs []types.EquipmentConfig

	// Terminal is the CLI target for MAC table scraping
	Terminal types.EquipmentConfig

	Database Database

	// MIBDirs and MIBModules feed the OID name resolver
	MIBDirs    []string
	MIBModules []string

	LogLevel string
	LogJSON  bool
	Workers  int
}

// Database selects and locates the persistence backend.
type Database struct {
	Driver string
	Oracle oracle.Config
	// DSN is the PostgreSQL connection string
	DSN string
}

// Load reads envFile (when it exists) and then the environment. A missing
// default .env is not an error; a missing explicit file is.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	vendor := types.Vendor(strings.ToLower(getEnv("VENDOR", string(types.VendorCData))))
	tech := types.Technology(strings.ToLower(getEnv("PON_TYPE", "")))
	timeout := getEnvAsDuration("SNMP_TIMEOUT", 3*time.Second)

	cfg := &Config{
		Database: Database{
			Driver: strings.ToLower(getEnv("DB_DRIVER", DriverOracle)),
			Oracle: oracle.Config{
				Host:     getEnv("DB_HOST", ""),
				Port:     getEnvAsInt("DB_PORT", 1521),
				User:     getEnv("DB_USER", ""),
				Password: getEnv("DB_PASS", ""),
				SID:      getEnv("DB_SID", ""),
				Service:  getEnv("DB_SERVICE", ""),
			},
			DSN: getEnv("DB_DSN", ""),
		},
		MIBDirs:    getEnvAsList("MIB_DIRS"),
		MIBModules: getEnvAsList("MIB_MODULES"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogJSON:    getEnvAsBool("LOG_JSON", false),
		Workers:    getEnvAsInt("WORKERS", 4),
	}

	for _, ip := range getEnvAsList("TARGET_IP") {
		cfg.OLTs = append(cfg.OLTs, types.EquipmentConfig{
			Name:       ip,
			Vendor:     vendor,
			Technology: tech,
			Address:    ip,
			Port:       getEnvAsInt("SNMP_PORT", getEnvAsInt("PORT", 161)),
			Protocol:   types.ProtocolSNMP,
			Timeout:    timeout,
			Retries:    getEnvAsInt("SNMP_RETRIES", 3),
			Metadata: map[string]string{
				"snmp_community": getEnv("COMMUNITY_STRING", "public"),
				"snmp_version":   getEnv("SNMP_VERSION", "2c"),
			},
		})
	}

	protocol := types.Protocol(strings.ToLower(getEnv("CLI_PROTOCOL", string(types.ProtocolTelnet))))
	if protocol == "ssh" {
		protocol = types.ProtocolCLI
	}
	cfg.Terminal = types.EquipmentConfig{
		Name:     getEnv("TELNET_HOST", ""),
		Vendor:   vendor,
		Address:  getEnv("TELNET_HOST", ""),
		Port:     getEnvAsInt("TELNET_PORT", 0),
		Protocol: protocol,
		Username: getEnv("TELNET_USERNAME", ""),
		Password: getEnv("TELNET_PASSWORD", ""),
		Timeout:  getEnvAsDuration("TELNET_TIMEOUT", 10*time.Second),
		Metadata: map[string]string{},
	}
	if enable := getEnv("ENABLE_PASSWORD", ""); enable != "" {
		cfg.Terminal.Metadata["enable_password"] = enable
	}

	return cfg
}

// Validate checks values that would otherwise fail deep inside a poll.
func (c *Config) Validate() error {
	var errs []error

	for _, olt := range c.OLTs {
		if olt.Technology != "" && !olt.Technology.Valid() {
			errs = append(errs, fmt.Errorf("PON_TYPE %q must be epon or gpon", olt.Technology))
			break
		}
	}

	switch c.Terminal.Protocol {
	case types.ProtocolTelnet, types.ProtocolCLI:
	default:
		errs = append(errs, fmt.Errorf("CLI_PROTOCOL %q must be telnet or ssh", c.Terminal.Protocol))
	}

	switch c.Database.Driver {
	case DriverNone:
	case DriverOracle:
		if c.Database.Oracle.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required for the oracle driver"))
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("DB_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("WORKERS must be positive, got %d", c.Workers))
	}

	return errors.Join(errs...)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves environment variable as integer with fallback
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsBool accepts anything strconv.ParseBool does
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("5s") or plain seconds ("5")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
