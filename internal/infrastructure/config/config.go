package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for zoneshadow.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	IoT        IoTConfig        `yaml:"iot_client"`
	GPIO       GPIOConfig       `yaml:"gpio"`
	Zones      []ZoneConfig     `yaml:"zones"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Logging    LoggingConfig    `yaml:"logging"`
	Journal    JournalConfig    `yaml:"journal"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	API        APIConfig        `yaml:"api"`
}

// IoTConfig contains the shadow broker connection settings.
type IoTConfig struct {
	ClientID        string          `yaml:"client_id"`
	Host            string          `yaml:"host"`
	Port            int             `yaml:"port"`
	TLS             bool            `yaml:"tls"`
	RootCAPath      string          `yaml:"root_ca_path"`
	CertificatePath string          `yaml:"certificate_path"`
	PrivateKeyPath  string          `yaml:"private_key_path"`
	KeepAlive       int             `yaml:"keepalive"`
	Reconnect       ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig contains broker reconnection settings (seconds).
//
// paho starts its reconnect backoff at one second and doubles it on every
// failed attempt; only the ceiling is configurable.
type ReconnectConfig struct {
	MaxDelay int `yaml:"max_delay"`
}

// GPIOConfig selects the output line driver.
type GPIOConfig struct {
	// Driver is "periph" for real hardware or "mock" for development.
	Driver string `yaml:"driver"`
}

// ZoneConfig describes one actuated zone.
type ZoneConfig struct {
	Name string `yaml:"name"`

	// DeviceID is the shadow thing name. Must be unique across zones.
	DeviceID string `yaml:"device_id"`

	// Pins are driver-specific output identifiers, switched in this order.
	Pins []string `yaml:"pins"`

	// DelayMillis is the pause after each line is switched.
	DelayMillis int `yaml:"delay_millis"`

	// ActiveLow inverts the electrical level (relay boards that close on LOW).
	ActiveLow bool `yaml:"active_low"`
}

// Delay returns the inter-line delay as a Duration.
func (z ZoneConfig) Delay() time.Duration {
	return time.Duration(z.DelayMillis) * time.Millisecond
}

// SupervisorConfig controls how the controller is rebuilt after a fatal failure.
type SupervisorConfig struct {
	RestartDelay       int `yaml:"restart_delay"`
	MaxRestartAttempts int `yaml:"max_restart_attempts"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// JournalConfig contains the SQLite actuation journal settings.
type JournalConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Path           string `yaml:"path"`
	WALMode        bool   `yaml:"wal_mode"`
	BusyTimeout    int    `yaml:"busy_timeout"`
	RetentionHours int    `yaml:"retention_hours"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Supported GPIO drivers.
const (
	GPIODriverPeriph = "periph"
	GPIODriverMock   = "mock"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ZONESHADOW_SECTION_KEY
// For example: ZONESHADOW_IOT_HOST, ZONESHADOW_GPIO_DRIVER
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		IoT: IoTConfig{
			Port:      8883,
			TLS:       true,
			KeepAlive: 10,
			Reconnect: ReconnectConfig{
				MaxDelay: 60,
			},
		},
		GPIO: GPIOConfig{
			Driver: GPIODriverPeriph,
		},
		Supervisor: SupervisorConfig{
			RestartDelay: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Journal: JournalConfig{
			Path:           "./data/zoneshadow.db",
			WALMode:        true,
			BusyTimeout:    5,
			RetentionHours: 720,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZONESHADOW_IOT_HOST"); v != "" {
		cfg.IoT.Host = v
	}
	if v := os.Getenv("ZONESHADOW_IOT_CLIENT_ID"); v != "" {
		cfg.IoT.ClientID = v
	}
	if v := os.Getenv("ZONESHADOW_GPIO_DRIVER"); v != "" {
		cfg.GPIO.Driver = v
	}
	if v := os.Getenv("ZONESHADOW_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("ZONESHADOW_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("ZONESHADOW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
// Every problem found is reported, not just the first.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	errs = append(errs, c.validateIoT()...)
	errs = append(errs, c.validateZones()...)

	switch c.GPIO.Driver {
	case GPIODriverPeriph, GPIODriverMock:
	default:
		errs = append(errs, fmt.Sprintf("gpio.driver %q must be %q or %q", c.GPIO.Driver, GPIODriverPeriph, GPIODriverMock))
	}

	if c.Supervisor.RestartDelay < 0 {
		errs = append(errs, "supervisor.restart_delay must not be negative")
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when the journal is enabled")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (c *Config) validateIoT() []string {
	var errs []string

	if c.IoT.ClientID == "" {
		errs = append(errs, "iot_client.client_id is required")
	}
	if c.IoT.Host == "" {
		errs = append(errs, "iot_client.host is required")
	}
	if c.IoT.Port < 1 || c.IoT.Port > 65535 {
		errs = append(errs, "iot_client.port must be between 1 and 65535")
	}
	if c.IoT.TLS {
		if c.IoT.RootCAPath == "" {
			errs = append(errs, "iot_client.root_ca_path is required when tls is enabled")
		}
		if c.IoT.CertificatePath == "" {
			errs = append(errs, "iot_client.certificate_path is required when tls is enabled")
		}
		if c.IoT.PrivateKeyPath == "" {
			errs = append(errs, "iot_client.private_key_path is required when tls is enabled")
		}
	}
	if c.IoT.KeepAlive < 0 {
		errs = append(errs, "iot_client.keepalive must not be negative")
	}

	return errs
}

func (c *Config) validateZones() []string {
	if len(c.Zones) == 0 {
		return []string{"at least one zone is required"}
	}

	var errs []string
	seen := make(map[string]int, len(c.Zones))

	for i, z := range c.Zones {
		if z.Name == "" {
			errs = append(errs, fmt.Sprintf("zones[%d].name is required", i))
		}
		if z.DeviceID == "" {
			errs = append(errs, fmt.Sprintf("zones[%d].device_id is required", i))
		} else if prev, dup := seen[z.DeviceID]; dup {
			errs = append(errs, fmt.Sprintf("zones[%d].device_id %q duplicates zones[%d]", i, z.DeviceID, prev))
		} else {
			seen[z.DeviceID] = i
		}
		if len(z.Pins) == 0 {
			errs = append(errs, fmt.Sprintf("zones[%d].pins must list at least one pin", i))
		}
		for j, p := range z.Pins {
			if strings.TrimSpace(p) == "" {
				errs = append(errs, fmt.Sprintf("zones[%d].pins[%d] is empty", i, j))
			}
		}
		if z.DelayMillis < 0 {
			errs = append(errs, fmt.Sprintf("zones[%d].delay_millis must not be negative", i))
		}
	}

	return errs
}

// GetRestartDelay returns the supervisor cooldown as a Duration.
func (c *Config) GetRestartDelay() time.Duration {
	return time.Duration(c.Supervisor.RestartDelay) * time.Second
}

// GetJournalRetention returns how long journal entries are kept.
// Zero means entries are never pruned.
func (c *Config) GetJournalRetention() time.Duration {
	return time.Duration(c.Journal.RetentionHours) * time.Hour
}
