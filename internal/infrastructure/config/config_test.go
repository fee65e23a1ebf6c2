package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// validConfig returns a configuration that passes validation.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.IoT.ClientID = "irrigation-pi"
	cfg.IoT.Host = "broker.example.com"
	cfg.IoT.RootCAPath = "/etc/zoneshadow/ca.pem"
	cfg.IoT.CertificatePath = "/etc/zoneshadow/device.crt"
	cfg.IoT.PrivateKeyPath = "/etc/zoneshadow/device.key"
	cfg.Zones = []ZoneConfig{
		{Name: "pump", DeviceID: "pump-01", Pins: []string{"GPIO17"}, DelayMillis: 100},
	}
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
iot_client:
  client_id: "irrigation-pi"
  host: "broker.example.com"
  port: 8883
  root_ca_path: "/etc/zoneshadow/ca.pem"
  certificate_path: "/etc/zoneshadow/device.crt"
  private_key_path: "/etc/zoneshadow/device.key"
gpio:
  driver: "mock"
zones:
  - name: "pump"
    device_id: "pump-01"
    pins: ["GPIO17", "GPIO27"]
    delay_millis: 500
  - name: "lawn"
    device_id: "lawn-01"
    pins: ["GPIO22"]
    delay_millis: 0
    active_low: true
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IoT.Host != "broker.example.com" {
		t.Errorf("IoT.Host = %q, want %q", cfg.IoT.Host, "broker.example.com")
	}
	if !cfg.IoT.TLS {
		t.Error("IoT.TLS = false, want default true")
	}
	if cfg.IoT.KeepAlive != 10 {
		t.Errorf("IoT.KeepAlive = %d, want default 10", cfg.IoT.KeepAlive)
	}
	if cfg.GPIO.Driver != GPIODriverMock {
		t.Errorf("GPIO.Driver = %q, want %q", cfg.GPIO.Driver, GPIODriverMock)
	}
	if len(cfg.Zones) != 2 {
		t.Fatalf("len(Zones) = %d, want 2", len(cfg.Zones))
	}

	pump := cfg.Zones[0]
	if pump.DeviceID != "pump-01" {
		t.Errorf("Zones[0].DeviceID = %q, want %q", pump.DeviceID, "pump-01")
	}
	if len(pump.Pins) != 2 || pump.Pins[0] != "GPIO17" || pump.Pins[1] != "GPIO27" {
		t.Errorf("Zones[0].Pins = %v, want [GPIO17 GPIO27]", pump.Pins)
	}
	if pump.Delay() != 500*time.Millisecond {
		t.Errorf("Zones[0].Delay() = %v, want 500ms", pump.Delay())
	}
	if !cfg.Zones[1].ActiveLow {
		t.Error("Zones[1].ActiveLow = false, want true")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
iot_client:
  client_id: "irrigation-pi"
  host: "broker.example.com"
  tls: false
zones: []
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for empty zones, got nil")
	}
	if !strings.Contains(err.Error(), "at least one zone") {
		t.Errorf("Load() error = %v, want mention of zones", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.IoT.ClientID = "" },
			wantErr: "iot_client.client_id",
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.IoT.Host = "" },
			wantErr: "iot_client.host",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.IoT.Port = 70000 },
			wantErr: "iot_client.port",
		},
		{
			name:    "tls without certificate",
			mutate:  func(c *Config) { c.IoT.CertificatePath = "" },
			wantErr: "certificate_path",
		},
		{
			name: "plain tcp needs no certificates",
			mutate: func(c *Config) {
				c.IoT.TLS = false
				c.IoT.RootCAPath = ""
				c.IoT.CertificatePath = ""
				c.IoT.PrivateKeyPath = ""
			},
		},
		{
			name: "duplicate device id",
			mutate: func(c *Config) {
				c.Zones = append(c.Zones, ZoneConfig{Name: "other", DeviceID: "pump-01", Pins: []string{"GPIO5"}})
			},
			wantErr: "duplicates",
		},
		{
			name:    "zone without pins",
			mutate:  func(c *Config) { c.Zones[0].Pins = nil },
			wantErr: "pins must list",
		},
		{
			name:    "blank pin",
			mutate:  func(c *Config) { c.Zones[0].Pins = []string{" "} },
			wantErr: "pins[0] is empty",
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Zones[0].DelayMillis = -1 },
			wantErr: "delay_millis",
		},
		{
			name:    "unknown gpio driver",
			mutate:  func(c *Config) { c.GPIO.Driver = "sysfs" },
			wantErr: "gpio.driver",
		},
		{
			name: "journal enabled without path",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Path = ""
			},
			wantErr: "journal.path",
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
		{
			name: "api enabled with bad port",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 0
			},
			wantErr: "api.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.IoT.ClientID = ""
	cfg.IoT.Host = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	for _, want := range []string{"client_id", "host"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, missing %q", err, want)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("ZONESHADOW_IOT_HOST", "mqtt.example.com")
	t.Setenv("ZONESHADOW_IOT_CLIENT_ID", "pi-02")
	t.Setenv("ZONESHADOW_GPIO_DRIVER", "mock")
	t.Setenv("ZONESHADOW_JOURNAL_PATH", "/custom/journal.db")
	t.Setenv("ZONESHADOW_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("ZONESHADOW_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.IoT.Host != "mqtt.example.com" {
		t.Errorf("IoT.Host = %q, want %q", cfg.IoT.Host, "mqtt.example.com")
	}
	if cfg.IoT.ClientID != "pi-02" {
		t.Errorf("IoT.ClientID = %q, want %q", cfg.IoT.ClientID, "pi-02")
	}
	if cfg.GPIO.Driver != "mock" {
		t.Errorf("GPIO.Driver = %q, want %q", cfg.GPIO.Driver, "mock")
	}
	if cfg.Journal.Path != "/custom/journal.db" {
		t.Errorf("Journal.Path = %q, want %q", cfg.Journal.Path, "/custom/journal.db")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.IoT.Port != 8883 {
		t.Errorf("defaultConfig IoT.Port = %d, want 8883", cfg.IoT.Port)
	}
	if cfg.GPIO.Driver != GPIODriverPeriph {
		t.Errorf("defaultConfig GPIO.Driver = %q, want %q", cfg.GPIO.Driver, GPIODriverPeriph)
	}
	if cfg.GetRestartDelay() != 5*time.Second {
		t.Errorf("defaultConfig GetRestartDelay() = %v, want 5s", cfg.GetRestartDelay())
	}
	if cfg.GetJournalRetention() != 720*time.Hour {
		t.Errorf("defaultConfig GetJournalRetention() = %v, want 720h", cfg.GetJournalRetention())
	}
}
