package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gpsdo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromYamlFile(t *testing.T) {
	path := writeConfig(t, `
serial:
  device: /dev/ttyACM1
  baud: 57600
monitor:
  poll_interval: 250ms
  acknowledge: true
simulator:
  offset_ppm: 2.5
  device:
    clock_hz: 8000000
    window: 8
logging:
  level: debug
  format: console
`)

	cfg, err := LoadFromYamlFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM1", cfg.Serial.Device)
	assert.Equal(t, 57600, cfg.Serial.Baud)
	assert.Equal(t, 100*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Monitor.PollInterval)
	assert.Equal(t, 32, cfg.Monitor.PollBytes)
	assert.True(t, cfg.Monitor.Acknowledge)
	assert.InDelta(t, 2.5, cfg.Simulator.OffsetPPM, 1e-9)
	assert.Equal(t, uint32(8000000), cfg.Simulator.Device.ClockHz)
	assert.Equal(t, uint8(8), cfg.Simulator.Device.Window)
	assert.Equal(t, uint32(100), cfg.Simulator.Device.TickHz)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "gpsdo", cfg.Metrics.Namespace)
}

func TestLoadFromYamlFileErrors(t *testing.T) {
	_, err := LoadFromYamlFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromYamlFile(writeConfig(t, "serial: [unclosed"))
	assert.Error(t, err)

	_, err = LoadFromYamlFile(writeConfig(t, "simulator:\n  device:\n    tick_hz: 1000\n"))
	assert.ErrorContains(t, err, "tick_hz")
}

func TestLoadFromYamlWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "serial:\n  device: /dev/ttyUSB3\n")

	t.Setenv("GPSDO_SERIAL_DEVICE", "/dev/ttyS9")
	t.Setenv("GPSDO_POLL_INTERVAL", "50ms")
	t.Setenv("GPSDO_ACKNOWLEDGE", "true")
	t.Setenv("GPSDO_METRICS_ADDRESS", ":9110")
	t.Setenv("GPSDO_SIM_OFFSET_PPM", "-4")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("GPSDO_SERIAL_BAUD", "not-a-number")
	t.Setenv("GPSDO_MQTT_BROKER", "tcp://broker:1883")

	cfg, err := LoadFromYamlWithEnvOverrides(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS9", cfg.Serial.Device)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, 50*time.Millisecond, cfg.Monitor.PollInterval)
	assert.True(t, cfg.Monitor.Acknowledge)
	assert.Equal(t, ":9110", cfg.Monitor.MetricsAddress)
	assert.InDelta(t, -4.0, cfg.Simulator.OffsetPPM, 1e-9)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "gpsdo/report", cfg.MQTT.Topic)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromYamlWithEnvOverrides("")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Device)
	assert.Equal(t, 64, cfg.Simulator.Seconds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"no_device", func(c *Config) { c.Serial.Device = "" }, "serial device"},
		{"bad_baud", func(c *Config) { c.Serial.Baud = -1 }, "baud"},
		{"fast_poll", func(c *Config) { c.Monitor.PollInterval = time.Microsecond }, "poll_interval"},
		{"huge_poll", func(c *Config) { c.Monitor.PollBytes = 5000 }, "poll_bytes"},
		{"offset", func(c *Config) { c.Simulator.OffsetPPM = 2000 }, "offset_ppm"},
		{"jitter", func(c *Config) { c.Simulator.JitterCycles = -1 }, "jitter_cycles"},
		{"window", func(c *Config) { c.Simulator.Device.Window = 0 }, "window"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "format"},
		{"file_path", func(c *Config) { c.Logging.Output = "file" }, "file_path"},
		{"mqtt_off", func(c *Config) { c.MQTT.QoS = 9 }, ""},
		{"mqtt_qos", func(c *Config) { c.MQTT.Broker = "tcp://localhost:1883"; c.MQTT.QoS = 3 }, "qos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
