// Package config loads the host tool configuration.
//
// Available functions:
//
//	LoadFromYamlFile(path)              - YAML file ONLY (no env overrides)
//	LoadFromYamlWithEnvOverrides(path)  - YAML base + environment overrides
//	                                      Priority: Env Vars > YAML > Defaults
//
// Environment variables supported:
//
//	SERIAL:    GPSDO_SERIAL_DEVICE, GPSDO_SERIAL_BAUD, GPSDO_SERIAL_READ_TIMEOUT
//	MONITOR:   GPSDO_POLL_INTERVAL, GPSDO_POLL_BYTES, GPSDO_ACKNOWLEDGE,
//	           GPSDO_METRICS_ADDRESS
//	SIMULATOR: GPSDO_SIM_OFFSET_PPM, GPSDO_SIM_JITTER_CYCLES, GPSDO_SIM_SECONDS
//	LOGGING:   LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT, LOG_FILE_PATH
//	METRICS:   METRICS_NAMESPACE
//	MQTT:      GPSDO_MQTT_BROKER, GPSDO_MQTT_TOPIC
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"

	"gpsdo/core"
	"gpsdo/host/logger"
	"gpsdo/host/publish"
	"gpsdo/host/serial"
)

// Config represents the complete host configuration
type Config struct {
	Serial    serial.Config   `yaml:"serial"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Logging   logger.Config   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	MQTT      publish.Config  `yaml:"mqtt"`
}

// MonitorConfig controls how the host clocks the board link
type MonitorConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`   // Time between filler bursts
	PollBytes      int           `yaml:"poll_bytes"`      // Filler bytes per burst
	Acknowledge    bool          `yaml:"acknowledge"`     // Send command 0x01 for every report
	MetricsAddress string        `yaml:"metrics_address"` // Empty disables the HTTP endpoint
}

// SimulatorConfig describes the simulated board
type SimulatorConfig struct {
	OffsetPPM    float64     `yaml:"offset_ppm"`    // Oscillator error against the reference
	JitterCycles int         `yaml:"jitter_cycles"` // Peak reference edge jitter
	Seconds      int         `yaml:"seconds"`       // Simulated run length
	Seed         int64       `yaml:"seed"`
	BytesPerTick int         `yaml:"bytes_per_tick"` // Link bytes clocked per scheduler tick
	Device       core.Config `yaml:"device"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// LoadFromYamlFile reads configuration from a YAML file only (no env var overrides)
func LoadFromYamlFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file %s: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed for %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromYamlWithEnvOverrides loads base config from YAML, then overrides
// with environment variables. An empty or unreadable path starts from
// defaults.
func LoadFromYamlWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path != "" {
		loaded, err := LoadFromYamlFile(path)
		if err != nil {
			logger.Warn("config", "Failed to load YAML config file, using defaults: "+err.Error())
		} else {
			cfg = loaded
		}
	}
	if cfg == nil {
		cfg = &Config{}
		ApplyDefaults(cfg)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to an existing config
func applyEnvOverrides(cfg *Config) {
	// SERIAL
	if device := os.Getenv("GPSDO_SERIAL_DEVICE"); device != "" {
		cfg.Serial.Device = device
	}
	if baud := os.Getenv("GPSDO_SERIAL_BAUD"); baud != "" {
		if b, err := strconv.Atoi(baud); err == nil {
			cfg.Serial.Baud = b
		}
	}
	if timeout := os.Getenv("GPSDO_SERIAL_READ_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			cfg.Serial.ReadTimeout = t
		}
	}

	// MONITOR
	if interval := os.Getenv("GPSDO_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Monitor.PollInterval = d
		}
	}
	if pollBytes := os.Getenv("GPSDO_POLL_BYTES"); pollBytes != "" {
		if n, err := strconv.Atoi(pollBytes); err == nil {
			cfg.Monitor.PollBytes = n
		}
	}
	if ack := os.Getenv("GPSDO_ACKNOWLEDGE"); ack != "" {
		if b, err := strconv.ParseBool(ack); err == nil {
			cfg.Monitor.Acknowledge = b
		}
	}
	if addr := os.Getenv("GPSDO_METRICS_ADDRESS"); addr != "" {
		cfg.Monitor.MetricsAddress = addr
	}

	// SIMULATOR
	if offset := os.Getenv("GPSDO_SIM_OFFSET_PPM"); offset != "" {
		if f, err := strconv.ParseFloat(offset, 64); err == nil {
			cfg.Simulator.OffsetPPM = f
		}
	}
	if jitter := os.Getenv("GPSDO_SIM_JITTER_CYCLES"); jitter != "" {
		if j, err := strconv.Atoi(jitter); err == nil {
			cfg.Simulator.JitterCycles = j
		}
	}
	if seconds := os.Getenv("GPSDO_SIM_SECONDS"); seconds != "" {
		if s, err := strconv.Atoi(seconds); err == nil {
			cfg.Simulator.Seconds = s
		}
	}

	// LOGGING
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		cfg.Logging.Output = output
	}
	if path := os.Getenv("LOG_FILE_PATH"); path != "" {
		cfg.Logging.FilePath = path
	}

	// METRICS
	if namespace := os.Getenv("METRICS_NAMESPACE"); namespace != "" {
		cfg.Metrics.Namespace = namespace
	}

	// MQTT
	if broker := os.Getenv("GPSDO_MQTT_BROKER"); broker != "" {
		cfg.MQTT.Broker = broker
	}
	if topic := os.Getenv("GPSDO_MQTT_TOPIC"); topic != "" {
		cfg.MQTT.Topic = topic
	}
}
