package config

import (
	"time"

	"gpsdo/core"
)

// ApplyDefaults sets default values for unspecified configuration fields
func ApplyDefaults(cfg *Config) {
	// Serial defaults
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = "/dev/ttyUSB0"
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 115200
	}
	if cfg.Serial.ReadTimeout == 0 {
		cfg.Serial.ReadTimeout = 100 * time.Millisecond
	}

	// Monitor defaults: 32 bytes every 100ms drains a report well within a second
	if cfg.Monitor.PollInterval == 0 {
		cfg.Monitor.PollInterval = 100 * time.Millisecond
	}
	if cfg.Monitor.PollBytes == 0 {
		cfg.Monitor.PollBytes = 32
	}

	// Simulator defaults
	if cfg.Simulator.Seconds == 0 {
		cfg.Simulator.Seconds = 64
	}
	if cfg.Simulator.Seed == 0 {
		cfg.Simulator.Seed = 1
	}
	if cfg.Simulator.BytesPerTick == 0 {
		cfg.Simulator.BytesPerTick = 4
	}
	applyDeviceDefaults(&cfg.Simulator.Device)

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "gpsdo"
	}

	// MQTT defaults, publishing stays off until a broker is set
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "gpsdo/report"
	}
	if cfg.MQTT.Timeout == 0 {
		cfg.MQTT.Timeout = 5 * time.Second
	}
}

// applyDeviceDefaults fills unset firmware parameters from the reference board
func applyDeviceDefaults(dev *core.Config) {
	def := core.DefaultConfig()
	if dev.ClockHz == 0 {
		dev.ClockHz = def.ClockHz
	}
	if dev.TickHz == 0 {
		dev.TickHz = def.TickHz
	}
	if dev.TolerancePPM == 0 {
		dev.TolerancePPM = def.TolerancePPM
	}
	if dev.Window == 0 {
		dev.Window = def.Window
	}
	if dev.TimerPoolSize == 0 {
		dev.TimerPoolSize = def.TimerPoolSize
	}
	if dev.LinkBuffers == 0 {
		dev.LinkBuffers = def.LinkBuffers
	}
}
