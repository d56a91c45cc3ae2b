package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if err := validateSerial(cfg); err != nil {
		return err
	}

	if err := validateMonitor(&cfg.Monitor); err != nil {
		return err
	}

	if err := validateSimulator(&cfg.Simulator); err != nil {
		return err
	}

	if err := validateLogging(cfg); err != nil {
		return err
	}

	if err := validateMQTT(cfg); err != nil {
		return err
	}

	return nil
}

func validateSerial(cfg *Config) error {
	if cfg.Serial.Device == "" {
		return errors.New("serial device is required")
	}
	if cfg.Serial.Baud <= 0 {
		return errors.New("serial baud must be positive, got " + strconv.Itoa(cfg.Serial.Baud))
	}
	if cfg.Serial.ReadTimeout < 0 {
		return errors.New("serial read_timeout cannot be negative")
	}
	return nil
}

func validateMonitor(cfg *MonitorConfig) error {
	if cfg.PollInterval < time.Millisecond || cfg.PollInterval > 10*time.Second {
		return errors.New("poll_interval must be between 1ms and 10s")
	}
	if cfg.PollBytes < 1 || cfg.PollBytes > 4096 {
		return errors.New("poll_bytes must be between 1 and 4096, got " + strconv.Itoa(cfg.PollBytes))
	}
	return nil
}

func validateSimulator(cfg *SimulatorConfig) error {
	if cfg.OffsetPPM < -1000 || cfg.OffsetPPM > 1000 {
		return errors.New("simulator offset_ppm must be within +/-1000")
	}
	if cfg.JitterCycles < 0 {
		return errors.New("simulator jitter_cycles cannot be negative")
	}
	if cfg.Seconds < 1 {
		return errors.New("simulator seconds must be positive")
	}
	if cfg.BytesPerTick < 1 {
		return errors.New("simulator bytes_per_tick must be positive")
	}

	dev := cfg.Device
	if err := dev.Validate(); err != nil {
		return fmt.Errorf("simulator device: %w", err)
	}
	return nil
}

func validateLogging(cfg *Config) error {
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return errors.New("logging format must be json or console, got " + cfg.Logging.Format)
	}

	switch cfg.Logging.Output {
	case "stdout", "stderr":
	case "file":
		if cfg.Logging.FilePath == "" {
			return errors.New("logging file_path is required when output is file")
		}
	default:
		return errors.New("logging output must be stdout, stderr or file, got " + cfg.Logging.Output)
	}
	return nil
}

func validateMQTT(cfg *Config) error {
	if cfg.MQTT.Broker == "" {
		return nil
	}
	if cfg.MQTT.Topic == "" {
		return errors.New("mqtt topic is required when a broker is set")
	}
	if cfg.MQTT.QoS > 2 {
		return errors.New("mqtt qos must be 0, 1 or 2, got " + strconv.Itoa(int(cfg.MQTT.QoS)))
	}
	if cfg.MQTT.Timeout <= 0 {
		return errors.New("mqtt timeout must be positive")
	}
	return nil
}
