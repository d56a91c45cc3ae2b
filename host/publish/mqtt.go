// Package publish forwards decoded reports to an MQTT broker.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"

	"gpsdo/protocol"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Config holds the MQTT connection settings
type Config struct {
	Broker   string        `yaml:"broker"` // Empty disables publishing
	Topic    string        `yaml:"topic"`
	ClientID string        `yaml:"client_id"` // Derived from the machine ID when empty
	QoS      byte          `yaml:"qos"`
	Timeout  time.Duration `yaml:"timeout"`
}

// client is the part of paho.Client the publisher uses
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Message is the JSON body published for every report
type Message struct {
	Time        time.Time `json:"time"`
	NominalHz   uint32    `json:"nominal_hz"`
	Window      uint8     `json:"window"`
	Accumulated int32     `json:"accumulated"`
	OffsetPPB   float64   `json:"offset_ppb"`
}

// Publisher sends reports to one topic
type Publisher struct {
	client  client
	topic   string
	qos     byte
	timeout time.Duration
}

// DefaultClientID returns a stable per-host client ID
func DefaultClientID() string {
	id, err := machineid.ProtectedID("gpsdo-host")
	if err != nil || len(id) < 12 {
		return "gpsdo-host"
	}
	return "gpsdo-" + id[:12]
}

// Connect dials the broker and returns a publisher
func Connect(cfg Config) (*Publisher, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID()
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout)

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("connect %s: timed out after %v", cfg.Broker, cfg.Timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	return newPublisher(c, cfg), nil
}

func newPublisher(c client, cfg Config) *Publisher {
	return &Publisher{
		client:  c,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
	}
}

// Encode builds the JSON body for a report received at t
func Encode(r protocol.Report, t time.Time) ([]byte, error) {
	return json.Marshal(Message{
		Time:        t.UTC(),
		NominalHz:   r.NominalHz,
		Window:      r.Window,
		Accumulated: r.Accumulated,
		OffsetPPB:   r.OffsetPPB(),
	})
}

// Publish sends one report and waits for the broker to accept it
func (p *Publisher) Publish(r protocol.Report, t time.Time) error {
	payload, err := Encode(r, t)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// Close disconnects, giving in-flight messages 250ms
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
