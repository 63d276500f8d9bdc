// Package announce publishes successful attendance logs to an MQTT broker,
// so badge displays and other kiosk-side consumers can react without
// polling the API.
package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/database"
)

// Announcement is the JSON payload published for one successful log.
type Announcement struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

// MQTT publishes attendance announcements to an MQTT broker.
type MQTT struct {
	cfg    *config.MQTTConfig
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewMQTT creates an announcer for the given broker configuration.
func NewMQTT(cfg *config.MQTTConfig) *MQTT {
	return &MQTT{cfg: cfg}
}

// Connect establishes the broker connection. After the first successful
// connect the client keeps reconnecting in the background on its own.
func (a *MQTT) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(a.cfg.BrokerURL)
	opts.SetClientID(a.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		a.mu.Lock()
		a.connected = true
		a.mu.Unlock()
		slog.Info("mqtt connection established",
			"broker", a.cfg.BrokerURL,
			"client_id", a.cfg.ClientID)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		a.mu.Lock()
		a.connected = false
		a.mu.Unlock()
		slog.Warn("mqtt connection lost, will auto-reconnect",
			"error", err,
			"broker", a.cfg.BrokerURL)
	}

	a.client = mqtt.NewClient(opts)

	slog.Info("connecting to mqtt broker", "broker", a.cfg.BrokerURL)

	token := a.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	a.mu.Lock()
	a.connected = true
	a.mu.Unlock()

	return nil
}

// Announce publishes one attendance log. It satisfies the session
// controller's announcer contract; a broker outage is reported as an error
// and never retried here, the auto-reconnect handles recovery.
func (a *MQTT) Announce(ctx context.Context, userID int, name string, loggedAt time.Time) error {
	if !a.isConnected() {
		a.countError()
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(Announcement{
		UserID: userID,
		Name:   name,
		Date:   loggedAt.Format(database.DateLayout),
		Time:   loggedAt.Format(database.TimeLayout),
	})
	if err != nil {
		a.countError()
		return fmt.Errorf("marshal announcement: %w", err)
	}

	// QoS 1: an attendance announcement should arrive at least once.
	token := a.client.Publish(a.cfg.Topic, 1, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		a.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		a.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	a.mu.Lock()
	a.published++
	a.mu.Unlock()

	slog.Debug("attendance announced",
		"topic", a.cfg.Topic,
		"user_id", userID,
		"size", len(payload))

	return nil
}

// Disconnect closes the broker connection.
func (a *MQTT) Disconnect() {
	if a.client != nil && a.client.IsConnected() {
		a.client.Disconnect(250)
		slog.Info("mqtt disconnected")
	}

	a.mu.Lock()
	a.connected = false
	a.mu.Unlock()
}

// Stats contains announcer statistics.
type Stats struct {
	Connected bool   `json:"connected"`
	Published uint64 `json:"published"`
	Errors    uint64 `json:"errors"`
}

// Stats returns announcer statistics.
func (a *MQTT) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Stats{
		Connected: a.connected,
		Published: a.published,
		Errors:    a.errors,
	}
}

func (a *MQTT) isConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

func (a *MQTT) countError() {
	a.mu.Lock()
	a.errors++
	a.mu.Unlock()
}
