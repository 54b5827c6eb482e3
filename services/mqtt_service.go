package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"motion-monitor/be/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusReport is the payload detectors send over HTTP or MQTT.
type StatusReport struct {
	MotionDetected *bool `json:"motion_detected" binding:"required"`
	HumansPresent  *bool `json:"humans_present" binding:"required"`
}

var ErrInvalidReport = errors.New("report must carry motion_detected and humans_present")

func ParseStatusReport(payload []byte) (StatusReport, error) {
	var report StatusReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return StatusReport{}, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	if report.MotionDetected == nil || report.HumansPresent == nil {
		return StatusReport{}, ErrInvalidReport
	}
	return report, nil
}

// MQTTIngest feeds detector reports arriving on an MQTT topic into the
// status publisher.
type MQTTIngest struct {
	cfg       config.MQTTConfig
	publisher *StatusPublisher
	logger    *zap.Logger
	client    mqtt.Client
}

func NewMQTTIngest(cfg config.MQTTConfig, publisher *StatusPublisher, logger *zap.Logger) *MQTTIngest {
	return &MQTTIngest{
		cfg:       cfg,
		publisher: publisher,
		logger:    logger.With(zap.String("component", "mqtt"), zap.String("topic", cfg.StatusTopic)),
	}
}

// Start connects to the broker and subscribes to the status topic.
func (m *MQTTIngest) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.cfg.Broker)
	// suffix keeps several instances from kicking each other off the broker
	opts.SetClientID(m.cfg.ClientID + "-" + uuid.NewString()[:8])
	if m.cfg.Username != "" {
		opts.SetUsername(m.cfg.Username)
	}
	if m.cfg.Password != "" {
		opts.SetPassword(m.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(m.cfg.StatusTopic, m.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
			if err := m.HandleMessage(msg.Topic(), msg.Payload()); err != nil {
				m.logger.Warn("Dropped MQTT status report", zap.Error(err))
			}
		})
		if token.Wait() && token.Error() != nil {
			m.logger.Error("Failed to subscribe", zap.Error(token.Error()))
			return
		}
		m.logger.Info("Subscribed to status topic")
	})

	m.client = mqtt.NewClient(opts)
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

// HandleMessage parses one report and hands it to the publisher.
func (m *MQTTIngest) HandleMessage(topic string, payload []byte) error {
	report, err := ParseStatusReport(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := m.publisher.Report(ctx, *report.MotionDetected, *report.HumansPresent, "mqtt"); err != nil {
		return fmt.Errorf("failed to publish report from %s: %w", topic, err)
	}
	return nil
}

func (m *MQTTIngest) Stop() {
	if m == nil || m.client == nil {
		return
	}
	m.client.Unsubscribe(m.cfg.StatusTopic).Wait()
	m.client.Disconnect(250)
}
