package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/awaistahir/eterna/internal/config"
	"github.com/awaistahir/eterna/internal/engine"
)

const publishTimeout = 5 * time.Second

// client is the part of mqtt.Client the publisher uses
type client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends dashboard refreshes to an MQTT broker (e.g. Home Assistant's)
type Publisher struct {
	client      client
	topicPrefix string
	logger      *zap.Logger
}

// New creates a publisher. When MQTT is disabled the publisher is a no-op.
func New(cfg config.MQTTConfig, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		return &Publisher{logger: logger}, nil
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	// Set default topic prefix if not specified
	topicPrefix := cfg.TopicPrefix
	if topicPrefix == "" {
		topicPrefix = "eterna"
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "eterna"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}
	logger.Info("connected to mqtt broker", zap.String("broker", cfg.Broker), zap.String("prefix", topicPrefix))

	return &Publisher{client: c, topicPrefix: topicPrefix, logger: logger}, nil
}

// Enabled reports whether Publish sends anything
func (p *Publisher) Enabled() bool {
	return p.client != nil
}

// AdviceTopic is where the localized advice list goes
func (p *Publisher) AdviceTopic() string { return p.topicPrefix + "/advice" }

// ImpactTopic is where the rounded impact metrics go
func (p *Publisher) ImpactTopic() string { return p.topicPrefix + "/impact" }

// AdvicePayload is the message published on the advice topic
type AdvicePayload struct {
	Time     string          `json:"time"`
	Language engine.Language `json:"language"`
	Rules    []engine.RuleID `json:"rules"`
	Messages []string        `json:"messages"`
}

// ImpactPayload is the message published on the impact topic
type ImpactPayload struct {
	Time string `json:"time"`
	engine.ImpactMetrics
}

// Payloads builds the advice and impact messages for a dashboard refresh
func Payloads(d engine.Dashboard) (advice, impact []byte, err error) {
	ts := d.Time.Format(time.RFC3339)

	rules := make([]engine.RuleID, len(d.Advice))
	for i, a := range d.Advice {
		rules[i] = a.Rule
	}

	advice, err = json.Marshal(AdvicePayload{Time: ts, Language: d.Language, Rules: rules, Messages: d.Messages})
	if err != nil {
		return nil, nil, fmt.Errorf("encoding advice payload: %w", err)
	}
	impact, err = json.Marshal(ImpactPayload{Time: ts, ImpactMetrics: d.Impact.Rounded()})
	if err != nil {
		return nil, nil, fmt.Errorf("encoding impact payload: %w", err)
	}
	return advice, impact, nil
}

// Publish sends a dashboard refresh as retained messages on both topics
func (p *Publisher) Publish(d engine.Dashboard) error {
	if !p.Enabled() {
		return nil
	}

	advice, impact, err := Payloads(d)
	if err != nil {
		return err
	}

	for _, msg := range []struct {
		topic   string
		payload []byte
	}{
		{p.AdviceTopic(), advice},
		{p.ImpactTopic(), impact},
	} {
		token := p.client.Publish(msg.topic, 1, true, msg.payload)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("publishing to %s: timed out", msg.topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("publishing to %s: %w", msg.topic, err)
		}
		p.logger.Debug("published", zap.String("topic", msg.topic), zap.Int("bytes", len(msg.payload)))
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
