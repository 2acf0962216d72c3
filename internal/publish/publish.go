package publish

import (
	"encoding/json"
	"time"

	"elmdiag/internal/scan"
	"elmdiag/pkg/log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	DefaultTopic = "vehicle/carstats"

	clientID          = "elmdiag"
	disconnectQuiesce = 250 // milliseconds
)

// Publisher sends a completed sweep to an MQTT broker.
type Publisher struct {
	client mqtt.Client
	topic  string
}

type sweepPayload struct {
	Timestamp int64          `json:"timestamp"`
	Readings  []scan.Reading `json:"readings"`
}

// Connect establishes the broker connection.
func Connect(broker, topic string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Info("connected to MQTT broker", zap.String("broker", broker))

	return &Publisher{client: client, topic: topic}, nil
}

// PublishSweep publishes the readings as one JSON message, QoS 0.
func (p *Publisher) PublishSweep(readings []scan.Reading) error {
	data, err := json.Marshal(sweepPayload{
		Timestamp: time.Now().Unix(),
		Readings:  readings,
	})
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, 0, false, data)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Info("sweep published", zap.String("topic", p.topic), zap.Int("bytes", len(data)))
	return nil
}

func (p *Publisher) Disconnect() {
	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
	}
}
