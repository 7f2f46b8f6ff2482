package notify

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"ignitex/internal/engine"
)

// KafkaPublisher forwards trade events to a Kafka topic. It is an
// optional collaborator: publish failures are logged and dropped, never
// propagated into the simulation.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a sync producer to the given brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is empty")
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return &KafkaPublisher{producer: producer, topic: topic}, nil
}

// Subscribe attaches the publisher to the engine's trade event stream.
func (p *KafkaPublisher) Subscribe(e *engine.Engine) {
	e.OnTradeEvent(p.Publish)
}

// Publish sends one trade event keyed by agent ID.
func (p *KafkaPublisher) Publish(evt engine.TradeEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		logs.Errorf("marshal trade event: %v", err)
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(evt.Agent.ID),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		logs.Warnf("publish trade event for %s failed: %v", evt.Agent.ID, err)
	}
}

// Close shuts the producer down.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
