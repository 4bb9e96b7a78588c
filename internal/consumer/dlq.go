package consumer

import (
	"github.com/IBM/sarama"

	"github.com/yourorg/notification-gateway/internal/logger"
)

// DLQPublisher republishes the original record bytes, unchanged, to a
// configured dead-letter topic when retry/dispatch exhausts every adapter.
type DLQPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      logger.Logger
}

func NewDLQPublisher(brokers []string, topic string, log logger.Logger) (*DLQPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &DLQPublisher{producer: producer, topic: topic, log: log}, nil
}

// Publish sends the original record payload and key, verbatim, to the DLQ
// topic. A publish failure is logged and swallowed — the record that
// triggered it is not re-processed, to avoid a poison-pill loop.
func (p *DLQPublisher) Publish(key, payload []byte) {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		p.log.Error("dlq publish failed", err, map[string]any{"topic": p.topic})
	}
}

func (p *DLQPublisher) Close() error {
	return p.producer.Close()
}
