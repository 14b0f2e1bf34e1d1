package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes finalized delta bars to one topic.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond, // bars are sparse, flush fast
		Async:        true,
	}
	return &Producer{writer: w}
}

// WriteMessage publishes one bar keyed by symbol so a topic carrying several
// instruments stays ordered per instrument.
func (p *Producer) WriteMessage(key, value []byte) error {
	return p.writer.WriteMessages(context.Background(),
		kafka.Message{Key: key, Value: value},
	)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
