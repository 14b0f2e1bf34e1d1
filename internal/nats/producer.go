package nats

import (
	"fmt"
	"strings"
	"time"

	nats "github.com/nats-io/nats.go"
)

// Producer publishes finalized delta bars to one subject.
type Producer struct {
	conn    *nats.Conn
	subject string
}

func NewProducer(servers []string, subject string) (*Producer, error) {
	conn, err := nats.Connect(
		strings.Join(servers, ","),
		nats.Name("volume-delta-producer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Producer{conn: conn, subject: subject}, nil
}

func (p *Producer) WriteMessage(key, value []byte) error {
	_ = key // NATS subjects carry the routing; key is a kafka concept
	if p.conn == nil {
		return nats.ErrConnectionClosed
	}
	return p.conn.Publish(p.subject, value)
}

func (p *Producer) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
