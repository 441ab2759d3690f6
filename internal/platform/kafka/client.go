package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Client wraps a franz-go producer used by the audit outbox worker.
type Client struct {
	kc *kgo.Client
}

// New connects to the given brokers. The caller owns Close.
func New(brokers []string) (*Client, error) {
	kc, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerLinger(0),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Client{kc: kc}, nil
}

// EnsureTopic creates the topic if it does not exist yet. Safe to call on
// every startup; an already-exists response is not an error.
func (c *Client) EnsureTopic(ctx context.Context, topic string, partitions int32) error {
	adm := kadm.NewClient(c.kc)
	resp, err := adm.CreateTopics(ctx, partitions, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", topic, r.Err)
		}
	}
	return nil
}

// Produce publishes one record synchronously. The outbox worker relies on the
// returned error to decide whether the outbox row may be marked published.
func (c *Client) Produce(ctx context.Context, topic string, key, value []byte) error {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	return c.kc.ProduceSync(ctx, rec).FirstErr()
}

// Close flushes and releases the underlying client.
func (c *Client) Close() {
	c.kc.Close()
}
