package audit

import (
	"context"
	"log/slog"
	"time"
)

// Producer publishes one record and confirms delivery before returning.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// OutboxWorker drains the outbox table into Kafka. Rows are marked published
// only after the broker acknowledges the record, so a crash between produce
// and mark yields at-least-once delivery.
type OutboxWorker struct {
	store    *PostgresStore
	producer Producer
	topic    string
	interval time.Duration
	batch    int
	log      *slog.Logger
}

func NewOutboxWorker(store *PostgresStore, producer Producer, topic string, interval time.Duration, log *slog.Logger) *OutboxWorker {
	return &OutboxWorker{
		store:    store,
		producer: producer,
		topic:    topic,
		interval: interval,
		batch:    100,
		log:      log,
	}
}

func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.log.Error("outbox drain failed", "error", err)
			}
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) error {
	entries, err := w.store.NextBatch(ctx, w.batch)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.producer.Produce(ctx, w.topic, []byte(e.ID), e.Payload); err != nil {
			return err
		}
		if err := w.store.MarkPublished(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}
