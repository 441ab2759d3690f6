//go:build integration

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"egov/internal/platform/kafka"
	"egov/pkg/testutil/containers"
)

type OutboxSuite struct {
	suite.Suite
	db     *sql.DB
	broker *containers.RedpandaContainer
	client *kafka.Client
}

func TestOutboxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OutboxSuite))
}

func (s *OutboxSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T(), "mup.sql")
	db, err := sql.Open("postgres", pg.DSN)
	s.Require().NoError(err)
	s.Require().NoError(db.Ping())
	s.db = db

	s.broker = containers.NewRedpandaContainer(s.T())
	client, err := kafka.New([]string{s.broker.Broker})
	s.Require().NoError(err)
	s.client = client
}

func (s *OutboxSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *OutboxSuite) TestAppendDrainPublish() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const topic = "egov.audit.test"
	s.Require().NoError(s.client.EnsureTopic(ctx, topic, 1))

	store := NewPostgresStore(s.db)
	publisher := NewPublisher(store)
	s.Require().NoError(publisher.Emit(ctx, Event{
		Action:    ActionRequestCreated,
		Actor:     "citizen-1",
		RequestID: "req-1",
	}))

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	worker := NewOutboxWorker(store, s.client, topic, 200*time.Millisecond, slog.New(slog.DiscardHandler))
	go func() { _ = worker.Run(workerCtx) }()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetchCtx, cancelFetch := context.WithTimeout(ctx, 30*time.Second)
	defer cancelFetch()
	fetches := consumer.PollFetches(fetchCtx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().NotEmpty(records)

	var event Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &event))
	s.Equal(ActionRequestCreated, event.Action)
	s.Equal("req-1", event.RequestID)

	// The row is marked published once the broker acknowledged it.
	s.Eventually(func() bool {
		var pending int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM audit_outbox WHERE published_at IS NULL`).Scan(&pending)
		return err == nil && pending == 0
	}, 10*time.Second, 200*time.Millisecond)
}
