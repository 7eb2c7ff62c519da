//go:build integration

package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"adventure-server/internal/messaging"
	"adventure-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const snapshotQueue = "game_snapshots_test"

type PublisherIntegrationSuite struct {
	suite.Suite
	ctx          context.Context
	rmqContainer *rabbitmq.RabbitMQContainer
	conn         *amqp.Connection
	publisher    *messaging.RabbitMQSnapshotPublisher
}

func (s *PublisherIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.rmqContainer, err = rabbitmq.Run(s.ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start rabbitmq container")

	url, err := s.rmqContainer.AmqpURL(s.ctx)
	require.NoError(s.T(), err)
	s.conn, err = amqp.Dial(url)
	require.NoError(s.T(), err, "Failed to connect to rabbitmq")

	s.publisher, err = messaging.NewRabbitMQSnapshotPublisher(s.conn, snapshotQueue, zap.NewNop())
	require.NoError(s.T(), err)
}

func (s *PublisherIntegrationSuite) TearDownSuite() {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.rmqContainer != nil {
		_ = s.rmqContainer.Terminate(s.ctx)
	}
}

func (s *PublisherIntegrationSuite) TestSnapshotLandsInDurableQueue() {
	ch, err := s.conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	// passive declare fails unless the queue exists with the same durability
	q, err := ch.QueueDeclarePassive(snapshotQueue, true, false, false, false, nil)
	s.Require().NoError(err, "queue must be declared durable")
	s.Equal(0, q.Messages)

	scene := "dock"
	gs := models.GameState{
		GameID:         "harbor",
		CurrentSceneID: &scene,
		Transcript:     []models.TranscriptEntry{{Role: models.RoleNarrator, Text: "Fog rolls in."}},
		Inventory:      []string{"coin"},
		ThreadID:       "thread_n",
	}
	s.Require().NoError(s.publisher.Publish(s.ctx, gs))

	var (
		delivery amqp.Delivery
		ok       bool
	)
	s.Require().Eventually(func() bool {
		delivery, ok, err = ch.Get(snapshotQueue, true)
		return err == nil && ok
	}, 10*time.Second, 100*time.Millisecond, "snapshot did not reach the queue")

	s.Equal(amqp.Persistent, delivery.DeliveryMode)
	s.Equal("application/json", delivery.ContentType)
	s.NotEmpty(delivery.MessageId)

	var payload messaging.SnapshotPayload
	s.Require().NoError(json.Unmarshal(delivery.Body, &payload))
	s.Equal(delivery.MessageId, payload.EventID)
	s.Equal("harbor", payload.GameID)
	s.Equal([]string{"coin"}, payload.State.Inventory)
	s.Require().NotNil(payload.State.CurrentSceneID)
	s.Equal("dock", *payload.State.CurrentSceneID)
	s.Equal("Fog rolls in.", payload.State.Transcript[0].Text)
}

func TestPublisherIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PublisherIntegrationSuite))
}
