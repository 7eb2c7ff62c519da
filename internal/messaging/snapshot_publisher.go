package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adventure-server/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// SnapshotPayload - сообщение очереди снимков состояния игры.
type SnapshotPayload struct {
	EventID     string           `json:"event_id"`
	GameID      string           `json:"game_id"`
	PublishedAt time.Time        `json:"published_at"`
	State       models.GameState `json:"state"`
}

// channel - часть *amqp.Channel, нужная издателю.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQSnapshotPublisher публикует снимки состояния в durable очередь.
type RabbitMQSnapshotPublisher struct {
	ch        channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQSnapshotPublisher открывает канал и объявляет очередь.
func NewRabbitMQSnapshotPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*RabbitMQSnapshotPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("не удалось объявить очередь '%s': %w", queueName, err)
	}
	logger.Info("Snapshot queue declared", zap.String("queue", q.Name))
	return newSnapshotPublisher(ch, q.Name, logger), nil
}

func newSnapshotPublisher(ch channel, queueName string, logger *zap.Logger) *RabbitMQSnapshotPublisher {
	return &RabbitMQSnapshotPublisher{ch: ch, queueName: queueName, logger: logger.Named("SnapshotPublisher")}
}

// Publish отправляет снимок в очередь через default exchange.
func (p *RabbitMQSnapshotPublisher) Publish(ctx context.Context, gs models.GameState) error {
	payload := SnapshotPayload{
		EventID:     uuid.NewString(),
		GameID:      gs.GameID,
		PublishedAt: time.Now().UTC(),
		State:       gs,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.ch.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    payload.EventID,
			Timestamp:    payload.PublishedAt,
			Body:         body,
		})
	if err != nil {
		p.logger.Error("Failed to publish snapshot", zap.String("game_id", gs.GameID), zap.Error(err))
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	p.logger.Debug("Snapshot published", zap.String("game_id", gs.GameID), zap.String("event_id", payload.EventID))
	return nil
}

func (p *RabbitMQSnapshotPublisher) Close() error {
	return p.ch.Close()
}
