// Package events fans reaction activity out to RabbitMQ so off-relay
// consumers (archival, moderation tooling) can observe sessions without
// holding a websocket.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// ReactionEvent is the broker-side record of one applied toggle.
type ReactionEvent struct {
	SessionToken string `json:"sessionToken"`
	MessageID    string `json:"messageId"`
	Emoji        string `json:"emoji"`
	UserID       string `json:"userId"`
	Action       string `json:"action"`
}

// Publisher writes reaction events to a topic exchange.
type Publisher struct {
	conn     *amqp091.Connection
	exchange string
	logger   *slog.Logger
}

// NewPublisher dials the broker and declares the exchange. The exchange
// is durable; events survive broker restarts once routed to a queue.
func NewPublisher(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(
		exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{
		conn:     conn,
		exchange: exchange,
		logger:   logger.With(slog.String("component", "events")),
	}, nil
}

// PublishReaction emits one event keyed by session and action, e.g.
// "reaction.default-session.add".
func (p *Publisher) PublishReaction(ctx context.Context, ev ReactionEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	key := "reaction." + ev.SessionToken + "." + ev.Action
	err = ch.PublishWithContext(
		ctx, p.exchange, key, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err == nil {
		p.logger.Debug("Published reaction event", slog.String("key", key))
	}
	return err
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
