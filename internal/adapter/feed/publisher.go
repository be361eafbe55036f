// Package feed publishes committed fund transactions to a Kafka topic.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"myfunds/internal/domain"
)

// TransactionEvent is the message value written for each transaction
type TransactionEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FundID    string    `json:"fund_id"`
	FundCode  string    `json:"fund_code"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Shares    float64   `json:"shares"`
	Price     float64   `json:"price"`
	Fee       float64   `json:"fee"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher writes transaction events asynchronously, keyed by user so one
// user's events stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Publisher for topic. Delivery failures are logged.
func NewPublisher(brokers []string, topic string, log *zap.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					log.Error("failed to deliver transaction events",
						zap.Int("count", len(messages)),
						zap.Error(err),
					)
				}
			},
		},
	}
}

// Publish enqueues tx for delivery
func (p *Publisher) Publish(ctx context.Context, tx *domain.FundTransaction) error {
	value, err := json.Marshal(TransactionEvent{
		ID:        tx.ID.String(),
		UserID:    tx.UserID.String(),
		FundID:    tx.FundID.String(),
		FundCode:  tx.FundCode,
		Type:      tx.TransactionType,
		Amount:    tx.TransactionAmount,
		Shares:    tx.TransactionShares,
		Price:     tx.TransactionPrice,
		Fee:       tx.Fee,
		Status:    tx.Status,
		Timestamp: tx.TransactionTime,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal transaction event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tx.UserID.String()),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to publish transaction event: %w", err)
	}
	return nil
}

// Close flushes pending messages
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *domain.FundTransaction) error { return nil }
func (NopPublisher) Close() error                                           { return nil }
