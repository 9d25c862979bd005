// Package events publishes checkout receipts to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	checkout "github.com/bearuzish-arch/SmartShop/checkout/logic"
)

const TypeCheckoutCompleted = "checkout.completed"

type Event struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Payload   any       `json:"payload"`
}

type ReceiptLine struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// ReceiptPayload is the wire form of a checkout receipt. Amounts are
// decimal strings.
type ReceiptPayload struct {
	ReceiptID     string        `json:"receipt_id"`
	AmountCharged string        `json:"amount_charged"`
	Subtotal      string        `json:"subtotal"`
	Discount      string        `json:"discount"`
	CouponCode    string        `json:"coupon_code,omitempty"`
	BalanceAfter  string        `json:"balance_after"`
	Items         []ReceiptLine `json:"items"`
	CheckedOutAt  time.Time     `json:"checked_out_at"`
}

// NewCheckoutCompleted wraps a receipt in an event envelope.
func NewCheckoutCompleted(r *checkout.Receipt) Event {
	lines := make([]ReceiptLine, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, ReceiptLine{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice.String(),
			Quantity:  item.Quantity,
		})
	}
	return Event{
		EventID:   uuid.NewString(),
		Type:      TypeCheckoutCompleted,
		CreatedAt: time.Now().UTC(),
		Payload: ReceiptPayload{
			ReceiptID:     r.ID,
			AmountCharged: r.AmountCharged.String(),
			Subtotal:      r.Totals.Subtotal.String(),
			Discount:      r.Totals.Discount.String(),
			CouponCode:    r.CouponCode,
			BalanceAfter:  r.BalanceAfter.String(),
			Items:         lines,
			CheckedOutAt:  r.CheckedOutAt,
		},
	}
}

// Publisher delivers receipts. Publishing happens after the debit is
// committed, so a failure here never rolls back a checkout.
type Publisher interface {
	PublishReceipt(ctx context.Context, r *checkout.Receipt) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

// ParseBrokers splits a comma-separated broker list, dropping blanks.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewKafkaWriter builds a writer keyed by receipt ID.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

func NewKafkaPublisher(writer MessageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) PublishReceipt(ctx context.Context, r *checkout.Receipt) error {
	evt := NewCheckoutCompleted(r)
	if err := PublishJSON(ctx, p.writer, r.ID, evt); err != nil {
		p.logger.Warn("receipt publish failed", zap.String("receipt_id", r.ID), zap.Error(err))
		return err
	}
	p.logger.Info("receipt published", zap.String("receipt_id", r.ID), zap.String("event_id", evt.EventID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// PublishJSON writes payload as a single JSON message under key.
func PublishJSON(ctx context.Context, writer MessageWriter, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()})
}

// NopPublisher drops receipts. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishReceipt(context.Context, *checkout.Receipt) error { return nil }
func (NopPublisher) Close() error                                           { return nil }
