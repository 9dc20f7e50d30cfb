package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicBetPlaced     = "bet_placed"
	TopicEventRevealed = "event_revealed"
)

// BetPlaced is emitted after a wager is committed.
type BetPlaced struct {
	BetID       int64   `json:"bet_id"`
	EventID     int64   `json:"event_id"`
	UserID      int64   `json:"user_id"`
	GenderGuess string  `json:"gender_guess"`
	Fee         float64 `json:"fee"`
	TsUnixMs    int64   `json:"ts_unix_ms"`
}

// EventRevealed is emitted after an event is settled.
type EventRevealed struct {
	EventID     int64   `json:"event_id"`
	Outcome     string  `json:"outcome"`
	WinnerID    *int64  `json:"winner_id,omitempty"`
	WinnerPrize float64 `json:"winner_prize"`
	PrizePool   float64 `json:"prize_pool"`
	TsUnixMs    int64   `json:"ts_unix_ms"`
}

// Publisher announces domain events to downstream consumers.
type Publisher interface {
	PublishBetPlaced(ctx context.Context, e BetPlaced) error
	PublishEventRevealed(ctx context.Context, e EventRevealed) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes JSON messages keyed by event id, so one event's messages stay ordered.
type Kafka struct {
	betPlaced     messageWriter
	eventRevealed messageWriter
	now           func() time.Time
}

func NewWriter(brokers string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafka(brokers, betPlacedTopic, eventRevealedTopic string) *Kafka {
	return &Kafka{
		betPlaced:     NewWriter(brokers, betPlacedTopic),
		eventRevealed: NewWriter(brokers, eventRevealedTopic),
		now:           time.Now,
	}
}

func (k *Kafka) PublishBetPlaced(ctx context.Context, e BetPlaced) error {
	e.TsUnixMs = k.now().UnixMilli()
	return k.write(ctx, k.betPlaced, e.EventID, e)
}

func (k *Kafka) PublishEventRevealed(ctx context.Context, e EventRevealed) error {
	e.TsUnixMs = k.now().UnixMilli()
	return k.write(ctx, k.eventRevealed, e.EventID, e)
}

func (k *Kafka) Close() error {
	err1 := k.betPlaced.Close()
	err2 := k.eventRevealed.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (k *Kafka) write(ctx context.Context, w messageWriter, eventID int64, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(eventID, 10)),
		Value: b,
		Time:  k.now(),
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Nop drops every message; used when no brokers are configured.
type Nop struct{}

func (Nop) PublishBetPlaced(context.Context, BetPlaced) error         { return nil }
func (Nop) PublishEventRevealed(context.Context, EventRevealed) error { return nil }
