package event

import (
	"time"

	"github.com/bytedance/sonic"
)

const (
	OrderTicketsTopic       = "orders.tickets"
	ReadyRequestsTopic      = "orders.tickets.ready"
	EventOrderTicketCreated = "order.ticket.created"
	EventOrderTicketReady   = "order.ticket.ready"
)

type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

type OrderTicketEventMetadata struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	TicketID   string    `json:"ticket_id"`
	UserID     int64     `json:"user_id"`
	Table      string    `json:"table,omitempty"`
	Zone       string    `json:"zone,omitempty"`
}

type OrderTicketCreatedEvent struct {
	OrderTicketEventMetadata
	Username  string       `json:"username,omitempty"`
	TopicID   int          `json:"topic_id,omitempty"`
	Summary   string       `json:"summary"`
	Messages  []MessageRef `json:"messages,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type OrderTicketReadyEvent struct {
	OrderTicketEventMetadata
	CreatedAt      time.Time `json:"created_at"`
	ReadyAt        time.Time `json:"ready_at"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
}

// ReadyRequest asks the bot to close a ticket, e.g. from a staff display.
type ReadyRequest struct {
	TicketID string `json:"ticket_id"`
	Source   string `json:"source,omitempty"`
}

func Encode(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func Decode(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

// Type peeks at the event_type discriminator.
func Type(data []byte) (string, error) {
	var base struct {
		EventType string `json:"event_type"`
	}
	if err := sonic.Unmarshal(data, &base); err != nil {
		return "", err
	}
	return base.EventType, nil
}
