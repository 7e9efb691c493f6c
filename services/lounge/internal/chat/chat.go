package chat

import "context"

type EventKind int

const (
	EventText EventKind = iota
	EventButton
	EventCommand
)

// Event is one inbound user interaction, already stripped of transport details.
type Event struct {
	Kind       EventKind
	UserID     int64
	ChatID     int64
	Username   string
	Text       string // answer text, button token or command name without the slash
	CallbackID string
	Message    MessageRef
}

type MessageRef struct {
	ChatID    int64 `bson:"chat_id" json:"chat_id"`
	MessageID int   `bson:"message_id" json:"message_id"`
}

func (r MessageRef) IsZero() bool {
	return r.MessageID == 0
}

// Destination is a chat plus an optional forum topic (0 means none).
type Destination struct {
	ChatID  int64
	TopicID int
}

type Button struct {
	Text  string
	Token string
}

type View struct {
	Text     string
	Keyboard [][]Button
}

func (v View) IsZero() bool {
	return v.Text == "" && len(v.Keyboard) == 0
}

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	Send(ctx context.Context, dest Destination, view View) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, view View) error
	Delete(ctx context.Context, ref MessageRef) error
	Notify(ctx context.Context, userID int64, text string) error
	Answer(ctx context.Context, callbackID, text string) error
}
