package ticket

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
)

type sentMessage struct {
	Dest chat.Destination
	View chat.View
}

type editedMessage struct {
	Ref  chat.MessageRef
	View chat.View
}

// MockMessenger records outbound traffic.
type MockMessenger struct {
	mu       sync.Mutex
	nextID   int
	Sent     []sentMessage
	Edited   []editedMessage
	Notified []string

	SendFunc   func(ctx context.Context, dest chat.Destination, view chat.View) (chat.MessageRef, error)
	EditFunc   func(ctx context.Context, ref chat.MessageRef, view chat.View) error
	NotifyFunc func(ctx context.Context, userID int64, text string) error
}

func (m *MockMessenger) Send(ctx context.Context, dest chat.Destination, view chat.View) (chat.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendFunc != nil {
		ref, err := m.SendFunc(ctx, dest, view)
		if err != nil {
			return ref, err
		}
	}
	m.nextID++
	m.Sent = append(m.Sent, sentMessage{Dest: dest, View: view})
	return chat.MessageRef{ChatID: dest.ChatID, MessageID: m.nextID}, nil
}

func (m *MockMessenger) Edit(ctx context.Context, ref chat.MessageRef, view chat.View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edited = append(m.Edited, editedMessage{Ref: ref, View: view})
	if m.EditFunc != nil {
		return m.EditFunc(ctx, ref, view)
	}
	return nil
}

func (m *MockMessenger) Delete(ctx context.Context, ref chat.MessageRef) error {
	return nil
}

func (m *MockMessenger) Notify(ctx context.Context, userID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, text)
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, userID, text)
	}
	return nil
}

func (m *MockMessenger) Answer(ctx context.Context, callbackID, text string) error {
	return nil
}

// MockPublisher captures published payloads per topic.
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[topic] = append(m.messages[topic], msg)
	return nil
}

func (m *MockPublisher) Messages(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[topic]
}

type MockRepository struct {
	mu      sync.Mutex
	created []Ticket
	updated []Ticket

	ListFunc func(ctx context.Context, filter Filter) ([]Ticket, error)
}

func (m *MockRepository) Create(ctx context.Context, t *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *t)
	return nil
}

func (m *MockRepository) Update(ctx context.Context, t *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, *t)
	return nil
}

func (m *MockRepository) List(ctx context.Context, filter Filter) ([]Ticket, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return append([]Ticket(nil), m.created...), nil
}

type MockStreamConsumer struct {
	FetchFunc func(ctx context.Context, limit int) ([]events.StreamMessage, error)
}

func (m *MockStreamConsumer) Fetch(ctx context.Context, limit int) ([]events.StreamMessage, error) {
	return m.FetchFunc(ctx, limit)
}

func (m *MockStreamConsumer) SubscribeStream(ctx context.Context, handler events.HandlerFunc) error {
	return nil
}
