package form

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
	"github.com/appetiteclub/lounge/services/lounge/internal/template"
	"github.com/appetiteclub/lounge/services/lounge/internal/ticket"
	"github.com/google/uuid"
)

// MockMessenger records outbound traffic and remembers the last view shown
// to the user.
type MockMessenger struct {
	mu       sync.Mutex
	nextID   int
	last     chat.View
	Sent     []chat.View
	Edited   []chat.View
	Deleted  []chat.MessageRef
	Answers  []string
	Notified []string

	SendFunc func(ctx context.Context, dest chat.Destination, view chat.View) (chat.MessageRef, error)
	EditFunc func(ctx context.Context, ref chat.MessageRef, view chat.View) error
}

func (m *MockMessenger) Send(ctx context.Context, dest chat.Destination, view chat.View) (chat.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendFunc != nil {
		if ref, err := m.SendFunc(ctx, dest, view); err != nil {
			return ref, err
		}
	}
	m.nextID++
	m.Sent = append(m.Sent, view)
	if dest.ChatID > 0 {
		m.last = view
	}
	return chat.MessageRef{ChatID: dest.ChatID, MessageID: m.nextID}, nil
}

func (m *MockMessenger) Edit(ctx context.Context, ref chat.MessageRef, view chat.View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edited = append(m.Edited, view)
	if m.EditFunc != nil {
		if err := m.EditFunc(ctx, ref, view); err != nil {
			return err
		}
	}
	if ref.ChatID > 0 {
		m.last = view
	}
	return nil
}

func (m *MockMessenger) Delete(ctx context.Context, ref chat.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, ref)
	return nil
}

func (m *MockMessenger) Notify(ctx context.Context, userID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, text)
	return nil
}

func (m *MockMessenger) Answer(ctx context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answers = append(m.Answers, text)
	return nil
}

// Last is the most recent view shown in a user chat.
func (m *MockMessenger) Last() chat.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *MockMessenger) LastAnswer() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Answers) == 0 {
		return ""
	}
	return m.Answers[len(m.Answers)-1]
}

// hasToken reports whether v offers a button with token.
func hasToken(v chat.View, token string) bool {
	for _, row := range v.Keyboard {
		for _, b := range row {
			if b.Token == token {
				return true
			}
		}
	}
	return false
}

func containsText(v chat.View, text string) bool {
	return strings.Contains(v.Text, text)
}

type MockTickets struct {
	mu       sync.Mutex
	Requests []ticket.Request

	CreateFunc    func(ctx context.Context, req ticket.Request) (ticket.Ticket, error)
	MarkReadyFunc func(ctx context.Context, id ticket.ID) (time.Duration, error)
}

func (m *MockTickets) Create(ctx context.Context, req ticket.Request) (ticket.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateFunc != nil {
		t, err := m.CreateFunc(ctx, req)
		if err != nil {
			return t, err
		}
	}
	m.Requests = append(m.Requests, req)
	return ticket.Ticket{ID: ticket.ID("t")}, nil
}

func (m *MockTickets) MarkReady(ctx context.Context, id ticket.ID) (time.Duration, error) {
	if m.MarkReadyFunc != nil {
		return m.MarkReadyFunc(ctx, id)
	}
	return 0, ticket.ErrNotFound
}

func (m *MockTickets) Last() ticket.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Requests[len(m.Requests)-1]
}

type MockTemplates struct {
	mu        sync.Mutex
	templates map[uuid.UUID]template.Template

	CreateFunc func(ctx context.Context, t *template.Template) error
	ListFunc   func(ctx context.Context) ([]template.Template, error)
}

func NewMockTemplates(templates ...template.Template) *MockTemplates {
	m := &MockTemplates{templates: map[uuid.UUID]template.Template{}}
	for _, tpl := range templates {
		m.templates[tpl.ID] = tpl
	}
	return m
}

func (m *MockTemplates) Create(ctx context.Context, t *template.Template) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = *t
	return nil
}

func (m *MockTemplates) Get(ctx context.Context, id uuid.UUID) (*template.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tpl, ok := m.templates[id]
	if !ok {
		return nil, template.ErrNotFound
	}
	return &tpl, nil
}

func (m *MockTemplates) List(ctx context.Context) ([]template.Template, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]template.Template, 0, len(m.templates))
	for _, tpl := range m.templates {
		out = append(out, tpl)
	}
	return out, nil
}

func (m *MockTemplates) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, id)
	return nil
}

func (m *MockTemplates) Labels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, tpl := range m.templates {
		out = append(out, tpl.Label)
	}
	return out
}

type fakeStopList map[string]bool

func (f fakeStopList) IsBlocked(text string) (string, bool) {
	lower := strings.ToLower(text)
	for item := range f {
		if strings.Contains(lower, item) {
			return item, true
		}
	}
	return "", false
}
