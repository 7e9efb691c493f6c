package form

import (
	"sync"

	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
	"github.com/appetiteclub/lounge/services/lounge/internal/order"
	"github.com/appetiteclub/lounge/services/lounge/internal/zone"
)

// Session is the per-user form context. It is only touched by the inbox
// worker that owns the user.
type Session struct {
	UserID   int64
	ChatID   int64
	Username string

	Values     order.Values
	Zone       *zone.Result
	State      State
	EditTarget order.Field
	Anchor     chat.MessageRef

	SeededFromTemplate bool
	QuickSubmit        bool

	// LastOrder is the most recently submitted order, offered for saving.
	LastOrder order.Values
	// Pending holds the values waiting for a template label.
	Pending order.Values
}

func newSession(userID int64) *Session {
	return &Session{
		UserID: userID,
		Values: order.Values{},
	}
}

// Reset clears the form. Identity, the anchor message and the last
// submitted order survive.
func (s *Session) Reset() {
	s.Values = order.Values{}
	s.Zone = nil
	s.State = StateIdle
	s.EditTarget = ""
	s.SeededFromTemplate = false
	s.QuickSubmit = false
	s.Pending = nil
}

type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

// Get returns the session for userID, creating it on first use.
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = newSession(userID)
		s.sessions[userID] = sess
	}
	return sess
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
