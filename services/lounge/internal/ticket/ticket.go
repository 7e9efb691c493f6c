package ticket

import (
	"context"
	"errors"
	"time"

	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
)

// ID is the creation timestamp in nanoseconds, rendered as a decimal string.
type ID string

var (
	ErrNotFound        = errors.New("ticket not found")
	ErrDuplicateTicket = errors.New("duplicate ticket id")
)

type Ticket struct {
	ID        ID                `bson:"_id" json:"id"`
	UserID    int64             `bson:"user_id" json:"user_id"`
	Username  string            `bson:"username,omitempty" json:"username,omitempty"`
	Table     string            `bson:"table,omitempty" json:"table,omitempty"`
	Zone      string            `bson:"zone" json:"zone"`
	TopicID   int               `bson:"topic_id,omitempty" json:"topic_id,omitempty"`
	Summary   string            `bson:"summary" json:"summary"`
	Refs      []chat.MessageRef `bson:"refs,omitempty" json:"refs,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
	ReadyAt   *time.Time        `bson:"ready_at,omitempty" json:"ready_at,omitempty"`
	Elapsed   time.Duration     `bson:"elapsed,omitempty" json:"elapsed,omitempty"`
}

func (t Ticket) Ready() bool {
	return t.ReadyAt != nil
}

func (t Ticket) clone() Ticket {
	out := t
	if t.Refs != nil {
		out.Refs = append([]chat.MessageRef(nil), t.Refs...)
	}
	if t.ReadyAt != nil {
		ready := *t.ReadyAt
		out.ReadyAt = &ready
	}
	return out
}

type Filter struct {
	PendingOnly bool
	Since       time.Time
	Limit       int
}

// Repository archives tickets. It is optional; the registry is the source
// of truth while the process runs.
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	Update(ctx context.Context, t *Ticket) error
	List(ctx context.Context, filter Filter) ([]Ticket, error)
}
