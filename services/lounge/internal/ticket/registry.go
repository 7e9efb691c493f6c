package ticket

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/lounge/pkg/event"
	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
)

// DefaultRetention is how long ready tickets stay in memory. It matches the
// ticket stream MaxAge; older tickets live only in the archive.
const DefaultRetention = 24 * time.Hour

const pruneInterval = 10 * time.Minute

// Registry owns every ticket created by this process. All reads and writes
// go through one mutex, so the ready check-and-set is atomic.
//
// A reserved ticket holds its id while its staff messages are being sent.
// Until Activate it is invisible: Get, List and MarkReady report it as not
// found.
type Registry struct {
	mu       sync.Mutex
	tickets  map[ID]*Ticket
	reserved map[ID]struct{}

	stream    events.StreamConsumer
	repo      Repository
	logger    apt.Logger
	now       func() time.Time
	retention time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRegistry(stream events.StreamConsumer, repo Repository, logger apt.Logger) *Registry {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Registry{
		tickets:   make(map[ID]*Ticket),
		reserved:  make(map[ID]struct{}),
		stream:    stream,
		repo:      repo,
		logger:    logger,
		now:       time.Now,
		retention: DefaultRetention,
	}
}

// SetClock replaces the time source used by Warm and the pruner.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// SetRetention changes how long ready tickets are kept. Zero keeps them forever.
func (r *Registry) SetRetention(d time.Duration) {
	r.mu.Lock()
	r.retention = d
	r.mu.Unlock()
}

// Start warms the registry and starts pruning expired ready tickets.
func (r *Registry) Start(ctx context.Context) error {
	if err := r.Warm(ctx); err != nil {
		r.logger.Info("failed to warm ticket registry", "error", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.pruneLoop(runCtx)
	return nil
}

func (r *Registry) Stop(ctx context.Context) error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) pruneLoop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Prune(r.now()); n > 0 {
				r.logger.Debug("pruned ready tickets", "count", n)
			}
		}
	}
}

// Register adds a visible ticket. Used for tickets rebuilt from history.
func (r *Registry) Register(t Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(t)
}

// Reserve adds a ticket that stays hidden until Activate.
func (r *Registry) Reserve(t Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.insertLocked(t); err != nil {
		return err
	}
	r.reserved[t.ID] = struct{}{}
	return nil
}

func (r *Registry) insertLocked(t Ticket) error {
	if _, exists := r.tickets[t.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTicket, t.ID)
	}
	cp := t.clone()
	r.tickets[t.ID] = &cp
	return nil
}

// Activate attaches the sent staff messages and makes a reserved ticket
// visible. From here on it can be marked ready.
func (r *Registry) Activate(id ID, refs []chat.MessageRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return ErrNotFound
	}
	t.Refs = append(t.Refs, refs...)
	delete(r.reserved, id)
	return nil
}

// lookupLocked returns a visible ticket.
func (r *Registry) lookupLocked(id ID) (*Ticket, bool) {
	if _, hidden := r.reserved[id]; hidden {
		return nil, false
	}
	t, ok := r.tickets[id]
	return t, ok
}

func (r *Registry) Get(id ID) (Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.lookupLocked(id)
	if !ok {
		return Ticket{}, ErrNotFound
	}
	return t.clone(), nil
}

// MarkReady stamps the ticket once. first is false when the ticket was
// already ready; the returned copy then carries the original elapsed value.
func (r *Registry) MarkReady(id ID, now time.Time) (t Ticket, first bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.lookupLocked(id)
	if !ok {
		return Ticket{}, false, ErrNotFound
	}
	if stored.ReadyAt != nil {
		return stored.clone(), false, nil
	}

	readyAt := now
	stored.ReadyAt = &readyAt
	stored.Elapsed = readyAt.Sub(stored.CreatedAt)
	if stored.Elapsed < 0 {
		stored.Elapsed = 0
	}
	return stored.clone(), true, nil
}

func (r *Registry) Remove(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tickets, id)
	delete(r.reserved, id)
}

// Prune drops ready tickets whose ready time is older than the retention.
// Pending tickets are always kept.
func (r *Registry) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.retention <= 0 {
		return 0
	}
	removed := 0
	for id, t := range r.tickets {
		if r.expiredLocked(t, now) {
			delete(r.tickets, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) expiredLocked(t *Ticket, now time.Time) bool {
	return r.retention > 0 && t.ReadyAt != nil && now.Sub(*t.ReadyAt) > r.retention
}

// List returns visible tickets ordered by creation time.
func (r *Registry) List(pendingOnly bool) []Ticket {
	r.mu.Lock()
	out := make([]Ticket, 0, len(r.tickets))
	for id, t := range r.tickets {
		if _, hidden := r.reserved[id]; hidden {
			continue
		}
		if pendingOnly && t.ReadyAt != nil {
			continue
		}
		out = append(out, t.clone())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickets)
}

// Warm rebuilds the registry from the ticket event stream, then merges the
// archive for tickets the stream no longer retains. Stream state wins for
// tickets present in both.
func (r *Registry) Warm(ctx context.Context) error {
	if r.stream == nil && r.repo == nil {
		r.logger.Info("neither stream nor archive configured, registry starts empty")
		return nil
	}

	if r.stream != nil {
		if err := r.warmFromStream(ctx); err != nil {
			r.logger.Info("ticket stream replay failed, using archive only", "error", err)
		}
	}

	if r.repo != nil {
		r.mergeArchive(ctx)
	}
	return nil
}

func (r *Registry) warmFromStream(ctx context.Context) error {
	messages, err := r.stream.Fetch(ctx, 10000)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range messages {
		r.applyEventLocked(msg.Data)
	}

	r.logger.Info("registry warmed from stream", "events", len(messages), "tickets", len(r.tickets))
	return nil
}

func (r *Registry) mergeArchive(ctx context.Context) {
	pending, err := r.repo.List(ctx, Filter{PendingOnly: true, Limit: 10000})
	if err != nil {
		r.logger.Info("cannot read pending tickets from archive", "error", err)
	}

	var recent []Ticket
	if r.retention > 0 {
		recent, err = r.repo.List(ctx, Filter{Since: r.now().Add(-r.retention), Limit: 10000})
		if err != nil {
			r.logger.Info("cannot read recent tickets from archive", "error", err)
		}
	}

	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, batch := range [][]Ticket{pending, recent} {
		for i := range batch {
			t := batch[i].clone()
			if _, exists := r.tickets[t.ID]; exists || r.expiredLocked(&t, now) {
				continue
			}
			r.tickets[t.ID] = &t
			added++
		}
	}

	r.logger.Info("registry merged archive", "added", added, "tickets", len(r.tickets))
}

func (r *Registry) applyEventLocked(data []byte) {
	eventType, err := event.Type(data)
	if err != nil {
		r.logger.Error("cannot decode ticket event type", "error", err)
		return
	}

	switch eventType {
	case event.EventOrderTicketCreated:
		var evt event.OrderTicketCreatedEvent
		if err := event.Decode(data, &evt); err != nil {
			r.logger.Error("cannot decode ticket created event", "error", err)
			return
		}
		t := &Ticket{
			ID:        ID(evt.TicketID),
			UserID:    evt.UserID,
			Username:  evt.Username,
			Table:     evt.Table,
			Zone:      evt.Zone,
			TopicID:   evt.TopicID,
			Summary:   evt.Summary,
			CreatedAt: evt.CreatedAt,
		}
		for _, m := range evt.Messages {
			t.Refs = append(t.Refs, chat.MessageRef{ChatID: m.ChatID, MessageID: m.MessageID})
		}
		r.tickets[t.ID] = t

	case event.EventOrderTicketReady:
		var evt event.OrderTicketReadyEvent
		if err := event.Decode(data, &evt); err != nil {
			r.logger.Error("cannot decode ticket ready event", "error", err)
			return
		}
		t, ok := r.tickets[ID(evt.TicketID)]
		if !ok || t.ReadyAt != nil {
			return
		}
		readyAt := evt.ReadyAt
		t.ReadyAt = &readyAt
		t.Elapsed = time.Duration(evt.ElapsedSeconds) * time.Second
	}
}
