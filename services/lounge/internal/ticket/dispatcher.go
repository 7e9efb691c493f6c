package ticket

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/lounge/pkg/event"
	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
	"github.com/appetiteclub/lounge/services/lounge/internal/order"
	"github.com/appetiteclub/lounge/services/lounge/internal/zone"
)

const readyNotice = "✅ Ваш кальян готов! Время ожидания: "

type Config struct {
	ChatID          int64
	FallbackTopicID int
}

// Deps groups the dispatcher collaborators. Repo and Publisher are optional.
type Deps struct {
	Registry  *Registry
	Messenger chat.Messenger
	Resolver  *zone.Resolver
	Repo      Repository
	Publisher events.Publisher
}

type Request struct {
	UserID   int64
	ChatID   int64
	Username string
	Values   order.Values
	Zone     *zone.Result
}

type Dispatcher struct {
	registry  *Registry
	messenger chat.Messenger
	resolver  *zone.Resolver
	repo      Repository
	publisher events.Publisher
	cfg       Config
	logger    apt.Logger
	now       func() time.Time

	idMu   sync.Mutex
	lastID int64
}

func NewDispatcher(deps Deps, cfg Config, logger apt.Logger) *Dispatcher {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if deps.Registry == nil {
		deps.Registry = NewRegistry(nil, deps.Repo, logger)
	}
	if deps.Resolver == nil {
		deps.Resolver = zone.NewResolver(nil)
	}
	return &Dispatcher{
		registry:  deps.Registry,
		messenger: deps.Messenger,
		resolver:  deps.Resolver,
		repo:      deps.Repo,
		publisher: deps.Publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the time source.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// nextID never hands out the same id twice, even when the clock stalls.
func (d *Dispatcher) nextID(at time.Time) ID {
	d.idMu.Lock()
	defer d.idMu.Unlock()

	ns := at.UnixNano()
	if ns <= d.lastID {
		ns = d.lastID + 1
	}
	d.lastID = ns
	return ID(strconv.FormatInt(ns, 10))
}

func (d *Dispatcher) Create(ctx context.Context, req Request) (Ticket, error) {
	values := req.Values
	if values == nil {
		values = order.Values{}
	}
	table, _ := values.Get(order.FieldTable)
	table = strings.TrimSpace(table)

	var z zone.Result
	if req.Zone != nil {
		z = *req.Zone
	} else {
		z = d.resolver.Resolve(table)
	}

	createdAt := d.now()
	t := Ticket{
		ID:        d.nextID(createdAt),
		UserID:    req.UserID,
		Username:  req.Username,
		Table:     table,
		Zone:      z.Zone,
		TopicID:   z.TopicID,
		Summary:   Summary(req.Username, req.UserID, values, z),
		CreatedAt: createdAt,
	}

	// Hidden from ready presses until its staff messages exist.
	if err := d.registry.Reserve(t); err != nil {
		return Ticket{}, err
	}

	primary, duplicate := d.destinations(z)
	view := pendingView(t)

	ref, err := d.messenger.Send(ctx, primary, view)
	if err != nil {
		d.registry.Remove(t.ID)
		return Ticket{}, fmt.Errorf("cannot send ticket %s: %w", t.ID, err)
	}
	refs := []chat.MessageRef{ref}

	if duplicate != nil {
		dupRef, err := d.messenger.Send(ctx, *duplicate, view)
		if err != nil {
			d.logger.Error("cannot duplicate ticket to fallback topic", "ticket_id", t.ID, "topic_id", duplicate.TopicID, "error", err)
		} else {
			refs = append(refs, dupRef)
		}
	}
	t.Refs = refs

	// The created record must precede any ready update.
	if d.repo != nil {
		archived := t.clone()
		if err := d.repo.Create(ctx, &archived); err != nil {
			d.logger.Error("cannot archive ticket", "ticket_id", t.ID, "error", err)
		}
	}
	d.publishCreated(ctx, t)

	if err := d.registry.Activate(t.ID, refs); err != nil {
		d.logger.Error("cannot activate ticket", "ticket_id", t.ID, "error", err)
	}

	d.logger.Info("ticket created", "ticket_id", t.ID, "zone", z.Zone, "resolved", z.Resolved, "table", table)
	return t, nil
}

// destinations picks the primary send target and an optional duplicate.
func (d *Dispatcher) destinations(z zone.Result) (chat.Destination, *chat.Destination) {
	fallback := d.cfg.FallbackTopicID

	if !z.Resolved || z.TopicID == 0 {
		return chat.Destination{ChatID: d.cfg.ChatID, TopicID: fallback}, nil
	}

	primary := chat.Destination{ChatID: d.cfg.ChatID, TopicID: z.TopicID}
	if fallback != 0 && fallback != z.TopicID {
		return primary, &chat.Destination{ChatID: d.cfg.ChatID, TopicID: fallback}
	}
	return primary, nil
}

// MarkReady closes the ticket once. Later calls return the stored elapsed
// time and touch nothing.
func (d *Dispatcher) MarkReady(ctx context.Context, id ID) (time.Duration, error) {
	t, first, err := d.registry.MarkReady(id, d.now())
	if err != nil {
		return 0, err
	}
	if !first {
		return t.Elapsed, nil
	}

	elapsed := FormatElapsed(t.Elapsed)
	view := readyView(t)
	for _, ref := range t.Refs {
		if err := d.messenger.Edit(ctx, ref, view); err != nil {
			d.logger.Error("cannot update ticket message", "ticket_id", id, "message_id", ref.MessageID, "error", err)
		}
	}

	if err := d.messenger.Notify(ctx, t.UserID, readyNotice+elapsed); err != nil {
		d.logger.Error("cannot notify user about ready order", "ticket_id", id, "user_id", t.UserID, "error", err)
	}

	d.logger.Info("ticket ready", "ticket_id", id, "elapsed", elapsed)

	if d.repo != nil {
		archived := t.clone()
		if err := d.repo.Update(ctx, &archived); err != nil {
			d.logger.Error("cannot archive ready ticket", "ticket_id", id, "error", err)
		}
	}
	d.publishReady(ctx, t)

	return t.Elapsed, nil
}

func (d *Dispatcher) publishCreated(ctx context.Context, t Ticket) {
	if d.publisher == nil {
		return
	}
	evt := event.OrderTicketCreatedEvent{
		OrderTicketEventMetadata: d.metadata(event.EventOrderTicketCreated, t),
		Username:                 t.Username,
		TopicID:                  t.TopicID,
		Summary:                  t.Summary,
		CreatedAt:                t.CreatedAt,
	}
	for _, ref := range t.Refs {
		evt.Messages = append(evt.Messages, event.MessageRef{ChatID: ref.ChatID, MessageID: ref.MessageID})
	}
	d.publish(ctx, evt, t.ID)
}

func (d *Dispatcher) publishReady(ctx context.Context, t Ticket) {
	if d.publisher == nil || t.ReadyAt == nil {
		return
	}
	evt := event.OrderTicketReadyEvent{
		OrderTicketEventMetadata: d.metadata(event.EventOrderTicketReady, t),
		CreatedAt:                t.CreatedAt,
		ReadyAt:                  *t.ReadyAt,
		ElapsedSeconds:           int64(t.Elapsed / time.Second),
	}
	d.publish(ctx, evt, t.ID)
}

func (d *Dispatcher) metadata(eventType string, t Ticket) event.OrderTicketEventMetadata {
	return event.OrderTicketEventMetadata{
		EventType:  eventType,
		OccurredAt: d.now().UTC(),
		TicketID:   string(t.ID),
		UserID:     t.UserID,
		Table:      t.Table,
		Zone:       t.Zone,
	}
}

func (d *Dispatcher) publish(ctx context.Context, evt any, id ID) {
	data, err := event.Encode(evt)
	if err != nil {
		d.logger.Error("cannot encode ticket event", "ticket_id", id, "error", err)
		return
	}
	if err := d.publisher.Publish(ctx, event.OrderTicketsTopic, data); err != nil {
		d.logger.Error("cannot publish ticket event", "ticket_id", id, "error", err)
	}
}
