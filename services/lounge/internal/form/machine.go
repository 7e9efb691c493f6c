package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
	"github.com/appetiteclub/lounge/services/lounge/internal/order"
	"github.com/appetiteclub/lounge/services/lounge/internal/template"
	"github.com/appetiteclub/lounge/services/lounge/internal/ticket"
	"github.com/appetiteclub/lounge/services/lounge/internal/zone"
)

// Tickets creates and closes order tickets.
type Tickets interface {
	Create(ctx context.Context, req ticket.Request) (ticket.Ticket, error)
	MarkReady(ctx context.Context, id ticket.ID) (time.Duration, error)
}

// StopList reports unavailable items mentioned in free text.
type StopList interface {
	IsBlocked(text string) (string, bool)
}

type Deps struct {
	Store     *SessionStore
	Messenger chat.Messenger
	Resolver  *zone.Resolver
	Tickets   Tickets
	Templates template.Repository
	StopList  StopList
}

// outcome is what a transition wants shown on the anchor.
type outcome struct {
	view   chat.View
	fresh  bool
	answer string
}

// Machine drives the order form. Handle must not be called concurrently
// for the same user; the Inbox guarantees that.
type Machine struct {
	store     *SessionStore
	messenger chat.Messenger
	resolver  *zone.Resolver
	tickets   Tickets
	templates template.Repository
	stoplist  StopList
	binder    *Binder
	logger    apt.Logger
	now       func() time.Time

	transitions map[transitionKey]transitionFunc
}

func NewMachine(deps Deps, logger apt.Logger) *Machine {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if deps.Store == nil {
		deps.Store = NewSessionStore()
	}
	if deps.Resolver == nil {
		deps.Resolver = zone.NewResolver(nil)
	}
	return &Machine{
		store:       deps.Store,
		messenger:   deps.Messenger,
		resolver:    deps.Resolver,
		tickets:     deps.Tickets,
		templates:   deps.Templates,
		stoplist:    deps.StopList,
		binder:      NewBinder(deps.Templates),
		logger:      logger,
		now:         time.Now,
		transitions: newTransitions(),
	}
}

// SetClock replaces the time source.
func (m *Machine) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Machine) Session(userID int64) *Session {
	return m.store.Get(userID)
}

// Handle applies one inbound event. Outbound failures are logged and never
// undo a transition that already happened.
func (m *Machine) Handle(ctx context.Context, ev chat.Event) error {
	act := ParseAction(ev)

	if act.Kind == ActMarkReady {
		m.handleReady(ctx, ev, act)
		return nil
	}

	s := m.store.Get(ev.UserID)
	if ev.ChatID != 0 {
		s.ChatID = ev.ChatID
	}
	if ev.Username != "" {
		s.Username = ev.Username
	}
	if ev.Kind == chat.EventButton && !ev.Message.IsZero() {
		s.Anchor = ev.Message
	}
	if ev.Kind != chat.EventButton && !ev.Message.IsZero() {
		m.deleteUserMessage(ctx, ev.Message)
	}

	from := s.State
	var out outcome
	if fn := m.lookup(s.State, act.Kind); fn != nil {
		out = fn(m, ctx, s, act)
	} else {
		out = m.current(ctx, s, textUseButtons)
	}

	m.logger.Debug("form transition", "user_id", s.UserID, "from", from.String(), "to", s.State.String(), "action", int(act.Kind))

	m.render(ctx, s, out)
	if ev.CallbackID != "" {
		if err := m.messenger.Answer(ctx, ev.CallbackID, out.answer); err != nil {
			m.logger.Debug("cannot answer callback", "error", err)
		}
	}
	return nil
}

func (m *Machine) lookup(state State, kind ActionKind) transitionFunc {
	if fn, ok := m.transitions[transitionKey{state: state, kind: kind}]; ok {
		return fn
	}
	return m.transitions[transitionKey{state: anyState, kind: kind}]
}

func (m *Machine) render(ctx context.Context, s *Session, out outcome) {
	if out.view.IsZero() {
		return
	}

	if out.fresh || s.Anchor.IsZero() {
		ref, err := m.messenger.Send(ctx, chat.Destination{ChatID: s.ChatID}, out.view)
		if err != nil {
			m.logger.Error("cannot send form message", "user_id", s.UserID, "error", err)
			return
		}
		s.Anchor = ref
		return
	}

	if err := m.messenger.Edit(ctx, s.Anchor, out.view); err != nil {
		m.logger.Debug("cannot update form message", "user_id", s.UserID, "message_id", s.Anchor.MessageID, "error", err)
	}
}

func (m *Machine) deleteUserMessage(ctx context.Context, ref chat.MessageRef) {
	if err := m.messenger.Delete(ctx, ref); err != nil {
		m.logger.Debug("cannot delete user message", "message_id", ref.MessageID, "error", err)
	}
}

func (m *Machine) handleReady(ctx context.Context, ev chat.Event, act Action) {
	var answer string
	elapsed, err := m.tickets.MarkReady(ctx, act.TicketID)
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		answer = "Заказ не найден"
	case err != nil:
		m.logger.Error("cannot mark ticket ready", "ticket_id", act.TicketID, "error", err)
		answer = "Не удалось отметить заказ"
	default:
		answer = "⏱ " + ticket.FormatElapsed(elapsed)
	}

	if ev.CallbackID == "" {
		return
	}
	if err := m.messenger.Answer(ctx, ev.CallbackID, answer); err != nil {
		m.logger.Debug("cannot answer callback", "error", err)
	}
}

// current re-renders the view for the session's state.
func (m *Machine) current(ctx context.Context, s *Session, notice string) outcome {
	switch {
	case s.State == StateConfirm:
		return outcome{view: confirmView(s, notice)}
	case s.State == StateSaveTemplateLabel:
		return outcome{view: saveLabelView(notice)}
	case s.State == StateTemplateMenu:
		return m.templateMenu(ctx, s, notice)
	case s.State.IsQuestion():
		return outcome{view: questionView(s, notice)}
	}
	return outcome{view: idleView(s, notice)}
}

func (m *Machine) start(ctx context.Context, s *Session, _ Action) outcome {
	s.Reset()
	return outcome{view: idleView(s, ""), fresh: true}
}

func (m *Machine) cancel(ctx context.Context, s *Session, _ Action) outcome {
	s.Reset()
	return outcome{view: idleView(s, "")}
}

func (m *Machine) startOrder(ctx context.Context, s *Session, _ Action) outcome {
	s.Reset()
	s.State = StateTable
	return outcome{view: questionView(s, "")}
}

func (m *Machine) openTemplateMenu(ctx context.Context, s *Session, _ Action) outcome {
	s.State = StateTemplateMenu
	return m.templateMenu(ctx, s, "")
}

func (m *Machine) templateMenu(ctx context.Context, s *Session, notice string) outcome {
	if m.templates == nil {
		s.State = StateIdle
		return outcome{view: idleView(s, textTemplatesDown)}
	}
	templates, err := m.templates.List(ctx)
	if err != nil {
		m.logger.Error("cannot list templates", "error", err)
		s.State = StateIdle
		return outcome{view: idleView(s, textTemplatesDown)}
	}
	return outcome{view: templateMenuView(templates, notice)}
}

func (m *Machine) applyTemplate(ctx context.Context, s *Session, act Action) outcome {
	tpl, err := m.binder.Apply(ctx, act.TemplateID, s)
	if err != nil {
		if !errors.Is(err, template.ErrNotFound) {
			m.logger.Error("cannot load template", "template_id", act.TemplateID, "error", err)
		}
		s.Reset()
		return outcome{view: idleView(s, textTemplateLost), answer: textTemplateLost}
	}

	if s.Values.Known(order.FieldTable) {
		return m.submit(ctx, s, act)
	}

	s.State = StateTable
	s.QuickSubmit = true
	return outcome{view: questionView(s, fmt.Sprintf("Быстрый заказ «%s»", tpl.Label))}
}

func (m *Machine) answer(ctx context.Context, s *Session, act Action) outcome {
	field, _ := s.State.Field()
	if act.Kind == ActChoice && act.Field != field {
		return m.current(ctx, s, "")
	}

	value := strings.TrimSpace(act.Value)
	switch field {
	case order.FieldTable:
		if value == "" {
			return m.current(ctx, s, textTableEmpty)
		}
	case order.FieldAroma:
		if m.stoplist != nil {
			if item, blocked := m.stoplist.IsBlocked(value); blocked {
				return m.current(ctx, s, fmt.Sprintf("⛔ «%s» сейчас нет в наличии. Выберите другую ароматику.", item))
			}
		}
	}
	return m.advance(ctx, s, field, value)
}

func (m *Machine) skip(ctx context.Context, s *Session, _ Action) outcome {
	field, _ := s.State.Field()
	return m.advance(ctx, s, field, "")
}

func (m *Machine) advance(ctx context.Context, s *Session, field order.Field, value string) outcome {
	s.Values.Set(field, value)
	if field == order.FieldTable {
		z := m.resolver.Resolve(value)
		s.Zone = &z
	}

	if s.EditTarget != "" {
		s.EditTarget = ""
		s.State = StateConfirm
		return outcome{view: confirmView(s, "")}
	}
	if s.QuickSubmit && field == order.FieldTable {
		return m.submit(ctx, s, Action{})
	}

	s.State = next(field)
	return m.current(ctx, s, "")
}

func (m *Machine) bowlManual(ctx context.Context, s *Session, _ Action) outcome {
	s.State = StateBowlManual
	return outcome{view: questionView(s, "")}
}

func (m *Machine) edit(ctx context.Context, s *Session, act Action) outcome {
	st, ok := fieldStates[act.Field]
	if !ok {
		return m.current(ctx, s, "")
	}
	s.EditTarget = act.Field
	s.State = st
	return outcome{view: questionView(s, "")}
}

func (m *Machine) submit(ctx context.Context, s *Session, _ Action) outcome {
	req := ticket.Request{
		UserID:   s.UserID,
		ChatID:   s.ChatID,
		Username: s.Username,
		Values:   s.Values.Clone(),
		Zone:     s.Zone,
	}
	t, err := m.tickets.Create(ctx, req)
	if err != nil {
		m.logger.Error("cannot create ticket", "user_id", s.UserID, "error", err)
		return m.current(ctx, s, textOrderFailed)
	}

	m.logger.Info("order submitted", "user_id", s.UserID, "ticket_id", t.ID, "from_template", s.SeededFromTemplate)

	s.LastOrder = s.Values.Clone()
	s.Reset()
	return outcome{view: idleView(s, textOrderSent), answer: textOrderSent}
}

func (m *Machine) saveTemplate(ctx context.Context, s *Session, _ Action) outcome {
	if m.templates == nil {
		return m.current(ctx, s, textTemplatesDown)
	}

	switch s.State {
	case StateConfirm:
		s.Pending = s.Values.Clone()
	default:
		if s.LastOrder == nil {
			return m.current(ctx, s, textNothingToSave)
		}
		s.Pending = s.LastOrder.Clone()
	}

	s.State = StateSaveTemplateLabel
	return outcome{view: saveLabelView("")}
}

func (m *Machine) saveLabel(ctx context.Context, s *Session, act Action) outcome {
	tpl, err := template.New(act.Value, s.Pending, m.now())
	if err != nil {
		return m.current(ctx, s, textLabelEmpty)
	}

	if err := m.templates.Create(ctx, &tpl); err != nil {
		m.logger.Error("cannot save template", "label", tpl.Label, "error", err)
		s.Reset()
		return outcome{view: idleView(s, textTemplateFailed)}
	}

	m.logger.Info("template saved", "template_id", tpl.ID.String(), "label", tpl.Label)
	s.Reset()
	return outcome{view: idleView(s, fmt.Sprintf("Шаблон '%s' сохранён!", tpl.Label))}
}
