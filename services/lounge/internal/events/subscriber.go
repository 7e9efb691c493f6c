package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/lounge/pkg/event"
	"github.com/appetiteclub/lounge/services/lounge/internal/ticket"
)

// ReadyMarker closes tickets. Satisfied by *ticket.Dispatcher.
type ReadyMarker interface {
	MarkReady(ctx context.Context, id ticket.ID) (time.Duration, error)
}

// ReadySubscriber lets other systems close tickets by publishing a
// ReadyRequest, with the same idempotent outcome as the chat button.
type ReadySubscriber struct {
	subscriber events.Subscriber
	marker     ReadyMarker
	logger     apt.Logger
}

func NewReadySubscriber(subscriber events.Subscriber, marker ReadyMarker, logger apt.Logger) *ReadySubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &ReadySubscriber{
		subscriber: subscriber,
		marker:     marker,
		logger:     logger,
	}
}

func (s *ReadySubscriber) Start(ctx context.Context) error {
	s.logger.Infof("Starting ReadySubscriber for topic: %s", event.ReadyRequestsTopic)

	if err := s.subscriber.Subscribe(ctx, event.ReadyRequestsTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.ReadyRequestsTopic, err)
	}

	s.logger.Info("ReadySubscriber started successfully")
	return nil
}

func (s *ReadySubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *ReadySubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var req event.ReadyRequest
	if err := event.Decode(msg, &req); err != nil {
		s.logger.Errorf("Failed to unmarshal ready request: %v", err)
		return nil
	}
	if req.TicketID == "" {
		s.logger.Info("Ready request without ticket_id ignored")
		return nil
	}

	elapsed, err := s.marker.MarkReady(ctx, ticket.ID(req.TicketID))
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			s.logger.Infof("Ready request for unknown ticket %s", req.TicketID)
			return nil
		}
		s.logger.Errorf("Failed to mark ticket %s ready: %v", req.TicketID, err)
		return err
	}

	s.logger.Debug("ticket marked ready", "ticket_id", req.TicketID, "source", req.Source, "elapsed", ticket.FormatElapsed(elapsed))
	return nil
}
