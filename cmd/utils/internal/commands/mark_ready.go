package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/lounge/pkg"
	"github.com/appetiteclub/lounge/pkg/event"
)

// MarkReady asks a running bot to close a ticket, the same as pressing its
// ready button.
func MarkReady(ctx context.Context, config *apt.Config, logger apt.Logger, ticketID string) error {
	data, err := ReadyRequest(ticketID)
	if err != nil {
		return err
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")
	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer publisher.Close()

	if err := publisher.Publish(ctx, event.ReadyRequestsTopic, data); err != nil {
		return fmt.Errorf("publish ready request: %w", err)
	}
	logger.Debug("ready request sent", "topic", event.ReadyRequestsTopic, "ticket_id", ticketID)
	return nil
}

// ReadyRequest encodes a ready request issued from this tool.
func ReadyRequest(ticketID string) ([]byte, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, fmt.Errorf("ticket id is required")
	}
	return event.Encode(event.ReadyRequest{TicketID: ticketID, Source: "lounge-utils"})
}
