package mongo

import (
	"context"
	"fmt"

	"github.com/appetiteclub/lounge/services/lounge/internal/ticket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TicketRepo archives tickets so the registry can be rebuilt after a restart.
type TicketRepo struct {
	store *Store
}

func NewTicketRepo(store *Store) *TicketRepo {
	return &TicketRepo{store: store}
}

func (r *TicketRepo) Create(ctx context.Context, t *ticket.Ticket) error {
	coll, err := r.store.collection(ticketsCollection)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("cannot insert ticket: %w", err)
	}
	return nil
}

func (r *TicketRepo) Update(ctx context.Context, t *ticket.Ticket) error {
	coll, err := r.store.collection(ticketsCollection)
	if err != nil {
		return err
	}

	result, err := coll.UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": t})
	if err != nil {
		return fmt.Errorf("cannot update ticket: %w", err)
	}
	if result.MatchedCount == 0 {
		return ticket.ErrNotFound
	}
	return nil
}

func (r *TicketRepo) List(ctx context.Context, filter ticket.Filter) ([]ticket.Ticket, error) {
	coll, err := r.store.collection(ticketsCollection)
	if err != nil {
		return nil, err
	}

	query := bson.M{}
	if filter.PendingOnly {
		query["ready_at"] = bson.M{"$exists": false}
	}
	if !filter.Since.IsZero() {
		query["created_at"] = bson.M{"$gte": filter.Since}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find tickets: %w", err)
	}
	defer cursor.Close(ctx)

	var tickets []ticket.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("cannot decode tickets: %w", err)
	}
	return tickets, nil
}
