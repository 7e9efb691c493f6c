package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/lounge/services/lounge/internal/template"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TemplateRepo struct {
	store *Store
}

func NewTemplateRepo(store *Store) *TemplateRepo {
	return &TemplateRepo{store: store}
}

func (r *TemplateRepo) Create(ctx context.Context, t *template.Template) error {
	coll, err := r.store.collection(templatesCollection)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("cannot insert template: %w", err)
	}
	return nil
}

func (r *TemplateRepo) Get(ctx context.Context, id uuid.UUID) (*template.Template, error) {
	coll, err := r.store.collection(templatesCollection)
	if err != nil {
		return nil, err
	}

	var t template.Template
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, template.ErrNotFound
		}
		return nil, fmt.Errorf("cannot find template: %w", err)
	}
	return &t, nil
}

func (r *TemplateRepo) List(ctx context.Context) ([]template.Template, error) {
	coll, err := r.store.collection(templatesCollection)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "label", Value: 1}})
	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []template.Template
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("cannot decode templates: %w", err)
	}
	return templates, nil
}

func (r *TemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	coll, err := r.store.collection(templatesCollection)
	if err != nil {
		return err
	}

	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete template: %w", err)
	}
	if result.DeletedCount == 0 {
		return template.ErrNotFound
	}
	return nil
}
