package seeding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// TemplateDoc mirrors the bot's template document.
type TemplateDoc struct {
	ID        uuid.UUID `bson:"_id"`
	Label     string    `bson:"label"`
	Strength  string    `bson:"strength,omitempty"`
	Aroma     string    `bson:"aroma,omitempty"`
	Stops     string    `bson:"stops,omitempty"`
	Bowl      string    `bson:"bowl,omitempty"`
	Draft     string    `bson:"draft,omitempty"`
	Tea       string    `bson:"tea,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// HouseTemplates are the quick orders offered on a fresh install.
func HouseTemplates() []TemplateDoc {
	return []TemplateDoc{
		{Label: "Мятный классик", Strength: "Средний", Aroma: "Мята", Bowl: "Фольга", Draft: "Union"},
		{Label: "Ягодный лёгкий", Strength: "Легкий", Aroma: "Малина, черника", Bowl: "Фанел", Draft: "Yapona"},
		{Label: "Грейпфрут крепкий", Strength: "Крепкий", Aroma: "Грейпфрут", Bowl: "Грейпфрут", Draft: "Wookah", Stops: "без холодка"},
	}
}

func SeedTemplates(ctx context.Context, db *mongo.Database) (int, error) {
	now := time.Now().UTC()
	templates := HouseTemplates()

	docs := make([]interface{}, 0, len(templates))
	for _, t := range templates {
		t.ID = uuid.New()
		t.CreatedAt = now
		docs = append(docs, t)
	}

	if _, err := db.Collection("templates").InsertMany(ctx, docs); err != nil {
		return 0, fmt.Errorf("cannot insert templates: %w", err)
	}
	return len(docs), nil
}
