package template

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/appetiteclub/lounge/services/lounge/internal/order"
	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("template not found")
	ErrLabelMissing = errors.New("template label is required")
)

// Template is a saved order used for quick repeat orders. Table is never
// part of a template.
type Template struct {
	ID       uuid.UUID `bson:"_id" json:"id"`
	Label    string    `bson:"label" json:"label"`
	Strength string    `bson:"strength,omitempty" json:"strength,omitempty"`
	Aroma    string    `bson:"aroma,omitempty" json:"aroma,omitempty"`
	Stops    string    `bson:"stops,omitempty" json:"stops,omitempty"`
	Bowl     string    `bson:"bowl,omitempty" json:"bowl,omitempty"`
	Draft    string    `bson:"draft,omitempty" json:"draft,omitempty"`
	Tea      string    `bson:"tea,omitempty" json:"tea,omitempty"`

	// Fields the user skipped, as opposed to never answered.
	Skipped   []order.Field `bson:"skipped,omitempty" json:"skipped,omitempty"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}

var templateFields = []order.Field{
	order.FieldStrength,
	order.FieldAroma,
	order.FieldStops,
	order.FieldBowl,
	order.FieldDraft,
	order.FieldTea,
}

// New builds a template from collected order values.
func New(label string, values order.Values, now time.Time) (Template, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Template{}, ErrLabelMissing
	}
	var skipped []order.Field
	for _, f := range templateFields {
		if v, ok := values[f]; ok && strings.TrimSpace(v) == "" {
			skipped = append(skipped, f)
		}
	}
	return Template{
		ID:        uuid.New(),
		Label:     label,
		Strength:  values[order.FieldStrength],
		Aroma:     values[order.FieldAroma],
		Stops:     values[order.FieldStops],
		Bowl:      values[order.FieldBowl],
		Draft:     values[order.FieldDraft],
		Tea:       values[order.FieldTea],
		Skipped:   skipped,
		CreatedAt: now,
	}, nil
}

// Values returns the template fields as order values. Skipped fields come
// back as empty values; fields never answered are left out.
func (t Template) Values() order.Values {
	out := order.Values{}
	for f, v := range map[order.Field]string{
		order.FieldStrength: t.Strength,
		order.FieldAroma:    t.Aroma,
		order.FieldStops:    t.Stops,
		order.FieldBowl:     t.Bowl,
		order.FieldDraft:    t.Draft,
		order.FieldTea:      t.Tea,
	} {
		if strings.TrimSpace(v) != "" {
			out[f] = v
		}
	}
	for _, f := range t.Skipped {
		if _, ok := out[f]; !ok && f != order.FieldTable {
			out[f] = ""
		}
	}
	return out
}

type Repository interface {
	Create(ctx context.Context, t *Template) error
	Get(ctx context.Context, id uuid.UUID) (*Template, error)
	List(ctx context.Context) ([]Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ParseID accepts a template id from a button token or URL.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}
