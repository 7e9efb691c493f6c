package form

import (
	"context"
	"strings"

	"github.com/appetiteclub/lounge/services/lounge/internal/order"
	"github.com/appetiteclub/lounge/services/lounge/internal/template"
)

// Binder seeds a session from a saved template.
type Binder struct {
	repo template.Repository
}

func NewBinder(repo template.Repository) *Binder {
	return &Binder{repo: repo}
}

// Apply resets s and copies the template fields into it. A non-empty table
// already in the session, and its cached zone, are kept. Unknown or
// malformed ids yield template.ErrNotFound and leave s untouched.
func (b *Binder) Apply(ctx context.Context, rawID string, s *Session) (*template.Template, error) {
	if b.repo == nil {
		return nil, template.ErrNotFound
	}
	id, err := template.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	tpl, err := b.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, template.ErrNotFound
	}

	table, hasTable := s.Values.Get(order.FieldTable)
	keepTable := hasTable && strings.TrimSpace(table) != ""
	cachedZone := s.Zone

	s.Reset()
	if keepTable {
		s.Values.Set(order.FieldTable, table)
		s.Zone = cachedZone
	}
	for f, v := range tpl.Values() {
		if f == order.FieldTable {
			continue
		}
		s.Values.Set(f, v)
	}
	s.SeededFromTemplate = true
	return tpl, nil
}
