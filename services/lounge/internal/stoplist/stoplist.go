package stoplist

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/appetiteclub/apt"
	"golang.org/x/text/cases"
)

var ErrEmptyItem = errors.New("stop list item is empty")

// Repository persists blocked items.
type Repository interface {
	Add(ctx context.Context, item string) error
	Remove(ctx context.Context, item string) error
	Items(ctx context.Context) ([]string, error)
}

// List answers IsBlocked from an in-memory snapshot and writes changes
// through to the repository when one is configured.
type List struct {
	mu    sync.RWMutex
	items map[string]struct{}

	repo   Repository
	logger apt.Logger
}

func New(repo Repository, logger apt.Logger) *List {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &List{
		items:  make(map[string]struct{}),
		repo:   repo,
		logger: logger,
	}
}

// normalize case-folds so "Мята", "МЯТА" and "мята" compare equal.
// A Caser is stateful, so each call builds its own.
func normalize(item string) string {
	return cases.Fold().String(strings.TrimSpace(item))
}

// Warm loads the snapshot from the repository.
func (l *List) Warm(ctx context.Context) error {
	if l.repo == nil {
		return nil
	}
	items, err := l.repo.Items(ctx)
	if err != nil {
		return err
	}

	snapshot := make(map[string]struct{}, len(items))
	for _, item := range items {
		if n := normalize(item); n != "" {
			snapshot[n] = struct{}{}
		}
	}

	l.mu.Lock()
	l.items = snapshot
	l.mu.Unlock()

	l.logger.Info("stop list loaded", "items", len(snapshot))
	return nil
}

func (l *List) Start(ctx context.Context) error {
	if err := l.Warm(ctx); err != nil {
		l.logger.Error("cannot load stop list, starting empty", "error", err)
	}
	return nil
}

func (l *List) Stop(ctx context.Context) error {
	return nil
}

func (l *List) Add(ctx context.Context, item string) error {
	n := normalize(item)
	if n == "" {
		return ErrEmptyItem
	}
	if l.repo != nil {
		if err := l.repo.Add(ctx, n); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.items[n] = struct{}{}
	l.mu.Unlock()
	return nil
}

func (l *List) Remove(ctx context.Context, item string) error {
	n := normalize(item)
	if n == "" {
		return ErrEmptyItem
	}
	if l.repo != nil {
		if err := l.repo.Remove(ctx, n); err != nil {
			return err
		}
	}

	l.mu.Lock()
	delete(l.items, n)
	l.mu.Unlock()
	return nil
}

// Items returns the blocked items sorted.
func (l *List) Items() []string {
	l.mu.RLock()
	out := make([]string, 0, len(l.items))
	for item := range l.items {
		out = append(out, item)
	}
	l.mu.RUnlock()

	sort.Strings(out)
	return out
}

// IsBlocked reports whether any blocked item occurs in text, ignoring case.
// It returns the first matching item in sorted order.
func (l *List) IsBlocked(text string) (string, bool) {
	haystack := normalize(text)
	if haystack == "" {
		return "", false
	}
	for _, item := range l.Items() {
		if strings.Contains(haystack, item) {
			return item, true
		}
	}
	return "", false
}
