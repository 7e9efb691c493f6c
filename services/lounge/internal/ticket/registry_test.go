package ticket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/lounge/pkg/event"
	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
)

func TestRegistryRegisterDuplicate(t *testing.T) {
	r := NewRegistry(nil, nil, nil)

	if err := r.Register(Ticket{ID: "1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	err := r.Register(Ticket{ID: "1", Table: "other"})
	if !errors.Is(err, ErrDuplicateTicket) {
		t.Fatalf("Register() duplicate error = %v, want ErrDuplicateTicket", err)
	}

	got, _ := r.Get("1")
	if got.Table != "" {
		t.Errorf("duplicate overwrote ticket: %+v", got)
	}
}

func TestRegistryMarkReady(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		id        ID
		wantErr   error
		wantFirst bool
	}{
		{name: "unknown", id: "nope", wantErr: ErrNotFound},
		{name: "first", id: "1", wantFirst: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(nil, nil, nil)
			_ = r.Register(Ticket{ID: "1", CreatedAt: t0})

			got, first, err := r.MarkReady(tt.id, t0.Add(65*time.Second))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("MarkReady() error = %v, want %v", err, tt.wantErr)
			}
			if first != tt.wantFirst {
				t.Errorf("first = %v, want %v", first, tt.wantFirst)
			}
			if tt.wantErr == nil && got.Elapsed != 65*time.Second {
				t.Errorf("elapsed = %v", got.Elapsed)
			}
		})
	}
}

func TestRegistryMarkReadyKeepsFirstStamp(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	r := NewRegistry(nil, nil, nil)
	_ = r.Register(Ticket{ID: "1", CreatedAt: t0})

	_, _, _ = r.MarkReady("1", t0.Add(65*time.Second))
	got, first, err := r.MarkReady("1", t0.Add(200*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if first {
		t.Error("second MarkReady reported first")
	}
	if got.Elapsed != 65*time.Second || !got.ReadyAt.Equal(t0.Add(65*time.Second)) {
		t.Errorf("second MarkReady changed ticket: %+v", got)
	}
}

func TestRegistryConcurrentMarkReady(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	_ = r.Register(Ticket{ID: "1", CreatedAt: time.Now()})

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		firsts int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, first, _ := r.MarkReady("1", time.Now())
			if first {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firsts != 1 {
		t.Errorf("first reported %d times, want 1", firsts)
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	_ = r.Reserve(Ticket{ID: "1"})
	_ = r.Activate("1", nil)

	got, _ := r.Get("1")
	got.Table = "mutated"

	again, _ := r.Get("1")
	if again.Table != "" {
		t.Error("Get() leaked internal pointer")
	}
}

func TestRegistryList(t *testing.T) {
	t0 := time.Now()
	r := NewRegistry(nil, nil, nil)
	_ = r.Register(Ticket{ID: "2", CreatedAt: t0.Add(time.Second)})
	_ = r.Register(Ticket{ID: "1", CreatedAt: t0})
	_, _, _ = r.MarkReady("2", t0.Add(time.Minute))

	all := r.List(false)
	if len(all) != 2 || all[0].ID != "1" {
		t.Errorf("List(false) = %+v", all)
	}
	pending := r.List(true)
	if len(pending) != 1 || pending[0].ID != "1" {
		t.Errorf("List(true) = %+v", pending)
	}
}

func TestRegistryWarmFromStream(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	created, _ := event.Encode(event.OrderTicketCreatedEvent{
		OrderTicketEventMetadata: event.OrderTicketEventMetadata{
			EventType: event.EventOrderTicketCreated,
			TicketID:  "10",
			UserID:    7,
			Table:     "5",
		},
		Summary:   "summary",
		Messages:  []event.MessageRef{{ChatID: -100, MessageID: 3}},
		CreatedAt: t0,
	})
	ready, _ := event.Encode(event.OrderTicketReadyEvent{
		OrderTicketEventMetadata: event.OrderTicketEventMetadata{
			EventType: event.EventOrderTicketReady,
			TicketID:  "10",
		},
		CreatedAt:      t0,
		ReadyAt:        t0.Add(65 * time.Second),
		ElapsedSeconds: 65,
	})

	stream := &MockStreamConsumer{
		FetchFunc: func(ctx context.Context, limit int) ([]events.StreamMessage, error) {
			return []events.StreamMessage{{Data: created}, {Data: []byte("garbage")}, {Data: ready}}, nil
		},
	}
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter Filter) ([]Ticket, error) {
			return []Ticket{{ID: "10", CreatedAt: t0, Table: "archived"}}, nil
		},
	}

	r := NewRegistry(stream, repo, nil)
	if err := r.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}

	got, err := r.Get("10")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Ready() || got.Elapsed != 65*time.Second || len(got.Refs) != 1 {
		t.Errorf("warmed ticket = %+v", got)
	}
	if got.Table != "5" {
		t.Errorf("archive overrode stream state: table = %q", got.Table)
	}
}

func TestRegistryWarmFallsBackToArchive(t *testing.T) {
	stream := &MockStreamConsumer{
		FetchFunc: func(ctx context.Context, limit int) ([]events.StreamMessage, error) {
			return nil, errors.New("stream down")
		},
	}
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter Filter) ([]Ticket, error) {
			return []Ticket{{ID: "1"}, {ID: "2"}}, nil
		},
	}

	r := NewRegistry(stream, repo, nil)
	if err := r.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
}

func TestRegistryWarmWithoutSources(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	if err := r.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d", r.Count())
	}
}

func TestRegistryWarmMergesArchiveBeyondStream(t *testing.T) {
	now := time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)
	stream := &MockStreamConsumer{
		FetchFunc: func(ctx context.Context, limit int) ([]events.StreamMessage, error) {
			return nil, nil
		},
	}
	var filters []Filter
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter Filter) ([]Ticket, error) {
			filters = append(filters, filter)
			if filter.PendingOnly {
				return []Ticket{{ID: "42", UserID: 7, CreatedAt: now.Add(-25 * time.Hour)}}, nil
			}
			return nil, nil
		},
	}

	r := NewRegistry(stream, repo, nil)
	r.SetClock(func() time.Time { return now })
	if err := r.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}

	got, first, err := r.MarkReady("42", now)
	if err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}
	if !first || got.Elapsed != 25*time.Hour {
		t.Errorf("MarkReady() = %+v, first %v", got, first)
	}
	if len(filters) == 0 || !filters[0].PendingOnly {
		t.Errorf("archive filters = %+v, want pending tickets first", filters)
	}
}

func TestRegistryReservedTicketHidden(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	r := NewRegistry(nil, nil, nil)

	if err := r.Reserve(Ticket{ID: "1", CreatedAt: t0}); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if err := r.Register(Ticket{ID: "1"}); !errors.Is(err, ErrDuplicateTicket) {
		t.Errorf("Register() over reserved id error = %v, want ErrDuplicateTicket", err)
	}
	if _, _, err := r.MarkReady("1", t0); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkReady() on reserved ticket error = %v, want ErrNotFound", err)
	}
	if _, err := r.Get("1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on reserved ticket error = %v, want ErrNotFound", err)
	}
	if len(r.List(false)) != 0 {
		t.Error("List() shows reserved ticket")
	}

	refs := []chat.MessageRef{{ChatID: -1, MessageID: 9}}
	if err := r.Activate("1", refs); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	got, first, err := r.MarkReady("1", t0.Add(time.Minute))
	if err != nil || !first || len(got.Refs) != 1 {
		t.Errorf("MarkReady() after Activate = %+v, %v, %v", got, first, err)
	}
}

func TestRegistryPrune(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	r := NewRegistry(nil, nil, nil)
	r.SetRetention(time.Hour)

	_ = r.Register(Ticket{ID: "old", CreatedAt: t0})
	_ = r.Register(Ticket{ID: "fresh", CreatedAt: t0})
	_ = r.Register(Ticket{ID: "pending", CreatedAt: t0.Add(-48 * time.Hour)})
	_, _, _ = r.MarkReady("old", t0)
	_, _, _ = r.MarkReady("fresh", t0.Add(90*time.Minute))

	if n := r.Prune(t0.Add(2 * time.Hour)); n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if _, err := r.Get("old"); !errors.Is(err, ErrNotFound) {
		t.Error("expired ready ticket kept")
	}
	for _, id := range []ID{"fresh", "pending"} {
		if _, err := r.Get(id); err != nil {
			t.Errorf("Get(%s) error = %v", id, err)
		}
	}
}

func TestRegistryStartStop(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
