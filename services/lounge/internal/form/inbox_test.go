package form

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
)

type recordingHandler struct {
	mu       sync.Mutex
	seen     map[int64][]string
	inFlight map[int64]*int32
	overlap  atomic.Bool
	total    sync.WaitGroup
}

func newRecordingHandler(expected int) *recordingHandler {
	h := &recordingHandler{
		seen:     map[int64][]string{},
		inFlight: map[int64]*int32{},
	}
	h.total.Add(expected)
	return h
}

func (h *recordingHandler) counter(userID int64) *int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.inFlight[userID]
	if !ok {
		c = new(int32)
		h.inFlight[userID] = c
	}
	return c
}

func (h *recordingHandler) Handle(ctx context.Context, ev chat.Event) error {
	defer h.total.Done()

	c := h.counter(ev.UserID)
	if atomic.AddInt32(c, 1) > 1 {
		h.overlap.Store(true)
	}
	time.Sleep(100 * time.Microsecond)
	atomic.AddInt32(c, -1)

	h.mu.Lock()
	h.seen[ev.UserID] = append(h.seen[ev.UserID], ev.Text)
	h.mu.Unlock()
	return nil
}

func TestInboxPerUserOrder(t *testing.T) {
	const (
		users  = 5
		perUsr = 40
	)
	h := newRecordingHandler(users * perUsr)
	in := NewInbox(h, 3, 4, nil)
	if err := in.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer in.Stop(context.Background())

	var wg sync.WaitGroup
	for u := int64(1); u <= users; u++ {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			for i := 0; i < perUsr; i++ {
				ev := chat.Event{Kind: chat.EventText, UserID: u, Text: string(rune('A' + i))}
				if err := in.Submit(context.Background(), ev); err != nil {
					t.Errorf("Submit() error = %v", err)
				}
			}
		}(u)
	}
	wg.Wait()
	h.total.Wait()

	if h.overlap.Load() {
		t.Error("events of one user were handled concurrently")
	}
	for u := int64(1); u <= users; u++ {
		got := h.seen[u]
		if len(got) != perUsr {
			t.Fatalf("user %d handled %d events, want %d", u, len(got), perUsr)
		}
		for i, text := range got {
			if text != string(rune('A'+i)) {
				t.Fatalf("user %d event %d = %q, out of order", u, i, text)
			}
		}
	}
}

func TestInboxSubmitAfterStop(t *testing.T) {
	in := NewInbox(newRecordingHandler(0), 1, 1, nil)
	_ = in.Start(context.Background())
	if err := in.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	err := in.Submit(context.Background(), chat.Event{UserID: 1})
	if !errors.Is(err, ErrInboxClosed) {
		t.Errorf("Submit() error = %v, want ErrInboxClosed", err)
	}
}

func TestInboxSubmitRespectsContext(t *testing.T) {
	// Not started: the single slot fills and the second submit must give up.
	in := NewInbox(newRecordingHandler(0), 1, 1, nil)
	_ = in.Submit(context.Background(), chat.Event{UserID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := in.Submit(ctx, chat.Event{UserID: 1}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit() error = %v, want deadline exceeded", err)
	}
}

func TestShardFor(t *testing.T) {
	tests := []struct {
		name   string
		userID int64
		n      int
		want   int
	}{
		{name: "positive", userID: 7, n: 4, want: 3},
		{name: "negative", userID: -7, n: 4, want: 3},
		{name: "single", userID: 99, n: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shardFor(tt.userID, tt.n); got != tt.want {
				t.Errorf("shardFor(%d, %d) = %d, want %d", tt.userID, tt.n, got, tt.want)
			}
		})
	}
}
