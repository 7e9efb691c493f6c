package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
)

var ErrInboxClosed = errors.New("inbox closed")

const (
	DefaultShards     = 8
	DefaultBufferSize = 64
	handleTimeout     = 30 * time.Second
)

type EventHandler interface {
	Handle(ctx context.Context, ev chat.Event) error
}

// Inbox serializes events per user. Each user hashes to one shard, and each
// shard has exactly one worker, so a user's events run in arrival order and
// never concurrently.
type Inbox struct {
	handler EventHandler
	shards  []chan chat.Event
	logger  apt.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

func NewInbox(handler EventHandler, shards, buffer int, logger apt.Logger) *Inbox {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if shards <= 0 {
		shards = DefaultShards
	}
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}

	in := &Inbox{
		handler: handler,
		shards:  make([]chan chat.Event, shards),
		logger:  logger,
		done:    make(chan struct{}),
	}
	for i := range in.shards {
		in.shards[i] = make(chan chat.Event, buffer)
	}
	return in
}

func (in *Inbox) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	in.cancel = cancel

	for i, ch := range in.shards {
		in.wg.Add(1)
		go in.work(runCtx, i, ch)
	}
	in.logger.Info("inbox started", "shards", len(in.shards))
	return nil
}

func (in *Inbox) Stop(ctx context.Context) error {
	in.stopOnce.Do(func() {
		close(in.done)
		if in.cancel != nil {
			in.cancel()
		}
	})

	finished := make(chan struct{})
	go func() {
		in.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues ev on the owning shard. It blocks while the shard is full.
func (in *Inbox) Submit(ctx context.Context, ev chat.Event) error {
	ch := in.shards[shardFor(ev.UserID, len(in.shards))]
	select {
	case <-in.done:
		return ErrInboxClosed
	default:
	}

	select {
	case ch <- ev:
		return nil
	case <-in.done:
		return ErrInboxClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func shardFor(userID int64, n int) int {
	idx := userID % int64(n)
	if idx < 0 {
		idx = -idx
	}
	return int(idx)
}

func (in *Inbox) work(ctx context.Context, shard int, ch <-chan chat.Event) {
	defer in.wg.Done()
	for {
		select {
		case <-in.done:
			return
		case ev := <-ch:
			in.dispatch(ctx, shard, ev)
		}
	}
}

func (in *Inbox) dispatch(ctx context.Context, shard int, ev chat.Event) {
	defer func() {
		if r := recover(); r != nil {
			in.logger.Error("inbox handler panic", "shard", shard, "user_id", ev.UserID, "panic", r)
		}
	}()

	hctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := in.handler.Handle(hctx, ev); err != nil {
		in.logger.Error("cannot handle event", "shard", shard, "user_id", ev.UserID, "error", err)
	}
}
