package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

// AuditDispatcher persists audit entries asynchronously through a buffered
// channel. Record never blocks the request path: when the buffer is full the
// entry is dropped and counted instead.
type AuditDispatcher struct {
	repo      ports.AuditRepository
	ch        chan domain.AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
	nowFn     func() time.Time
}

func NewAuditDispatcher(repo ports.AuditRepository, bufferSize int) *AuditDispatcher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	d := &AuditDispatcher{
		repo:  repo,
		ch:    make(chan domain.AuditEvent, bufferSize),
		done:  make(chan struct{}),
		nowFn: time.Now,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *AuditDispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case event := <-d.ch:
			d.persist(event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.persist(event)
				default:
					return
				}
			}
		}
	}
}

func (d *AuditDispatcher) persist(event domain.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.repo.Insert(ctx, event); err != nil {
		slog.Default().ErrorContext(ctx, "audit insert failed",
			"module", "audit",
			"layer", "adapter",
			"operation", "persist",
			"outcome", "failure",
			"action", event.Action,
			"error", err,
		)
	}
}

func (d *AuditDispatcher) Record(entry ports.AuditEntry) {
	if d == nil || d.closed.Load() {
		return
	}
	event := domain.AuditEvent{
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		ActorID:    entry.ActorID,
		Meta:       entry.Meta,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		OccurredAt: d.nowFn().UTC(),
	}
	select {
	case d.ch <- event:
	case <-d.done:
	default:
		d.dropped.Add(1)
	}
}

// Close stops accepting entries and drains what is already buffered.
func (d *AuditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports how many entries were discarded because the buffer was full.
func (d *AuditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
