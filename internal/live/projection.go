package live

import (
	"context"
	"sync"

	"etech-backend/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Loader reads the full current contents of a collection.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Projection owns one subscription and the latest full snapshot of a
// collection. Every change signal triggers a full reload; there is no
// incremental patching.
type Projection[T any] struct {
	coll   Collection
	load   Loader[T]
	sub    *Subscription
	log    *zap.Logger
	tracer observability.Tracer

	mu       sync.RWMutex
	snapshot []T

	updates   chan []T
	done      chan struct{}
	closeOnce sync.Once
}

// Open subscribes before the first load, so a change committed while loading
// still triggers a reload.
func Open[T any](ctx context.Context, feed Feed, coll Collection, load Loader[T], log *zap.Logger) (*Projection[T], error) {
	p := &Projection[T]{
		coll:    coll,
		load:    load,
		sub:     feed.Subscribe(coll),
		log:     log,
		tracer:  observability.NewTracer(),
		updates: make(chan []T, 1),
		done:    make(chan struct{}),
	}

	snap, err := p.reload(ctx)
	if err != nil {
		p.sub.Close()
		return nil, err
	}
	p.snapshot = snap

	go p.run(ctx)
	return p, nil
}

func (p *Projection[T]) Snapshot() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Updates yields each new snapshot. An unread snapshot is replaced by a newer
// one. The channel is closed after Close.
func (p *Projection[T]) Updates() <-chan []T {
	return p.updates
}

func (p *Projection[T]) Close() {
	p.closeOnce.Do(func() {
		p.sub.Close()
		close(p.done)
	})
}

func (p *Projection[T]) run(ctx context.Context) {
	defer close(p.updates)
	for {
		select {
		case <-ctx.Done():
			p.Close()
			return
		case <-p.done:
			return
		case <-p.sub.C:
			snap, err := p.reload(ctx)
			if err != nil {
				// keep the old snapshot; the next signal retries
				p.log.Warn("live reload failed", zap.String("collection", string(p.coll)), zap.Error(err))
				continue
			}
			p.mu.Lock()
			p.snapshot = snap
			p.mu.Unlock()
			p.publish(snap)
		}
	}
}

func (p *Projection[T]) publish(snap []T) {
	select {
	case p.updates <- snap:
		return
	default:
	}
	// drop the stale pending snapshot
	select {
	case <-p.updates:
	default:
	}
	select {
	case p.updates <- snap:
	default:
	}
}

func (p *Projection[T]) reload(ctx context.Context) ([]T, error) {
	ctx, span := p.tracer.Start(ctx, "live.reload", trace.WithAttributes(attribute.String("collection", string(p.coll))))
	defer span.End()

	snap, err := p.load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(snap)))
	return snap, nil
}
