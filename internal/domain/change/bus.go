package change

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/calorank/pkg/logger"
	"github.com/okian/calorank/pkg/metrics"
)

// Subscriber applies committed changes to a derived view.
type Subscriber interface {
	Handle(ctx context.Context, ev Event) error
}

// SubscriberFunc adapts a plain function to Subscriber.
type SubscriberFunc func(ctx context.Context, ev Event) error

// Handle implements Subscriber.
func (f SubscriberFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Publisher is what mutating stores depend on.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type subscription struct {
	name string
	sub  Subscriber
}

// Bus delivers each published change to every subscriber concurrently and
// returns once all of them finished. One failing or panicking subscriber
// never prevents delivery to the others.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	limit  int
	logger logger.Logger
}

// Option applies a configuration option to the Bus.
type Option func(*Bus)

// WithFanoutLimit caps how many subscribers run at once; 0 means no cap.
func WithFanoutLimit(n int) Option {
	return func(b *Bus) {
		if n >= 0 {
			b.limit = n
		}
	}
}

// WithLogger sets the logger used to report subscriber failures.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logger.Get().Named("change")
	}
	return b
}

// Subscribe registers sub under name. Names label metrics and errors.
func (b *Bus) Subscribe(name string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, sub: sub})
}

// Subscribers returns the registered subscriber names in registration order.
func (b *Bus) Subscribers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, len(b.subs))
	for i, s := range b.subs {
		names[i] = s.name
	}
	return names
}

// Publish delivers ev to every subscriber and waits for all of them.
// The returned error joins one *SubscriberError per failed subscriber.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()
	if len(subs) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordFanoutLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	errs := make([]error, len(subs))
	var g errgroup.Group
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}
	for i, s := range subs {
		g.Go(func() error {
			errs[i] = b.deliver(ctx, s, ev)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, s subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSubscriberPanic, r)
		}
		if err == nil {
			return
		}
		err = &SubscriberError{Subscriber: s.name, Kind: ev.Kind(), Owner: ev.Owner(), Err: err}
		metrics.RecordSubscriberFailure(s.name)
		b.logger.Error(ctx, "subscriber failed to apply change; derived view may be stale",
			logger.String("subscriber", s.name),
			logger.String("kind", string(ev.Kind())),
			logger.String("user_id", ev.Owner()),
			logger.Error(err),
		)
	}()
	return s.sub.Handle(ctx, ev)
}
