package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/labstack/gommon/log"

	"tlgsite/internal/pocketbase"
)

// Watch subscribes to topic and applies every event to list until ctx ends. With an
// unavailable handle it does nothing and returns a nil subscription.
func Watch[T any](ctx context.Context, h pocketbase.Handle, topic string, list *List[T], decode func(pocketbase.Record) T) (*pocketbase.Subscription, error) {
	client, ok := h.Client()
	if !ok {
		return nil, nil
	}
	sub, err := client.Subscribe(ctx, topic, func(e pocketbase.Event) {
		list.Apply(e.Action, decode(e.Record))
	})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", topic, err)
	}
	return sub, nil
}

// Feed is a List kept live: loaded once, then updated from the topic's events.
type Feed[T any] struct {
	handle pocketbase.Handle
	topic  string
	list   *List[T]
	load   func(ctx context.Context) ([]T, error)
	decode func(pocketbase.Record) T

	mu   sync.Mutex
	live bool
}

// NewFeed creates a feed for topic. load is the initial fetch.
func NewFeed[T any](h pocketbase.Handle, topic string, idOf func(T) string, load func(ctx context.Context) ([]T, error), decode func(pocketbase.Record) T) *Feed[T] {
	return &Feed[T]{handle: h, topic: topic, list: NewList(idOf), load: load, decode: decode}
}

// Start loads the list and watches the topic until ctx ends. The feed only serves from
// memory while the subscription is up; afterwards Items falls back to load.
func (f *Feed[T]) Start(ctx context.Context) error {
	items, err := f.load(ctx)
	if err != nil {
		return fmt.Errorf("feed %s: initial load: %w", f.topic, err)
	}
	f.list.Reset(items)

	sub, err := Watch(ctx, f.handle, f.topic, f.list, f.decode)
	if err != nil || sub == nil {
		return err
	}
	f.setLive(true)

	go func() {
		<-sub.Done()
		f.setLive(false)
		if err := sub.Err(); err != nil {
			log.Warnf("feed %s: stream ended: %v", f.topic, err)
		}
	}()
	return nil
}

// Items returns the live list, or the result of load when the feed is not live.
func (f *Feed[T]) Items(ctx context.Context) ([]T, error) {
	f.mu.Lock()
	live := f.live
	f.mu.Unlock()

	if live {
		return f.list.Items(), nil
	}
	return f.load(ctx)
}

func (f *Feed[T]) Live() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

func (f *Feed[T]) setLive(v bool) {
	f.mu.Lock()
	f.live = v
	f.mu.Unlock()
}
