// Package realtime keeps in-memory lists in step with backend change events and fans those
// events out to browsers.
package realtime

import (
	"sync"

	"tlgsite/internal/pocketbase"
)

// List is an ordered list of items keyed by id. It is safe for concurrent use.
type List[T any] struct {
	mu    sync.RWMutex
	idOf  func(T) string
	items []T
}

// NewList creates an empty list. idOf returns the record id of an item.
func NewList[T any](idOf func(T) string) *List[T] {
	return &List[T]{idOf: idOf, items: []T{}}
}

// Reset replaces the whole list, typically with the result of the initial fetch.
func (l *List[T]) Reset(items []T) {
	cp := make([]T, len(items))
	copy(cp, items)

	l.mu.Lock()
	l.items = cp
	l.mu.Unlock()
}

// Apply merges one change. A create of a known id replaces it, an update of an unknown id is
// ignored and a delete removes the id if present.
func (l *List[T]) Apply(action string, item T) {
	id := l.idOf(item)

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	switch action {
	case pocketbase.ActionCreate:
		if i >= 0 {
			l.items[i] = item
			return
		}
		l.items = append(l.items, item)
	case pocketbase.ActionUpdate:
		if i >= 0 {
			l.items[i] = item
		}
	case pocketbase.ActionDelete:
		if i >= 0 {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
		}
	}
}

// Items returns a snapshot in list order.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *List[T]) index(id string) int {
	for i, item := range l.items {
		if l.idOf(item) == id {
			return i
		}
	}
	return -1
}
