package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/labstack/gommon/log"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/pocketbase"
)

// ErrTopicNotAllowed is returned by Join for a topic browsers may not follow.
var ErrTopicNotAllowed = errors.New("realtime topic not allowed")

const listenerBuffer = 16

// Listener receives the events of one topic for one browser.
type Listener struct {
	events chan pocketbase.Event
	gone   chan struct{}
}

// Events delivers events in order. Events are dropped for a listener that falls behind.
func (l *Listener) Events() <-chan pocketbase.Event { return l.events }

// Gone is closed when the upstream stream ended and the listener will get nothing more.
func (l *Listener) Gone() <-chan struct{} { return l.gone }

type topicState struct {
	sub       *pocketbase.Subscription
	listeners map[*Listener]struct{}
}

// Hub shares one upstream subscription per topic between every browser following it. The
// upstream stream is opened by the first Join and closed when the last listener leaves.
type Hub struct {
	ctx     context.Context
	handle  pocketbase.Handle
	allowed map[string]bool

	mu     sync.Mutex
	topics map[string]*topicState
	hooks  []func(topic string, e pocketbase.Event)
}

// NewHub creates a hub whose upstream streams live at most as long as ctx.
func NewHub(ctx context.Context, h pocketbase.Handle, allowed ...string) *Hub {
	hub := &Hub{ctx: ctx, handle: h, allowed: map[string]bool{}, topics: map[string]*topicState{}}
	for _, t := range allowed {
		hub.allowed[t] = true
	}
	return hub
}

func (h *Hub) Allowed(topic string) bool {
	return h.allowed[topic]
}

// Join starts following topic. The returned func must be called to leave.
func (h *Hub) Join(topic string) (*Listener, func(), error) {
	if !h.allowed[topic] {
		return nil, nil, ErrTopicNotAllowed
	}
	client, ok := h.handle.Client()
	if !ok {
		return nil, nil, apperrors.ErrUnavailable
	}

	l := &Listener{events: make(chan pocketbase.Event, listenerBuffer), gone: make(chan struct{})}

	h.mu.Lock()
	state, ok := h.topics[topic]
	if ok {
		state.listeners[l] = struct{}{}
		h.mu.Unlock()
		return l, func() { h.leave(topic, l) }, nil
	}
	state = &topicState{listeners: map[*Listener]struct{}{l: {}}}
	h.topics[topic] = state
	h.mu.Unlock()

	sub, err := client.Subscribe(h.ctx, topic, func(e pocketbase.Event) { h.broadcast(topic, e) })
	if err != nil {
		h.mu.Lock()
		if h.topics[topic] == state {
			delete(h.topics, topic)
		}
		for other := range state.listeners {
			close(other.gone)
		}
		h.mu.Unlock()
		return nil, nil, err
	}

	h.mu.Lock()
	state.sub = sub
	h.mu.Unlock()
	go h.watchUpstream(topic, state, sub)

	return l, func() { h.leave(topic, l) }, nil
}

// OnEvent registers fn to run for every upstream event before it reaches any listener, so
// state derived from the topic can be refreshed before browsers react to it. fn runs on the
// topic's dispatch goroutine.
func (h *Hub) OnEvent(fn func(topic string, e pocketbase.Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, fn)
}

// Topics returns how many upstream streams are open.
func (h *Hub) Topics() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics)
}

func (h *Hub) broadcast(topic string, e pocketbase.Event) {
	h.mu.Lock()
	hooks := append(([]func(string, pocketbase.Event))(nil), h.hooks...)
	h.mu.Unlock()
	for _, fn := range hooks {
		fn(topic, e)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.topics[topic]
	if !ok {
		return
	}
	for l := range state.listeners {
		select {
		case l.events <- e:
		default:
			log.Warnf("realtime %s: listener behind, dropping %s event", topic, e.Action)
		}
	}
}

func (h *Hub) leave(topic string, l *Listener) {
	h.mu.Lock()
	state, ok := h.topics[topic]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(state.listeners, l)
	if len(state.listeners) > 0 || state.sub == nil {
		h.mu.Unlock()
		return
	}
	delete(h.topics, topic)
	sub := state.sub
	h.mu.Unlock()

	// outside the lock: the dispatch goroutine may be waiting in broadcast
	sub.Unsubscribe()
}

func (h *Hub) watchUpstream(topic string, state *topicState, sub *pocketbase.Subscription) {
	<-sub.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[topic] == state {
		delete(h.topics, topic)
	}
	for l := range state.listeners {
		close(l.gone)
	}
	state.listeners = map[*Listener]struct{}{}
	if err := sub.Err(); err != nil {
		log.Warnf("realtime %s: upstream ended: %v", topic, err)
	}
}
