package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/pocketbase"
)

type item struct {
	ID   string
	Name string
}

func itemID(i item) string { return i.ID }

func decodeItem(rec pocketbase.Record) item {
	return item{ID: rec.ID(), Name: rec.String("name")}
}

func TestList_Apply(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		item     item
		expected []item
	}{
		{name: "create appends", action: pocketbase.ActionCreate, item: item{"c", "C"}, expected: []item{{"a", "A"}, {"b", "B"}, {"c", "C"}}},
		{name: "create of known id replaces", action: pocketbase.ActionCreate, item: item{"a", "A2"}, expected: []item{{"a", "A2"}, {"b", "B"}}},
		{name: "update replaces in place", action: pocketbase.ActionUpdate, item: item{"b", "B2"}, expected: []item{{"a", "A"}, {"b", "B2"}}},
		{name: "update of unknown id is ignored", action: pocketbase.ActionUpdate, item: item{"z", "Z"}, expected: []item{{"a", "A"}, {"b", "B"}}},
		{name: "delete removes", action: pocketbase.ActionDelete, item: item{ID: "a"}, expected: []item{{"b", "B"}}},
		{name: "delete of unknown id", action: pocketbase.ActionDelete, item: item{ID: "z"}, expected: []item{{"a", "A"}, {"b", "B"}}},
		{name: "unknown action", action: "noop", item: item{"c", "C"}, expected: []item{{"a", "A"}, {"b", "B"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewList(itemID)
			l.Reset([]item{{"a", "A"}, {"b", "B"}})
			l.Apply(tt.action, tt.item)
			assert.Equal(t, tt.expected, l.Items())
		})
	}
}

func TestList_DeleteWinsAfterAnyUpdates(t *testing.T) {
	sequences := [][]string{
		{pocketbase.ActionDelete},
		{pocketbase.ActionUpdate, pocketbase.ActionDelete},
		{pocketbase.ActionCreate, pocketbase.ActionUpdate, pocketbase.ActionUpdate, pocketbase.ActionDelete},
		{pocketbase.ActionDelete, pocketbase.ActionCreate, pocketbase.ActionDelete},
	}

	for i, seq := range sequences {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			l := NewList(itemID)
			l.Reset([]item{{"R1", "v1"}, {"R2", "other"}})
			for n, action := range seq {
				l.Apply(action, item{"R1", fmt.Sprintf("v%d", n+2)})
			}
			for _, it := range l.Items() {
				assert.NotEqual(t, "R1", it.ID)
			}
			assert.Equal(t, 1, l.Len())
		})
	}
}

func TestList_ItemsIsASnapshot(t *testing.T) {
	l := NewList(itemID)
	l.Reset([]item{{"a", "A"}})
	snap := l.Items()
	snap[0].Name = "changed"
	assert.Equal(t, "A", l.Items()[0].Name)
}

// fakeRealtime is a multi-client stand-in for the backend realtime endpoint.
type fakeRealtime struct {
	mu         sync.Mutex
	next       int
	streams    map[string]chan string
	topics     map[string][]string
	connected  int32
	subscribed chan string
}

func newFakeRealtime() *fakeRealtime {
	return &fakeRealtime{
		streams:    map[string]chan string{},
		topics:     map[string][]string{},
		subscribed: make(chan string, 8),
	}
}

func (f *fakeRealtime) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		atomic.AddInt32(&f.connected, 1)
		defer atomic.AddInt32(&f.connected, -1)

		f.mu.Lock()
		f.next++
		id := fmt.Sprintf("client-%d", f.next)
		ch := make(chan string, 8)
		f.streams[id] = ch
		f.mu.Unlock()

		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "id:%s\nevent:PB_CONNECT\ndata:{\"clientId\":%q}\n\n", id, id)
		flusher.Flush()
		for {
			select {
			case frame := <-ch:
				fmt.Fprint(w, frame)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	case http.MethodPost:
		var body struct {
			ClientID      string   `json:"clientId"`
			Subscriptions []string `json:"subscriptions"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.topics[body.ClientID] = body.Subscriptions
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		for _, s := range body.Subscriptions {
			f.subscribed <- s
		}
	}
}

func (f *fakeRealtime) push(topic, action string, rec map[string]any) {
	data, _ := json.Marshal(map[string]any{"action": action, "record": rec})
	frame := fmt.Sprintf("event:%s\ndata:%s\n\n", topic, data)

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, topics := range f.topics {
		for _, t := range topics {
			if t == topic {
				f.streams[id] <- frame
			}
		}
	}
}

func (f *fakeRealtime) open() int32 { return atomic.LoadInt32(&f.connected) }

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestWatch(t *testing.T) {
	fake := newFakeRealtime()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	l := NewList(itemID)
	l.Reset([]item{{"R1", "v1"}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := Watch(ctx, pocketbase.Available(pocketbase.New(srv.URL)), "news", l, decodeItem)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "news", <-fake.subscribed)

	fake.push("news", pocketbase.ActionUpdate, map[string]any{"id": "R1", "name": "v2"})
	fake.push("news", pocketbase.ActionCreate, map[string]any{"id": "R2", "name": "new"})
	eventually(t, func() bool { return l.Len() == 2 })
	assert.Equal(t, []item{{"R1", "v2"}, {"R2", "new"}}, l.Items())

	fake.push("news", pocketbase.ActionDelete, map[string]any{"id": "R1"})
	eventually(t, func() bool { return l.Len() == 1 })

	cancel()
	<-sub.Done()
	eventually(t, func() bool { return fake.open() == 0 })
}

func TestWatch_Unavailable(t *testing.T) {
	sub, err := Watch(context.Background(), pocketbase.Unavailable(), "news", NewList(itemID), decodeItem)
	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestFeed(t *testing.T) {
	t.Run("unavailable backend serves load", func(t *testing.T) {
		loads := 0
		feed := NewFeed(pocketbase.Unavailable(), "Games", itemID, func(context.Context) ([]item, error) {
			loads++
			return []item{{"g1", "Valorant"}}, nil
		}, decodeItem)

		require.NoError(t, feed.Start(context.Background()))
		assert.False(t, feed.Live())
		items, err := feed.Items(context.Background())
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, 2, loads)
	})

	t.Run("live feed follows events", func(t *testing.T) {
		fake := newFakeRealtime()
		srv := httptest.NewServer(fake)
		defer srv.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		feed := NewFeed(pocketbase.Available(pocketbase.New(srv.URL)), "Games", itemID, func(context.Context) ([]item, error) {
			return []item{{"g1", "Valorant"}}, nil
		}, decodeItem)
		require.NoError(t, feed.Start(ctx))
		<-fake.subscribed
		assert.True(t, feed.Live())

		fake.push("Games", pocketbase.ActionCreate, map[string]any{"id": "g2", "name": "Rocket League"})
		eventually(t, func() bool {
			items, _ := feed.Items(ctx)
			return len(items) == 2
		})

		cancel()
		eventually(t, func() bool { return !feed.Live() })
	})
}

func TestHub(t *testing.T) {
	fake := newFakeRealtime()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	hub := NewHub(context.Background(), pocketbase.Available(pocketbase.New(srv.URL)), "news", "Games")

	_, _, err := hub.Join("users")
	assert.ErrorIs(t, err, ErrTopicNotAllowed)

	first, leaveFirst, err := hub.Join("news")
	require.NoError(t, err)
	<-fake.subscribed
	second, leaveSecond, err := hub.Join("news")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Topics())
	assert.Equal(t, int32(1), fake.open())

	fake.push("news", pocketbase.ActionCreate, map[string]any{"id": "n1"})
	for _, l := range []*Listener{first, second} {
		select {
		case e := <-l.Events():
			assert.Equal(t, "n1", e.Record.ID())
		case <-time.After(2 * time.Second):
			t.Fatal("listener got no event")
		}
	}

	leaveFirst()
	assert.Equal(t, 1, hub.Topics())
	leaveSecond()
	assert.Equal(t, 0, hub.Topics())
	eventually(t, func() bool { return fake.open() == 0 })
}

func TestHub_UpstreamEndClosesListeners(t *testing.T) {
	fake := newFakeRealtime()
	srv := httptest.NewServer(fake)

	hub := NewHub(context.Background(), pocketbase.Available(pocketbase.New(srv.URL)), "news")
	l, leave, err := hub.Join("news")
	require.NoError(t, err)
	defer leave()
	<-fake.subscribed

	srv.CloseClientConnections()
	select {
	case <-l.Gone():
	case <-time.After(2 * time.Second):
		t.Fatal("listener not told the upstream ended")
	}
	assert.Equal(t, 0, hub.Topics())
	srv.Close()
}

func TestHub_Unavailable(t *testing.T) {
	hub := NewHub(context.Background(), pocketbase.Unavailable(), "news")
	_, _, err := hub.Join("news")
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestHub_OnEventRunsBeforeListeners(t *testing.T) {
	fake := newFakeRealtime()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	hub := NewHub(context.Background(), pocketbase.Available(pocketbase.New(srv.URL)), "Partners")
	var (
		mu   sync.Mutex
		seen []string
	)
	hub.OnEvent(func(topic string, e pocketbase.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, topic+":"+e.Action+":"+e.Record.ID())
	})

	l, leave, err := hub.Join("Partners")
	require.NoError(t, err)
	defer leave()
	<-fake.subscribed

	fake.push("Partners", pocketbase.ActionCreate, map[string]any{"id": "p2"})
	select {
	case e := <-l.Events():
		assert.Equal(t, "p2", e.Record.ID())
	case <-time.After(2 * time.Second):
		t.Fatal("listener got no event")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Partners:create:p2"}, seen)
}
