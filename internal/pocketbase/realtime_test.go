package pocketbase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRealtime struct {
	subscribed chan []string
	ready      chan struct{}
	events     []string
}

func (f *fakeRealtime) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "id:client-1\nevent:PB_CONNECT\ndata:{\"clientId\":\"client-1\"}\n\n")
		flusher.Flush()

		select {
		case <-f.ready:
		case <-r.Context().Done():
			return
		}
		for _, ev := range f.events {
			fmt.Fprint(w, ev)
			flusher.Flush()
		}
		<-r.Context().Done()
	case http.MethodPost:
		var body struct {
			ClientID      string   `json:"clientId"`
			Subscriptions []string `json:"subscriptions"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.ClientID != "client-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		f.subscribed <- body.Subscriptions
		close(f.ready)
	}
}

func TestClient_Subscribe(t *testing.T) {
	fake := &fakeRealtime{
		subscribed: make(chan []string, 1),
		ready:      make(chan struct{}),
		events: []string{
			"event:Games\ndata:{\"action\":\"create\",\"record\":{\"id\":\"g1\"}}\n\n",
			"event:news\ndata:{\"action\":\"update\",\"record\":{\"id\":\"R1\",\"title\":\"v2\"}}\n\n",
			"event:news\ndata:{\"action\":\"delete\",\"record\":{\"id\":\"R1\"}}\n\n",
		},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := New(srv.URL)
	received := make(chan Event, 4)

	sub, err := client.Subscribe(context.Background(), "news", func(e Event) { received <- e })
	require.NoError(t, err)
	assert.Equal(t, "client-1", sub.ClientID())
	assert.Equal(t, []string{"news"}, <-fake.subscribed)

	var got []Event
	for len(got) < 2 {
		select {
		case e := <-received:
			got = append(got, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for events, got %d", len(got))
		}
	}
	assert.Equal(t, ActionUpdate, got[0].Action)
	assert.Equal(t, "v2", got[0].Record.String("title"))
	assert.Equal(t, ActionDelete, got[1].Action)

	sub.Unsubscribe()
	select {
	case <-sub.Done():
	default:
		t.Fatal("subscription not finished after Unsubscribe")
	}
	assert.NoError(t, sub.Err())
}

func TestClient_SubscribeStopsWithContext(t *testing.T) {
	fake := &fakeRealtime{subscribed: make(chan []string, 1), ready: make(chan struct{})}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := New(srv.URL).Subscribe(ctx, "news/R1", func(Event) {})
	require.NoError(t, err)
	assert.Equal(t, []string{"news/R1"}, <-fake.subscribed)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription outlived its context")
	}
	assert.NoError(t, sub.Err())
}

func TestClient_SubscribeRejectsEmptyTopic(t *testing.T) {
	_, err := New("http://localhost").Subscribe(context.Background(), "", func(Event) {})
	assert.Error(t, err)
}
