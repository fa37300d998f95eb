package pocketbase

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Realtime actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const connectEvent = "PB_CONNECT"

// Event is one change notification delivered on a subscription.
type Event struct {
	Action string `json:"action"`
	Record Record `json:"record"`
}

// Subscription is a live realtime stream for a single topic.
type Subscription struct {
	topic    string
	clientID string
	cancel   context.CancelFunc
	done     chan struct{}

	mu  sync.Mutex
	err error
}

func (s *Subscription) Topic() string    { return s.topic }
func (s *Subscription) ClientID() string { return s.clientID }

// Done is closed once the stream has ended, either by Unsubscribe, ctx or a dropped connection.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns why the stream ended. It is nil for a requested shutdown.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Unsubscribe closes the stream and waits for the dispatch goroutine to exit.
func (s *Subscription) Unsubscribe() {
	s.cancel()
	<-s.done
}

// Subscribe opens a realtime stream for topic ("news" or "news/RECORD_ID") and calls fn for
// every event on it. fn is called from a single goroutine, in delivery order. The stream is
// torn down when ctx ends or Unsubscribe is called.
func (c *Client) Subscribe(ctx context.Context, topic string, fn func(Event)) (*Subscription, error) {
	if topic == "" {
		return nil, errors.New("pocketbase: empty realtime topic")
	}
	if fn == nil {
		return nil, errors.New("pocketbase: nil realtime callback")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	target := c.endpoint("/api/realtime", nil)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, target, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build realtime request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		cancel()
		return nil, &ClientError{URL: target, Message: err.Error(), Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, newClientError(target, resp.StatusCode, raw)
	}

	reader := bufio.NewReader(resp.Body)

	// The service announces the client id before anything else; give it the REST timeout.
	connectTimer := time.AfterFunc(c.timeout, cancel)
	clientID, err := awaitConnect(reader)
	connectTimer.Stop()
	if err != nil {
		resp.Body.Close()
		cancel()
		return nil, &ClientError{URL: target, Message: "realtime connect", Err: err}
	}

	body := JSONPayload{"clientId": clientID, "subscriptions": []string{topic}}
	if err := c.send(ctx, http.MethodPost, "/api/realtime", nil, body, nil); err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	sub := &Subscription{
		topic:    topic,
		clientID: clientID,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer resp.Body.Close()
		err := dispatch(reader, topic, fn)
		if streamCtx.Err() != nil {
			return
		}
		sub.mu.Lock()
		sub.err = err
		sub.mu.Unlock()
	}()

	return sub, nil
}

func awaitConnect(r *bufio.Reader) (string, error) {
	for {
		ev, err := readEvent(r)
		if err != nil {
			return "", err
		}
		if ev.name != connectEvent {
			continue
		}
		var payload struct {
			ClientID string `json:"clientId"`
		}
		if err := json.Unmarshal([]byte(ev.data), &payload); err == nil && payload.ClientID != "" {
			return payload.ClientID, nil
		}
		if ev.id != "" {
			return ev.id, nil
		}
		return "", errors.New("connect event without client id")
	}
}

func dispatch(r *bufio.Reader, topic string, fn func(Event)) error {
	for {
		ev, err := readEvent(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if ev.name != topic {
			continue
		}
		var event Event
		if err := json.Unmarshal([]byte(ev.data), &event); err != nil {
			continue
		}
		fn(event)
	}
}

type rawEvent struct {
	id   string
	name string
	data string
}

// readEvent reads one text/event-stream frame, terminated by a blank line.
func readEvent(r *bufio.Reader) (rawEvent, error) {
	var (
		ev   rawEvent
		data []string
		seen bool
	)
	for {
		line, err := r.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return rawEvent{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if seen {
				ev.data = strings.Join(data, "\n")
				return ev, nil
			}
			if err != nil {
				return rawEvent{}, err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		seen = true
		switch field {
		case "id":
			ev.id = value
		case "event":
			ev.name = value
		case "data":
			data = append(data, value)
		}

		if err != nil {
			ev.data = strings.Join(data, "\n")
			return ev, nil
		}
	}
}
