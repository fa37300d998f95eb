package pocketbase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithReadRetries(2, time.Millisecond))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/collections/news/records", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "3", q.Get("perPage"))
		assert.Equal(t, "-created", q.Get("sort"))
		assert.Equal(t, `content != ""`, q.Get("filter"))
		assert.Equal(t, "tags", q.Get("expand"))
		assert.Empty(t, q.Get("skipTotal"))
		writeJSON(w, http.StatusOK, map[string]any{
			"page": 1, "perPage": 3, "totalItems": 1, "totalPages": 1,
			"items": []map[string]any{{"id": "n1", "title": "Hello"}},
		})
	})

	res, err := client.GetList(context.Background(), "news", ListOptions{
		Page: 1, PerPage: 3, Sort: "-created", Filter: `content != ""`, Expand: "tags",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalItems)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "n1", res.Items[0].ID())
	assert.Equal(t, "Hello", res.Items[0].String("title"))
}

func TestClient_GetFullList(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "1", r.URL.Query().Get("skipTotal"))
		assert.Equal(t, "2", r.URL.Query().Get("perPage"))
		var items []map[string]any
		switch r.URL.Query().Get("page") {
		case "1":
			items = []map[string]any{{"id": "a"}, {"id": "b"}}
		case "2":
			items = []map[string]any{{"id": "c"}}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	})

	items, err := client.GetFullList(context.Background(), "Games", 2, ListOptions{Sort: "name"})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "c", items[2].ID())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_GetFirstListItem_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name = 'Coach'", r.URL.Query().Get("filter"))
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
	})

	rec, err := client.GetFirstListItem(context.Background(), "Rank", "name = 'Coach'", ListOptions{})
	assert.Nil(t, rec)
	assert.True(t, IsNotFound(err))
}

func TestClient_ReadRetries(t *testing.T) {
	tests := []struct {
		name          string
		failures      int32
		status        int
		expectedCalls int32
		expectError   bool
	}{
		{name: "recovers after transient 5xx", failures: 2, status: http.StatusBadGateway, expectedCalls: 3},
		{name: "gives up after retries", failures: 5, status: http.StatusServiceUnavailable, expectedCalls: 3, expectError: true},
		{name: "client errors are not retried", failures: 5, status: http.StatusForbidden, expectedCalls: 1, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				if n <= tt.failures {
					writeJSON(w, tt.status, map[string]any{"message": "boom"})
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"id": "x"})
			})

			rec, err := client.GetOne(context.Background(), "tags", "x", RecordOptions{})
			if tt.expectError {
				assert.Error(t, err)
				assert.Equal(t, int(tt.status), StatusOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, "x", rec.ID())
			}
			assert.Equal(t, tt.expectedCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_CreateIsNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  500,
			"message": "Something went wrong while processing your request.",
		})
	})

	_, err := client.Create(context.Background(), "news", JSONPayload{"title": "x"}, RecordOptions{})
	require.Error(t, err)
	assert.Equal(t, "Something went wrong while processing your request.", Message(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_CreateValidationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  400,
			"message": "Failed to create record.",
			"data": map[string]any{
				"title": map[string]any{"code": "validation_required", "message": "Missing required value."},
			},
		})
	})

	_, err := client.Create(context.Background(), "news", JSONPayload{}, RecordOptions{})
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusBadRequest, ce.Status)
	assert.Equal(t, map[string]string{"title": "Missing required value."}, ce.FieldErrors())
}

func TestClient_PayloadEncoding(t *testing.T) {
	tests := []struct {
		name        string
		payload     Payload
		contentType string
		check       func(t *testing.T, r *http.Request)
	}{
		{
			name:        "json payload",
			payload:     JSONPayload{"title": "Hello", "tags": []string{"t1", "t2"}},
			contentType: "application/json",
			check: func(t *testing.T, r *http.Request) {
				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "Hello", body["title"])
				assert.Equal(t, []any{"t1", "t2"}, body["tags"])
			},
		},
		{
			name: "multipart payload",
			payload: MultipartPayload{
				Fields: map[string][]string{"title": {"Hello"}, "tags": {"t1", "t2"}},
				Files:  []File{{Field: "image", Name: "cover.png", Reader: strings.NewReader("png-bytes")}},
			},
			contentType: "multipart/form-data",
			check: func(t *testing.T, r *http.Request) {
				require.NoError(t, r.ParseMultipartForm(1<<20))
				assert.Equal(t, "Hello", r.FormValue("title"))
				assert.Equal(t, []string{"t1", "t2"}, r.MultipartForm.Value["tags"])
				f, hdr, err := r.FormFile("image")
				require.NoError(t, err)
				defer f.Close()
				raw, _ := io.ReadAll(f)
				assert.Equal(t, "cover.png", hdr.Filename)
				assert.Equal(t, "png-bytes", string(raw))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPatch, r.Method)
				assert.Equal(t, "/api/collections/news/records/n1", r.URL.Path)
				assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), tt.contentType))
				assert.Equal(t, "user-token", r.Header.Get("Authorization"))
				tt.check(t, r)
				writeJSON(w, http.StatusOK, map[string]any{"id": "n1"})
			})

			ctx := WithToken(context.Background(), "user-token")
			rec, err := client.Update(ctx, "news", "n1", tt.payload, RecordOptions{})
			require.NoError(t, err)
			assert.Equal(t, "n1", rec.ID())
		})
	}
}

func TestClient_Delete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/collections/recrutement/records/r1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, client.Delete(context.Background(), "recrutement", "r1"))
}

func TestClient_TransportError(t *testing.T) {
	client := New("http://127.0.0.1:1", WithReadRetries(0, 0), WithTimeout(time.Second))

	_, err := client.GetList(context.Background(), "news", ListOptions{})
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, ce.Status)
}

func TestClient_FileURL(t *testing.T) {
	client := New("https://pb.example.com/")

	assert.Equal(t, "https://pb.example.com/api/files/news/n1/cover.png", client.FileURL("news", "n1", "cover.png", nil))
	assert.Equal(t, "https://pb.example.com/api/files/users/u1/a.png?thumb=100x100", client.FileURL("users", "u1", "a.png", map[string][]string{"thumb": {"100x100"}}))
	assert.Empty(t, client.FileURL("news", "n1", "", nil))
	assert.Empty(t, Unavailable().FileURL("news", "n1", "cover.png"))
}

func TestHandle(t *testing.T) {
	var zero Handle
	_, ok := zero.Client()
	assert.False(t, ok)
	assert.False(t, Unavailable().IsAvailable())

	c := New("http://localhost:8090")
	got, ok := Available(c).Client()
	assert.True(t, ok)
	assert.Same(t, c, got)
}
