package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"tlgsite/internal/auth"
	"tlgsite/internal/authz"
	"tlgsite/internal/config"
	"tlgsite/internal/handler"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/realtime"
	"tlgsite/internal/repository"
	"tlgsite/internal/router"
	"tlgsite/internal/service"
	"tlgsite/internal/view"
)

const (
	staffPassword = "s3cret"
	userPassword  = "hunter2"
)

// backendCall is one request the fake backend received.
type backendCall struct {
	Method      string
	Path        string
	Auth        string
	ContentType string
	Query       map[string]string
	Body        map[string]any
}

var nameFilter = regexp.MustCompile(`^name = '(.*)'$`)

// fakeBackend is an in-memory stand-in for the records API.
type fakeBackend struct {
	mu      sync.Mutex
	records map[string][]pocketbase.Record
	calls   []backendCall
	token   string
	nextID  int
	// invalid makes creates in a collection fail with these per-field errors.
	invalid map[string]map[string]any
}

func newFakeBackend(token string) *fakeBackend {
	return &fakeBackend{records: make(map[string][]pocketbase.Record), token: token}
}

func (f *fakeBackend) seed(collection string, recs ...pocketbase.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[collection] = append(f.records[collection], recs...)
}

func (f *fakeBackend) mutations() []backendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []backendCall
	for _, c := range f.calls {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBackend) lastQuery(path string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Path == path {
			return f.calls[i].Query
		}
	}
	return nil
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := backendCall{
		Method:      r.Method,
		Path:        r.URL.Path,
		Auth:        r.Header.Get("Authorization"),
		ContentType: r.Header.Get("Content-Type"),
		Query:       map[string]string{},
	}
	for k := range r.URL.Query() {
		call.Query[k] = r.URL.Query().Get(k)
	}
	call.Body = readBody(r)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 || parts[0] != "api" || parts[1] != "collections" {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "Not found."})
		return
	}
	collection, action := parts[2], parts[3]

	switch action {
	case "auth-methods":
		writeJSON(w, http.StatusOK, map[string]any{
			"password": map[string]any{"enabled": true, "identityFields": []string{"email"}},
			"oauth2": map[string]any{
				"enabled": true,
				"providers": []map[string]any{{
					"name": "discord", "displayName": "Discord", "state": "st-1",
					"authURL": "https://discord.test/authorize?state=st-1&redirect_uri=", "codeVerifier": "cv-1",
				}},
			},
		})
	case "auth-with-password":
		if call.Body["password"] != userPassword {
			writeJSON(w, http.StatusBadRequest, map[string]any{"status": 400, "message": "Failed to authenticate."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": f.token, "record": userRecord("u-member", "Member")})
	case "records":
		var id string
		if len(parts) > 4 {
			id = parts[4]
		}
		f.serveRecords(w, r, collection, id, call)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "Not found."})
	}
}

func (f *fakeBackend) serveRecords(w http.ResponseWriter, r *http.Request, collection, id string, call backendCall) {
	if r.Method != http.MethodGet && collection != model.CollectionContacts && call.Auth != f.token {
		writeJSON(w, http.StatusForbidden, map[string]any{"status": 403, "message": "Only admins can perform this action."})
		return
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		items := f.records[collection]
		if m := nameFilter.FindStringSubmatch(call.Query["filter"]); m != nil {
			items = nil
			for _, rec := range f.records[collection] {
				if rec.String("name") == m[1] {
					items = append(items, rec)
				}
			}
		}
		total := len(items)
		if p := call.Query["page"]; p != "" && p != "1" {
			items = nil
		}
		if items == nil {
			items = []pocketbase.Record{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"page": 1, "perPage": 500, "totalItems": total, "totalPages": 1, "items": items})
	case r.Method == http.MethodGet:
		if rec := f.find(collection, id); rec != nil {
			writeJSON(w, http.StatusOK, rec)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "The requested resource wasn't found."})
	case r.Method == http.MethodPost && f.invalid[collection] != nil:
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": 400, "message": "Failed to create record.", "data": f.invalid[collection]})
	case r.Method == http.MethodPost:
		rec := pocketbase.Record{}
		for k, v := range call.Body {
			rec[k] = v
		}
		if rec.ID() == "" {
			f.nextID++
			rec["id"] = fmt.Sprintf("rec%d", f.nextID)
		}
		f.records[collection] = append(f.records[collection], rec)
		writeJSON(w, http.StatusOK, rec)
	case r.Method == http.MethodPatch:
		rec := f.find(collection, id)
		if rec == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "The requested resource wasn't found."})
			return
		}
		for k, v := range call.Body {
			rec[k] = v
		}
		writeJSON(w, http.StatusOK, rec)
	case r.Method == http.MethodDelete:
		recs := f.records[collection]
		for i, rec := range recs {
			if rec.ID() == id {
				f.records[collection] = append(recs[:i], recs[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "The requested resource wasn't found."})
	}
}

func (f *fakeBackend) find(collection, id string) pocketbase.Record {
	for _, rec := range f.records[collection] {
		if rec.ID() == id {
			return rec
		}
	}
	return nil
}

func readBody(r *http.Request) map[string]any {
	body := map[string]any{}
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/json"):
		_ = json.NewDecoder(r.Body).Decode(&body)
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return body
		}
		for k, v := range r.MultipartForm.Value {
			if len(v) == 1 {
				body[k] = v[0]
			} else {
				body[k] = v
			}
		}
		for k, files := range r.MultipartForm.File {
			body[k] = files[0].Filename
		}
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// brokenStore loads nothing and refuses every write, like a session store whose redis is down.
type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (*auth.SessionData, error) { return nil, nil }

func (brokenStore) Save(context.Context, string, *auth.SessionData, time.Duration) error {
	return errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
}

func (brokenStore) Delete(context.Context, string) error { return nil }

func userRecord(id, role string) pocketbase.Record {
	return pocketbase.Record{"id": id, "collectionName": "users", "name": "Kai", "email": "kai@tlg.gg", "role": role}
}

func backendToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("pb-secret"))
	require.NoError(t, err)
	return token
}

type testApp struct {
	e       *echo.Echo
	backend *fakeBackend
	store   *auth.MemorySessionStore
	jwt     *auth.JWTService
	token   string
}

type appOption func(*appSettings)

type appSettings struct {
	offline     bool
	staffPass   string
	brokenStore bool
}

func offline() appOption { return func(s *appSettings) { s.offline = true } }

func withoutStaffSecret() appOption { return func(s *appSettings) { s.staffPass = "" } }

func withBrokenSessionStore() appOption { return func(s *appSettings) { s.brokenStore = true } }

// newTestApp wires the real router, services and templates over a fake backend.
func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	settings := appSettings{staffPass: staffPassword}
	for _, o := range opts {
		o(&settings)
	}

	app := &testApp{
		e:     echo.New(),
		store: auth.NewMemorySessionStore(),
		jwt:   auth.NewJWTService("cookie-secret"),
		token: backendToken(t),
	}
	app.backend = newFakeBackend(app.token)

	handle := pocketbase.Unavailable()
	if !settings.offline {
		srv := httptest.NewServer(app.backend)
		t.Cleanup(srv.Close)
		handle = pocketbase.Available(pocketbase.New(srv.URL, pocketbase.WithReadRetries(0, 0)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{PublicBaseURL: "http://site.test", SessionTTL: time.Hour}
	audit := service.NewAuditRecorder(nil)
	repo := func(name string) repository.CollectionRepository {
		return repository.NewCollectionRepository(handle, name)
	}
	newsRepo, tagRepo := repo(model.CollectionNews), repo(model.CollectionTags)
	roleRepo, recruitmentRepo := repo(model.CollectionRoles), repo(model.CollectionRecruitment)

	news := service.NewNewsService(newsRepo, nil, time.Second)
	content := service.NewContentService(service.ContentRepositories{
		Games:    repo(model.CollectionGames),
		Partners: repo(model.CollectionPartners),
		Users:    repo(model.CollectionUsers),
		Tags:     tagRepo,
	}, nil, time.Second)
	staff := service.NewStaffService(settings.staffPass, "")
	var store auth.SessionStore = app.store
	if settings.brokenStore {
		store = brokenStore{}
	}
	manager := auth.NewManager(handle, store, time.Hour)

	renderer, err := view.New(auth.UserFrom, authz.TemplateFuncs(authz.DefaultGate()))
	require.NoError(t, err)

	router.Register(app.e, cfg, renderer,
		router.Session{Manager: manager, JWT: app.jwt},
		router.Handlers{
			Pages:       handler.NewPageHandler(news, content, nil),
			News:        handler.NewNewsHandler(news, service.NewNewsMutationService(newsRepo, nil, audit), content),
			Recruitment: handler.NewRecruitmentHandler(service.NewRecruitmentService(roleRepo, recruitmentRepo, nil, time.Second, audit), service.NewRoleService(roleRepo, recruitmentRepo, nil, audit)),
			Contact:     handler.NewContactHandler(service.NewContactService(repo(model.CollectionContacts))),
			Tags:        handler.NewTagHandler(service.NewTagService(tagRepo, nil, audit), content),
			Auth:        handler.NewAuthHandler(manager, staff, cfg.PublicBaseURL),
			API:         handler.NewAPIHandler(news, staff, audit),
			Events:      handler.NewEventsHandler(realtime.NewHub(ctx, handle, model.CollectionNews)),
		},
	)
	return app
}

// signIn stores a signed-in session with the given role and returns its cookie.
func (a *testApp) signIn(t *testing.T, role string) *http.Cookie {
	t.Helper()
	sid := "sess-" + strings.ToLower(role)
	require.NoError(t, a.store.Save(context.Background(), sid, &auth.SessionData{
		Token:       a.token,
		Record:      userRecord("u-"+strings.ToLower(role), role),
		RefreshedAt: time.Now(),
	}, time.Hour))
	value, err := a.jwt.GenerateSessionToken(sid, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: value}
}

func (a *testApp) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, target, nil), cookie)
}

func (a *testApp) postForm(target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return a.do(req, cookie)
}

// postMultipart posts fields and one file the way a browser submits a form with an upload.
func (a *testApp) postMultipart(t *testing.T, target string, fields url.Values, fileField, fileName, content string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	part, err := mw.CreateFormFile(fileField, fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return a.do(req, cookie)
}

func (a *testApp) postJSON(target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return a.do(req, cookie)
}

// sessionCookie returns the session cookie issued by rec, if any.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}
