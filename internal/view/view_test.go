package view

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tlgsite/internal/model"
	"tlgsite/internal/newsform"
)

func newRenderer(t *testing.T, user *model.User) *Renderer {
	t.Helper()
	r, err := New(func(echo.Context) *model.User { return user }, template.FuncMap{
		"canManage": func(u *model.User) bool { return u != nil && u.Role == "Admin" },
		"can": func(u *model.User, action, resource string) bool {
			return action == "view" || (u != nil && u.Role == "Admin")
		},
	})
	require.NoError(t, err)
	return r
}

func render(t *testing.T, r *Renderer, name, path string, data any) string {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, data, c))
	return buf.String()
}

func TestRenderer_EveryPageRenders(t *testing.T) {
	r := newRenderer(t, nil)
	form := &newsform.Form{}
	require.NoError(t, form.Open())

	pages := map[string]any{
		"home":         Page{Data: HomeData{}},
		"about":        Page{Title: "A propos"},
		"contact":      Page{Data: ContactData{}},
		"games":        Page{Data: GamesData{}},
		"news":         Page{Data: NewsListData{}},
		"news_item":    Page{Data: NewsItemData{Item: &model.NewsItem{ID: "n1", Title: "Finale"}}},
		"news_form":    Page{Data: NewsFormData{Form: form}},
		"recruitment":  Page{Data: RecruitmentData{}},
		"partnerships": Page{Data: PartnersData{}},
		"login":        Page{Data: LoginData{PasswordEnabled: true}},
		"tags":         Page{Data: TagsData{}},
		"error":        Page{Data: ErrorData{Status: 404, Message: "Page introuvable"}},
	}
	for name, data := range pages {
		t.Run(name, func(t *testing.T) {
			assert.True(t, r.Has(name))
			out := render(t, r, name, "/"+name, data)
			assert.Contains(t, out, "<!doctype html>")
			assert.Contains(t, out, "TLG: The Legion")
		})
	}
}

func TestRenderer_UnknownPage(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, newRenderer(t, nil).Render(&buf, "missing", nil, nil))
}

func TestRenderer_ManagerControls(t *testing.T) {
	items := NewsListData{Items: []model.NewsItem{{ID: "n1", Title: "Finale", Created: time.Now()}}}

	anonymous := render(t, newRenderer(t, nil), "news", "/news", Page{Data: items})
	assert.NotContains(t, anonymous, "/news/n1/edit")
	assert.NotContains(t, anonymous, "/news/new")
	assert.Contains(t, anonymous, "Connexion")

	admin := &model.User{ID: "u1", Name: "Zelda94", Role: "Admin"}
	managed := render(t, newRenderer(t, admin), "news", "/news", Page{Data: items})
	assert.Contains(t, managed, "/news/n1/edit")
	assert.Contains(t, managed, "/news/new")
	assert.Contains(t, managed, "Zelda94")
}

func TestRenderer_RetryNotice(t *testing.T) {
	out := render(t, newRenderer(t, nil), "games", "/games", Page{Retry: true, Data: GamesData{}})
	assert.Contains(t, out, "Réessayer")
}

func TestRenderer_NewsFormShowsError(t *testing.T) {
	form := &newsform.Form{}
	require.NoError(t, form.Open())
	form.Title = "Finale"
	form.Error = newsform.MessageMediaRequired

	out := render(t, newRenderer(t, nil), "news_form", "/news/new", Page{Data: NewsFormData{Form: form, Tags: []model.Tag{{ID: "t1", Name: "Tournoi"}}}})
	assert.Contains(t, out, "Tournoi")
	assert.Contains(t, out, `value="Finale"`)
	assert.Contains(t, out, "action=\"/news\"")
}

func TestStatic(t *testing.T) {
	_, err := fs.Stat(Static(), "live.js")
	assert.NoError(t, err)
}
