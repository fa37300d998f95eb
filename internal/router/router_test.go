package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"tlgsite/internal/auth"
	"tlgsite/internal/config"
)

func TestRegister_InfrastructureRoutes(t *testing.T) {
	e := echo.New()
	Register(e, &config.Config{SessionTTL: time.Hour}, nil, Session{JWT: auth.NewJWTService("secret")}, Handlers{})

	tests := []struct {
		path         string
		expectedCode int
		contentType  string
	}{
		{path: "/healthz", expectedCode: http.StatusOK, contentType: "text/plain"},
		{path: "/static/site.css", expectedCode: http.StatusOK, contentType: "text/css"},
		{path: "/static/live.js", expectedCode: http.StatusOK, contentType: "javascript"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.contentType != "" {
				assert.Contains(t, rec.Header().Get(echo.HeaderContentType), tt.contentType)
			}
		})
	}
}

func TestCustomValidator(t *testing.T) {
	cv := &CustomValidator{validator: validator.New()}
	type input struct {
		Email string `validate:"required,email"`
	}

	assert.NoError(t, cv.Validate(&input{Email: "kai@tlg.gg"}))
	assert.Error(t, cv.Validate(&input{Email: "kai"}))
}
