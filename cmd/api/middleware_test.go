package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abhishek622/hiregate/internal/auth"
	"github.com/abhishek622/hiregate/internal/config"
	"github.com/abhishek622/hiregate/internal/handler"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testApp() *application {
	return &application{
		Logger:     zap.NewNop(),
		Config:     &config.Config{},
		TokenMaker: auth.NewJWTMaker(strings.Repeat("s", 32)),
	}
}

func whoami(app *application) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", app.AuthMiddleware(), app.RateLimitMiddleware(), func(c *gin.Context) {
		actor, ok := handler.GetActorFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, string(actor.Role)+":"+actor.AgencyID.String())
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	app := testApp()
	actor := model.Actor{AgencyID: uuid.New(), UserID: uuid.New(), Role: model.RoleRecruiter}
	valid, _, err := app.TokenMaker.CreateToken(actor, time.Hour)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	other, _, err := auth.NewJWTMaker(strings.Repeat("x", 32)).CreateToken(actor, time.Hour)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	system, _, err := app.TokenMaker.CreateToken(model.SystemActor(actor.AgencyID), time.Hour)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"foreign key", "Bearer " + other, http.StatusUnauthorized},
		{"system role", "Bearer " + system, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	r := whoami(app)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if tt.want == http.StatusOK && w.Body.String() != "recruiter:"+actor.AgencyID.String() {
				t.Fatalf("unexpected actor %q", w.Body.String())
			}
		})
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	app := testApp()
	app.Config.Limiter = config.RateLimiterConfig{Enabled: true, Requests: 1, Window: time.Minute}
	token, _, err := app.TokenMaker.CreateToken(model.Actor{AgencyID: uuid.New(), UserID: uuid.New(), Role: model.RoleRecruiter}, time.Hour)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	r := whoami(app)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}
