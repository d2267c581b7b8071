package middlewares_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/middlewares"
	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/utils"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("API_SECRET", "middleware-test-secret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	conn, err := config.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	config.SetDB(conn)
	models.MigrateTable()
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", middlewares.AuthMiddleware())
	api.GET("/whoami", middlewares.RequirePermission(models.OperationRead), func(c *gin.Context) {
		id, _ := utils.GetUserIdFromContext(c.Request.Context())
		role, _ := utils.GetUserRoleFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	api.POST("/rebuild", middlewares.RequirePermission(models.OperationRebuildTotals), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doRequest(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	code, _ := body["code"].(string)
	return code
}

func TestAuthMiddlewareRejectsMissingAndInvalidTokens(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/whoami", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", w.Code)
	}
	if code := decodeCode(t, w); code != string(models.KindUnauthenticated) {
		t.Fatalf("expected code Unauthenticated, got %q", code)
	}

	w = doRequest(r, http.MethodGet, "/api/whoami", "not-a-jwt")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", w.Code)
	}
}

func TestAuthMiddlewareSetsActorAndSeedsUser(t *testing.T) {
	r := setupRouter(t)
	userId := uuid.NewString()
	token, err := utils.JwtGenerate(userId, "Dana", "dana@shop.local", string(models.UserRoleEditor))
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	w := doRequest(r, http.MethodGet, "/api/whoami", token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != userId || body["role"] != string(models.UserRoleEditor) {
		t.Fatalf("unexpected actor %+v", body)
	}

	user, err := models.GetUser(context.Background(), userId)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.Name != "Dana" || user.Role != models.UserRoleEditor {
		t.Fatalf("unexpected seeded user %+v", user)
	}
}

func TestRequirePermission(t *testing.T) {
	r := setupRouter(t)

	cases := []struct {
		role   models.UserRole
		status int
	}{
		{models.UserRoleAdmin, http.StatusNoContent},
		{models.UserRoleEditor, http.StatusForbidden},
		{models.UserRoleViewer, http.StatusForbidden},
		{models.UserRole("Owner"), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			token, err := utils.JwtGenerate(uuid.NewString(), "", "", string(tc.role))
			if err != nil {
				t.Fatalf("JwtGenerate: %v", err)
			}
			w := doRequest(r, http.MethodPost, "/api/rebuild", token)
			if w.Code != tc.status {
				t.Fatalf("role %s: expected %d, got %d", tc.role, tc.status, w.Code)
			}
			if tc.status == http.StatusForbidden {
				if code := decodeCode(t, w); code != string(models.KindForbidden) {
					t.Fatalf("expected code Forbidden, got %q", code)
				}
			}
		})
	}
}
