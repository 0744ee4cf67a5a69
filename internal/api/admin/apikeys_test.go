package admin

import (
	"net/http"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var apiKeyCols = []string{
	"id", "project_id", "api_key", "secret", "name", "is_active",
	"last_used_at", "created_by", "created_at",
}

func newKeyRouter(t *testing.T) *handlerEnv {
	t.Helper()
	env := newEnv(t)
	h := NewAPIKeyHandlers(env.keys)
	env.router.GET("/api/projects/:project_id/api-keys", h.List)
	env.router.POST("/api/projects/:project_id/api-keys", h.Generate)
	env.router.PUT("/api/api-keys/:key_id", h.Toggle)
	env.router.DELETE("/api/api-keys/:key_id", h.Delete)
	return env
}

// ---------------------------------------------------------------------------
// Generate / List
// ---------------------------------------------------------------------------

func TestGenerateAPIKey_RotatesAndReturnsSecret(t *testing.T) {
	env := newKeyRouter(t)
	env.mock.ExpectQuery("SELECT.*FROM projects.*WHERE id").
		WillReturnRows(projectRow())
	env.mock.ExpectQuery("SELECT.*FROM api_keys WHERE project_id").
		WillReturnRows(sqlmock.NewRows(apiKeyCols).
			AddRow("key-old", "proj-1", "cg_old", "oldsecret", nil, true, nil, nil, testNow))
	env.mock.ExpectExec("DELETE FROM api_keys WHERE id").
		WithArgs("key-old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec("INSERT INTO api_keys").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, env.router, http.MethodPost, "/api/projects/proj-1/api-keys", nil)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := getJSON(t, w)
	assert.Equal(t, "proj-1", resp["project_id"])
	assert.NotEmpty(t, resp["api_key"])
	assert.NotEmpty(t, resp["secret"])
}

func TestListAPIKeys_OmitsSecret(t *testing.T) {
	env := newKeyRouter(t)
	env.mock.ExpectQuery("SELECT.*FROM projects.*WHERE id").
		WillReturnRows(projectRow())
	env.mock.ExpectQuery("SELECT.*FROM api_keys WHERE project_id").
		WillReturnRows(sqlmock.NewRows(apiKeyCols).
			AddRow("key-1", "proj-1", "cg_abc", "topsecret", nil, true, nil, nil, testNow))

	w := doJSON(t, env.router, http.MethodGet, "/api/projects/proj-1/api-keys", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), getJSON(t, w)["total"])
	assert.NotContains(t, w.Body.String(), "topsecret")
}

// ---------------------------------------------------------------------------
// Toggle / Delete
// ---------------------------------------------------------------------------

func TestToggleAPIKey(t *testing.T) {
	env := newKeyRouter(t)
	env.mock.ExpectExec("UPDATE api_keys SET is_active").
		WithArgs("key-1", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, env.router, http.MethodPut, "/api/api-keys/key-1",
		map[string]interface{}{"is_active": false})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, getJSON(t, w)["success"])
}

func TestToggleAPIKey_MissingFlag(t *testing.T) {
	env := newKeyRouter(t)

	w := doJSON(t, env.router, http.MethodPut, "/api/api-keys/key-1",
		map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAPIKey_NotFound(t *testing.T) {
	env := newKeyRouter(t)
	env.mock.ExpectExec("DELETE FROM api_keys WHERE id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(t, env.router, http.MethodDelete, "/api/api-keys/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "API_KEY_NOT_FOUND", getJSON(t, w)["code"])
}
