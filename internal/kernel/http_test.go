package kernel_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/routes"
	"github.com/eadens/cakeworld/internal/kernel"
	"github.com/eadens/cakeworld/pkg/database"
	"github.com/eadens/cakeworld/pkg/orm"
	"github.com/eadens/cakeworld/pkg/reqid"
)

func handler(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "kernel.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{}, &models.OrderStatusChange{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return kernel.BuildHandler(routes.NewServices(orm.Use(db)))
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	handler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDAndEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	handler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(reqid.Header))

	var body struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authentication_required", body.Code)
}

func TestCatalogIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	handler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?category=all", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterNamesEveryRoute(t *testing.T) {
	r := kernel.Router(&routes.Services{})
	path, ok := r.Path("orders.update")
	require.True(t, ok)
	assert.Equal(t, "/api/orders/{id}", path)

	url, err := r.URL("orders.show", map[string]string{"id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/abc", url)
	assert.Len(t, r.Routes(), 19)
}
