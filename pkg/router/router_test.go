package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestGroupMountsWithPrefixAndMiddleware(t *testing.T) {
	r := router.New()
	var hits int
	count := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			hits++
			next.ServeHTTP(w, req)
		})
	}

	api := r.Group("/api", count)
	api.Patch("/orders/{id}", "orders.update", ok)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/orders/abc", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, hits)
}

func TestRoutesAndURL(t *testing.T) {
	r := router.New()
	api := r.Group("api")
	api.Get("/orders/{id}", "orders.show", ok)
	api.Delete("/products/{id}", "products.destroy", ok)
	api.Post("/orders", "", ok)

	infos := r.Routes()
	assert.Len(t, infos, 2)

	url, err := r.URL("orders.show", map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/42", url)

	_, err = r.URL("orders.show", nil)
	assert.Error(t, err)

	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutesAreSortedAndNamesUnique(t *testing.T) {
	r := router.New()
	api := r.Group("/api")
	api.Patch("/orders/{id}", "orders.update", ok)
	api.Get("/orders/{id}", "orders.show", ok)
	api.Get("/orders", "orders.index", ok)

	infos := r.Routes()
	require.Len(t, infos, 3)
	assert.Equal(t, "orders.index", infos[0].Name)
	assert.Equal(t, http.MethodGet, infos[1].Method)
	assert.Equal(t, http.MethodPatch, infos[2].Method)

	assert.Panics(t, func() { api.Post("/orders", "orders.index", ok) })
}
