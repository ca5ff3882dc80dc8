package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsCollector_Typeahead(t *testing.T) {
	m := NewMetricsCollector("snackhack", zap.NewNop())

	m.LookupIssued()
	m.LookupIssued()
	m.LookupFailed("validate")
	m.StaleDiscarded("autocomplete")
	m.StaleDiscarded("autocomplete")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.lookupsIssued))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.lookupFailures.WithLabelValues("validate")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.staleDiscarded.WithLabelValues("autocomplete")))
}

func TestMetricsCollector_Session(t *testing.T) {
	m := NewMetricsCollector("snackhack", nil)

	m.RecipeRequestSettled("success", 1200*time.Millisecond)
	m.RecipeRequestSettled("failure", 30*time.Millisecond)
	m.RecipeGuardRejected("COOLDOWN_ACTIVE")
	m.IncompleteRecipes(2)
	m.IncompleteRecipes(0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.recipeRequests.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.guardRejections.WithLabelValues("COOLDOWN_ACTIVE")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.incompleteRecipes))
	assert.Equal(t, 2, testutil.CollectAndCount(m.recipeRequestDuration))
}

func TestMetricsCollector_API(t *testing.T) {
	m := NewMetricsCollector("snackhack", nil)

	m.RequestCompleted("get-recipes", 200, 10*time.Millisecond)
	m.RequestCompleted("get-recipes", 0, time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.apiRequests.WithLabelValues("get-recipes", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.apiRequests.WithLabelValues("get-recipes", "none")))
}

func TestMetricsCollector_IndependentRegistries(t *testing.T) {
	a := NewMetricsCollector("snackhack", nil)
	b := NewMetricsCollector("snackhack", nil)

	a.LookupIssued()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.lookupsIssued))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.lookupsIssued))
}

func TestMetricsCollector_HTTPMiddlewareAndHandler(t *testing.T) {
	m := NewMetricsCollector("stub", nil)

	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Delete("/api/recipes/saved-recipe/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	for _, id := range []string{"1", "2"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/recipes/saved-recipe/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.httpRequestsTotal.WithLabelValues(http.MethodDelete, "/api/recipes/saved-recipe/{id}", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "stub_http_requests_total"))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
