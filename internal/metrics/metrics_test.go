package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/events"
	"github.com/kotpos/api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publish(t *testing.T, m *metrics.Metrics, typ events.Type, payload any) {
	t.Helper()
	e, err := events.New(typ, payload)
	require.NoError(t, err)
	require.NoError(t, m.Publish(context.Background(), e))
}

func TestPublish_CountsWorkflowEvents(t *testing.T) {
	m := metrics.New()

	publish(t, m, events.KotCreated, map[string]any{"kot": database.Kot{Type: database.KotTypeBar}})
	publish(t, m, events.KotCreated, map[string]any{"kot": database.Kot{Type: database.KotTypeBar}})
	publish(t, m, events.KotStatusChanged, database.Kot{Status: database.KotStatusProcessing})
	publish(t, m, events.StockAdditionApproved, map[string]string{})
	publish(t, m, events.BillCreated, map[string]string{})

	expected := `
# HELP kotpos_kots_created_total KOTs created, by type.
# TYPE kotpos_kots_created_total counter
kotpos_kots_created_total{type="bar"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "kotpos_kots_created_total"))

	expected = `
# HELP kotpos_workflow_transitions_total Workflow state changes, by entity and target state.
# TYPE kotpos_workflow_transitions_total counter
kotpos_workflow_transitions_total{entity="bill",to="unpaid"} 1
kotpos_workflow_transitions_total{entity="kot",to="pending"} 2
kotpos_workflow_transitions_total{entity="kot",to="processing"} 1
kotpos_workflow_transitions_total{entity="stock_addition",to="approved"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "kotpos_workflow_transitions_total"))
}

func TestMiddleware_ObservesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/bills/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/bills/123", nil))

	count, err := testutil.GatherAndCount(m.Registry(), "kotpos_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `route="/api/bills/{id}"`)
	assert.Contains(t, rr.Body.String(), `status="418"`)
}
