package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New("loft-be")

	m.ObserveRequest(http.MethodGet, "/api/currencies", http.StatusOK, 15*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/currencies", http.StatusOK, 5*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/api/currencies", http.StatusForbidden, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("loft-be", "GET", "/api/currencies", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statuses.WithLabelValues("loft-be", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statuses.WithLabelValues("loft-be", "4xx")))
}

func TestDomainCounters(t *testing.T) {
	m := New("loft-be")

	m.SessionCreated("login")
	m.LoginFailed("invalid_credentials")
	m.TransactionRecorded(true)
	m.TransactionRecorded(false)
	m.TransactionRecorded(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues("loft-be", "login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("loft-be", "invalid_credentials")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues("loft-be", "true")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Second)
		m.SessionCreated("register")
		m.LoginFailed("x")
		m.TransactionRecorded(true)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New("loft-be")
	m.SessionCreated("register")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth_sessions_created_total")
}
