package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveFlush("data/users", nil)
	m.ObserveFlush("data/users", nil)
	m.ObserveFlush("data/users", errors.New("offline"))
	m.ObserveSettlement(285, 2)
	m.ObserveSettlement(0, 0)
	m.ObserveSnapshot("settings/menu")
	m.ObserveLogin("throttled")
	m.ObservePublish(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.storeFlushes.WithLabelValues("data/users", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeFlushes.WithLabelValues("data/users", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.settlements))
	assert.Equal(t, 285.0, testutil.ToFloat64(m.settledAmount))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.orphanedRefs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotsReceived.WithLabelValues("settings/menu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("throttled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues("ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFlush("data/users", nil)
		m.ObserveSettlement(1, 1)
		m.SetOrphanedReferences(3)
		m.ObserveSnapshot("data/users")
		m.ObserveLogin("ok")
		m.ObservePublish(nil)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveSettlement(95, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "bentoledger_settlements_total 1"))
	assert.True(t, strings.Contains(body, "bentoledger_settled_amount_total 95"))
}
