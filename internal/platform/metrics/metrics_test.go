package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveDirectoryLoad("live", 1)
	m.IncProfilesCreated()
	m.IncApprovalChange(true)
	m.IncAssetCleanup(false)
	m.IncSignIn("ok")
	m.ObserveHTTP("GET", "/directory", 200, time.Millisecond)
	assert.Nil(t, m.Registry())
}

func TestMetrics_RecordsAndExposes(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveDirectoryLoad("placeholder", 3)
	m.IncApprovalChange(true)
	m.IncApprovalChange(false)
	m.IncApprovalChange(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DirectoryLoads.WithLabelValues("placeholder")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DirectoryAttempts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ApprovalChanges.WithLabelValues("true")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "lawyer_directory_loads_total"))
}
