package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RecordQuery(t *testing.T) {
	r := NewRegistry()

	r.RecordQuery("brute", StatusOK, time.Millisecond, 7)
	r.RecordQuery("brute", StatusOK, time.Millisecond, 3)
	r.RecordQuery("cover", StatusError, time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.QueriesTotal.WithLabelValues("brute", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.QueriesTotal.WithLabelValues("cover", StatusError)))
	assert.Equal(t, 2, testutil.CollectAndCount(r.QueryDuration))
}

func TestRegistry_RecordStaleAndBuild(t *testing.T) {
	r := NewRegistry()
	r.RecordStale()
	r.RecordStale()
	r.RecordBuild("cover", 1234, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.StaleResultsTotal))
	assert.Equal(t, 1234.0, testutil.ToFloat64(r.PointsLoaded))
}

func TestRegistry_Nil(t *testing.T) {
	var r *Registry
	r.RecordQuery("brute", StatusOK, time.Second, 1)
	r.RecordStale()
	r.RecordBuild("brute", 1, time.Second)
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.RecordQuery("vptree", StatusOK, time.Millisecond, 5)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `nnview_queries_total{index="vptree",status="ok"} 1`))
}
