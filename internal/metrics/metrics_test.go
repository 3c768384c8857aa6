package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.StorageOp("get", ResultOK)
		c.CorruptRead("cart")
		c.Migrated(3)
		c.WriteBack()
		c.Event("cart.updated")
		c.HTTPRequest("GET", "/products", 200, time.Millisecond)
	})
	assert.Nil(t, c.Registry())
}

func TestCounters(t *testing.T) {
	c := New("", nil)

	c.StorageOp("get", ResultOK)
	c.StorageOp("get", ResultOK)
	c.StorageOp("get", ResultMiss)
	c.CorruptRead("cart")
	c.Migrated(2)
	c.Migrated(0)
	c.WriteBack()
	c.Event("cart.updated")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.storageOps.WithLabelValues("get", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storageOps.WithLabelValues("get", ResultMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.corruptReads.WithLabelValues("cart")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.migrated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.writeBacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("cart.updated")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New("shoptest", nil)
	c.HTTPRequest("GET", "/products", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "shoptest_http_requests_total"))
}
