package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestMetricsExposition(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := New()
	m.ObserveBatch(20*time.Millisecond, 5, 2)
	m.ObserveImport("weekly_volume", true)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("ping status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	text := string(body)

	for _, want := range []string{
		"labpulse_offices_aggregated_total 5",
		"labpulse_repository_failures_total 2",
		`labpulse_imports_total{outcome="success",type="weekly_volume"} 1`,
		`labpulse_http_requests_total{route="/ping",status="200"} 1`,
		"labpulse_aggregation_batch_duration_seconds_count 1",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveBatch(time.Second, 1, 1)
	m.ObserveImport("offices", false)
}
