package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareCountsStatuses(t *testing.T) {
	c := NewCollector()
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	}
	c.RecordUpstreamFailure("books")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Result().Body)
	out := string(body)

	if !strings.Contains(out, `inkshelf_http_status_total{status_code="418"} 3`) {
		t.Fatalf("expected status counter in output:\n%s", out)
	}
	if !strings.Contains(out, `inkshelf_upstream_failure_total{resource="books"} 1`) {
		t.Fatalf("expected upstream failure counter in output:\n%s", out)
	}
}
