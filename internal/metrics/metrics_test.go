package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestImportsCounter(t *testing.T) {
	before := testutil.ToFloat64(ImportsTotal.WithLabelValues("kmz", OutcomeOK))
	ImportsTotal.WithLabelValues("kmz", OutcomeOK).Inc()
	if got := testutil.ToFloat64(ImportsTotal.WithLabelValues("kmz", OutcomeOK)); got != before+1 {
		t.Errorf("expected counter %v, got %v", before+1, got)
	}
}

func TestHandler(t *testing.T) {
	CandidatesTotal.Add(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "farmgeo_candidates_total") {
		t.Errorf("expected candidates metric in output")
	}
}
