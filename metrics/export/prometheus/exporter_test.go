package prometheus_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	authcore "github.com/campuskit/authcore"
	"github.com/campuskit/authcore/metrics/export/prometheus"
)

type fakeSource struct {
	snapshot authcore.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() authcore.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func TestRenderExposition(t *testing.T) {
	source := fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{
				authcore.MetricLoginSuccess: 7,
				authcore.MetricLoginFailure: 3,
			},
			Histograms: map[authcore.MetricID][]uint64{
				authcore.MetricValidateLatency: {2, 1, 0, 0, 0, 0, 0, 1},
			},
		},
		dropped: 5,
	}

	out := prometheus.NewExporterFromSource(source).Render()

	wantLines := []string{
		"# TYPE authcore_login_success_total counter",
		"authcore_login_success_total 7",
		"authcore_login_failure_total 3",
		"# TYPE authcore_validate_latency_seconds histogram",
		`authcore_validate_latency_seconds_bucket{le="0.005"} 2`,
		`authcore_validate_latency_seconds_bucket{le="0.01"} 3`,
		`authcore_validate_latency_seconds_bucket{le="+Inf"} 4`,
		"authcore_validate_latency_seconds_count 4",
		"authcore_audit_dropped_total 5",
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line) {
			t.Errorf("exposition missing %q", line)
		}
	}
}

func TestRenderEmptySource(t *testing.T) {
	out := prometheus.NewExporterFromSource(fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters:   map[authcore.MetricID]uint64{},
			Histograms: map[authcore.MetricID][]uint64{},
		},
	}).Render()

	if out != "" {
		t.Fatalf("expected empty exposition, got %q", out)
	}
}

func TestHandlerServesText(t *testing.T) {
	source := fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters:   map[authcore.MetricID]uint64{authcore.MetricLogout: 1},
			Histograms: map[authcore.MetricID][]uint64{},
		},
	}

	rec := httptest.NewRecorder()
	prometheus.NewExporterFromSource(source).Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("content type = %q", got)
	}
	body, _ := io.ReadAll(rec.Result().Body)
	if !strings.Contains(string(body), "authcore_logout_total 1") {
		t.Fatalf("body missing logout counter: %s", body)
	}
}
