package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	authgate "github.com/pulsekjo/authgate"
)

type fakeSource struct {
	snapshot authgate.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() authgate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func sampleSource() fakeSource {
	return fakeSource{
		snapshot: authgate.MetricsSnapshot{
			Counters: map[authgate.MetricID]uint64{
				authgate.MetricLoginSuccess: 3,
				authgate.MetricLoginFailure: 2,
			},
			Histograms: map[authgate.MetricID][]uint64{
				authgate.MetricLoginLatency: {1, 0, 1, 0, 0, 0, 0, 0},
			},
		},
		dropped: 4,
	}
}

func TestRender_Counters(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(sampleSource())
	out := exporter.Render()

	for _, line := range []string{
		"# TYPE authgate_login_success_total counter",
		"authgate_login_success_total 3",
		"authgate_login_failure_total 2",
		"authgate_otp_issued_total 0",
		"authgate_audit_dropped_total 4",
	} {
		if !strings.Contains(out, line) {
			t.Fatalf("expected line %q in output:\n%s", line, out)
		}
	}
}

func TestRender_HistogramIsCumulative(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(sampleSource())
	out := exporter.Render()

	for _, line := range []string{
		"# TYPE authgate_login_latency_seconds histogram",
		`authgate_login_latency_seconds_bucket{le="0.005"} 1`,
		`authgate_login_latency_seconds_bucket{le="0.025"} 2`,
		`authgate_login_latency_seconds_bucket{le="+Inf"} 2`,
		"authgate_login_latency_seconds_count 2",
	} {
		if !strings.Contains(out, line) {
			t.Fatalf("expected line %q in output:\n%s", line, out)
		}
	}
}

func TestRender_EmptySourceRendersNothing(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authgate.MetricsSnapshot{
			Counters:   map[authgate.MetricID]uint64{},
			Histograms: map[authgate.MetricID][]uint64{},
		},
	})
	if out := exporter.Render(); out != "" {
		t.Fatalf("expected empty output, got:\n%s", out)
	}
}

func TestHandler_ServesTextFormat(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(sampleSource())

	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "authgate_login_success_total 3") {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}
}

func TestRender_NilExporterSafe(t *testing.T) {
	var exporter *PrometheusExporter
	if out := exporter.Render(); out != "" {
		t.Fatalf("expected empty output from nil exporter, got %q", out)
	}
}
