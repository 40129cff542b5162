package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDispatchMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)

	m.RecordTurn("collecting", "ok")
	m.RecordExtraction("empty")
	m.RecordSubmission()
	m.RecordNegotiation("accept", "accepted")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 4 {
		t.Fatalf("expected 4 metric families, got %d", len(families))
	}
}

func TestDispatchMetricsNilSafe(t *testing.T) {
	var m *DispatchMetrics
	m.RecordTurn("idle", "ok")
	m.RecordExtraction("ok")
	m.RecordSubmission()
	m.RecordNegotiation("reject", "rejected")
}
