package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNew_CountersTrackIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.JobsClaimed.Inc()
	m.JobsCompleted.Inc()
	m.JobsCompleted.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var claimed, completed float64
	for _, f := range families {
		switch f.GetName() {
		case "ingestion_jobs_claimed_total":
			claimed = sumCounters(f)
		case "ingestion_jobs_completed_total":
			completed = sumCounters(f)
		}
	}
	if claimed != 1 {
		t.Errorf("claimed = %v, want 1", claimed)
	}
	if completed != 2 {
		t.Errorf("completed = %v, want 2", completed)
	}
}

func sumCounters(f *dto.MetricFamily) float64 {
	var total float64
	for _, m := range f.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}
