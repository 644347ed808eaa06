package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

type writableMetric interface {
	Write(*dto.Metric) error
}

func writeMetric(t *testing.T, m writableMetric) *dto.Metric {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return &out
}

func counterValue(t *testing.T, c writableMetric) float64 {
	t.Helper()
	return writeMetric(t, c).GetCounter().GetValue()
}

func TestBlocksAppliedIncrements(t *testing.T) {
	before := counterValue(t, BlocksApplied)
	BlocksApplied.Add(3)
	after := counterValue(t, BlocksApplied)
	if after-before != 3 {
		t.Errorf("BlocksApplied increased by %v, want 3", after-before)
	}
}

func TestHeadersClassifiedIsLabeledByOutcome(t *testing.T) {
	before := counterValue(t, HeadersClassified.WithLabelValues("continues"))
	HeadersClassified.WithLabelValues("continues").Inc()
	after := counterValue(t, HeadersClassified.WithLabelValues("continues"))
	if after-before != 1 {
		t.Errorf("HeadersClassified{continues} increased by %v, want 1", after-before)
	}

	// A distinct label value must have its own counter.
	otherBefore := counterValue(t, HeadersClassified.WithLabelValues("useless"))
	if otherBefore == before+1 {
		t.Error("HeadersClassified{useless} moved in lockstep with {continues}; labels are not independent")
	}
}

func TestVerifyBlocksDurationObserves(t *testing.T) {
	VerifyBlocksDuration.WithLabelValues("ok").Observe(0.01)
	m := writeMetric(t, VerifyBlocksDuration.WithLabelValues("ok").(writableMetric))
	if m.GetHistogram().GetSampleCount() == 0 {
		t.Error("VerifyBlocksDuration{ok} recorded no samples after Observe()")
	}
}
