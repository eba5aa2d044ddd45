package metrics

import "testing"

func TestValueSizeHistogramAverageAndCount(t *testing.T) {
	h := NewValueSizeHistogram()
	for _, size := range []int{10, 20, 30, 1000} {
		h.AddSample(size)
	}

	if h.Count() != 4 {
		t.Fatalf("expected 4 samples, got %d", h.Count())
	}
	avg := h.AverageSize()
	if avg <= 0 {
		t.Fatalf("expected a positive average, got %d", avg)
	}
}

func TestValueSizeHistogramResetClears(t *testing.T) {
	h := NewValueSizeHistogram()
	h.AddSample(100)
	h.Reset()
	if h.Count() != 0 {
		t.Fatalf("expected Reset to clear the sample count")
	}
	if h.AverageSize() != 0 {
		t.Fatalf("expected AverageSize of 0 after Reset")
	}
}

func TestValueSizeHistogramPercentileEstimateBounds(t *testing.T) {
	h := NewValueSizeHistogram()
	if h.PercentileEstimate(50) != 0 {
		t.Fatalf("expected 0 from an empty histogram")
	}
	h.AddSample(50)
	if h.PercentileEstimate(-1) != 0 || h.PercentileEstimate(101) != 0 {
		t.Fatalf("expected out-of-range percentiles to return 0")
	}
	if h.PercentileEstimate(50) <= 0 {
		t.Fatalf("expected a positive estimate for a populated histogram")
	}
}
