package indicators

import (
	"testing"
	"time"
)

func TestSMA_Calculate(t *testing.T) {
	now := time.Now()
	candles := candlesFromCloses([]float64{1, 2, 3, 4, 5}, now)

	sma := NewSMA(Config{Period: 3})
	got, err := sma.Calculate(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (3.0 + 4.0 + 5.0) / 3.0
	if got != want {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestSMA_Calculate_InsufficientData(t *testing.T) {
	now := time.Now()
	candles := candlesFromCloses([]float64{1, 2}, now)

	sma := NewSMA(Config{Period: 3})
	if _, err := sma.Calculate(candles); err == nil {
		t.Fatal("expected error for insufficient data")
	}
}
