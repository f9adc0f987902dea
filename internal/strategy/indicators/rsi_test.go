package indicators

import (
	"testing"
	"time"

	"dexswingbot/internal/domain"
)

func candlesFromCloses(closes []float64, start time.Time) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{
			Symbol:    "TEST",
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1,
		}
	}
	return out
}

func TestRSI_Calculate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		period        int
		closes        []float64
		expectedValue float64
		expectError   bool
	}{
		{
			name:          "RSI with sufficient data",
			period:        3,
			closes:        []float64{100, 102, 101, 103, 102, 104},
			expectedValue: 77.272727,
		},
		{
			name:        "insufficient data",
			period:      7,
			closes:      []float64{100, 102, 101, 103, 102, 104},
			expectError: true,
		},
		{
			name:          "all gains",
			period:        3,
			closes:        []float64{100, 102, 104, 106},
			expectedValue: 100.0,
		},
		{
			name:          "all losses",
			period:        3,
			closes:        []float64{106, 104, 102, 100},
			expectedValue: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi := NewRSI(Config{Period: tt.period})
			value, err := rsi.Calculate(candlesFromCloses(tt.closes, now))

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := value - tt.expectedValue; diff > 0.0001 || diff < -0.0001 {
				t.Errorf("expected %f, got %f", tt.expectedValue, value)
			}
		})
	}
}

func TestRSI_CalculateSeries_MatchesPointwiseCalculate(t *testing.T) {
	now := time.Now()
	closes := []float64{100, 101, 99, 103, 105, 104, 107, 110, 108, 112}
	candles := candlesFromCloses(closes, now)
	rsi := NewRSI(Config{Period: 3})

	series, err := rsi.CalculateSeries(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != len(candles)-3 {
		t.Fatalf("expected %d series points, got %d", len(candles)-3, len(series))
	}

	last, err := rsi.Calculate(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := series[len(series)-1]; got != last {
		t.Errorf("series tail %f does not match Calculate() %f", got, last)
	}
}
