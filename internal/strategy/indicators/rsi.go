package indicators

import (
	"fmt"

	"dexswingbot/internal/domain"
)

// RSI implements the Relative Strength Index using Wilder's smoothing.
type RSI struct {
	config Config
}

// NewRSI creates an RSI indicator with the given period.
func NewRSI(config Config) *RSI {
	return &RSI{config: config}
}

// Name returns the indicator's name.
func (r *RSI) Name() string { return "RSI" }

// RequiredDataPoints returns the minimum candle count Calculate needs.
func (r *RSI) RequiredDataPoints() int { return r.config.Period + 1 }

// Calculate computes the RSI value over the full candle slice using Wilder's
// smoothing: an initial simple average over the first Period changes,
// followed by exponential smoothing for the rest. Returns an error if there
// are not enough candles.
func (r *RSI) Calculate(candles []domain.Candle) (float64, error) {
	period := r.config.Period
	if len(candles) <= period {
		return 0, fmt.Errorf("not enough data (%d) to calculate RSI for period %d", len(candles), period)
	}

	changes := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		changes = append(changes, candles[i].Close-candles[i-1].Close)
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		if changes[i] > 0 {
			avgGain += changes[i]
		} else {
			avgLoss -= changes[i]
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period; i < len(changes); i++ {
		if changes[i] > 0 {
			avgGain = (avgGain*float64(period-1) + changes[i]) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - changes[i]) / float64(period)
		}
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}
		return 100, nil
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))
	if rsi > 100 {
		rsi = 100
	} else if rsi < 0 {
		rsi = 0
	}
	return rsi, nil
}

// CalculateSeries returns the RSI value at every index from period onward,
// which the signal generator uses to compare RSI_current against
// RSI_previous (the "rising" momentum condition).
func (r *RSI) CalculateSeries(candles []domain.Candle) ([]float64, error) {
	if len(candles) <= r.config.Period {
		return nil, fmt.Errorf("not enough data (%d) to calculate RSI series for period %d", len(candles), r.config.Period)
	}
	out := make([]float64, 0, len(candles)-r.config.Period)
	for end := r.config.Period + 1; end <= len(candles); end++ {
		v, err := r.Calculate(candles[:end])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
