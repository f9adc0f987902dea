// Package signals implements the signal generator: a pure function from a
// candle window and per-symbol configuration to a Buy/Sell/Hold signal.
package signals

import "time"

// BarInterval is the fixed candle width the whole engine operates on.
const BarInterval = 5 * time.Minute

// Config is the per-symbol tunable signal configuration.
type Config struct {
	RSIPeriod       int
	RSIOversold     float64
	RSIOverbought   float64
	ShortMAPeriod   int
	LongMAPeriod    int
	MA20Period      int
	VolumeThreshold float64
	LookbackHours   int

	EnablePanicBuy    bool
	PanicRSIThreshold float64
	PanicPriceDropPct float64
	PanicWindowBars   int
}

// DefaultConfig returns typical production values.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:       14,
		RSIOversold:     30,
		RSIOverbought:   70,
		ShortMAPeriod:   10,
		LongMAPeriod:    20,
		MA20Period:      20,
		VolumeThreshold: 1.5,
		LookbackHours:   24,

		EnablePanicBuy:    true,
		PanicRSIThreshold: 50,
		PanicPriceDropPct: 0.10,
		PanicWindowBars:   4,
	}
}

// SamplesNeeded derives the minimum candle-window length from
// LookbackHours, never less than what the slowest indicator requires.
func (c Config) SamplesNeeded() int {
	samples := int(time.Duration(c.LookbackHours) * time.Hour / BarInterval)
	minForIndicators := c.LongMAPeriod + 1
	if samples < minForIndicators {
		return minForIndicators
	}
	return samples
}
