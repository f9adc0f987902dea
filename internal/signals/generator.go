package signals

import (
	"dexswingbot/internal/domain"
	"dexswingbot/internal/strategy/indicators"
)

// Result carries the emitted Signal plus a log-only rationale string; the
// core never branches on Reason, only on Signal.
type Result struct {
	Signal domain.Signal
	Reason string
}

// Generate is a pure function from an ascending candle window and a
// per-symbol Config to a signal. containsBackfill tells the uniformity
// check which tolerance to apply.
func Generate(candles []domain.Candle, cfg Config, containsBackfill bool) Result {
	needed := cfg.SamplesNeeded()
	if len(candles) < needed {
		return Result{Signal: domain.SignalHold, Reason: "warming up"}
	}

	if !ValidateUniformity(candles, containsBackfill) {
		return Result{Signal: domain.SignalHold, Reason: "non-uniform candle series"}
	}

	rsi := indicators.NewRSI(indicators.Config{Period: cfg.RSIPeriod})
	rsiSeries, err := rsi.CalculateSeries(candles)
	if err != nil || len(rsiSeries) < 2 {
		return Result{Signal: domain.SignalHold, Reason: "insufficient data for RSI"}
	}
	currentRSI := rsiSeries[len(rsiSeries)-1]
	previousRSI := rsiSeries[len(rsiSeries)-2]

	shortMA, err := indicators.NewSMA(indicators.Config{Period: cfg.ShortMAPeriod}).Calculate(candles)
	if err != nil {
		return Result{Signal: domain.SignalHold, Reason: "insufficient data for short MA"}
	}
	longMA, err := indicators.NewSMA(indicators.Config{Period: cfg.LongMAPeriod}).Calculate(candles)
	if err != nil {
		return Result{Signal: domain.SignalHold, Reason: "insufficient data for long MA"}
	}
	ma20, err := indicators.NewSMA(indicators.Config{Period: cfg.MA20Period}).Calculate(candles)
	if err != nil {
		return Result{Signal: domain.SignalHold, Reason: "insufficient data for MA20"}
	}

	if shortMA == 0 || longMA == 0 {
		return Result{Signal: domain.SignalHold, Reason: "moving average undefined"}
	}

	lastClose := candles[len(candles)-1].Close
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		volumes[i] = c.Volume
	}

	momentumBuy := evaluateMomentumBuy(volumes, lastClose, currentRSI, previousRSI, shortMA, longMA, ma20, cfg)
	momentumSell := currentRSI > cfg.RSIOverbought && shortMA < longMA
	panicBuy := evaluatePanicBuy(candles, volumes, lastClose, currentRSI, cfg)

	return resolveSignal(momentumBuy, panicBuy, momentumSell)
}

// resolveSignal applies the priority rule: a panic buy supersedes
// a plain momentum buy, and a simultaneous Buy+Sell condition resolves to
// Sell.
func resolveSignal(momentumBuy, panicBuy, momentumSell bool) Result {
	buy := momentumBuy || panicBuy

	switch {
	case momentumSell && buy:
		return Result{Signal: domain.SignalSell, Reason: "tie resolved in favor of sell"}
	case panicBuy:
		return Result{Signal: domain.SignalBuy, Reason: "panic buy"}
	case momentumBuy:
		return Result{Signal: domain.SignalBuy, Reason: "momentum buy"}
	case momentumSell:
		return Result{Signal: domain.SignalSell, Reason: "momentum sell"}
	default:
		return Result{Signal: domain.SignalHold, Reason: "no condition met"}
	}
}

// volumeSpike reports whether the final volume exceeds mean(volumes)*threshold.
// If every volume in the window is zero (all-backfilled window), the spike
// is undefined; the caller decides whether that counts as neutral or a hard
// gate.
func volumeSpike(volumes []float64, threshold float64) (spike bool, hasData bool) {
	allZero := true
	var sum float64
	for _, v := range volumes {
		if v != 0 {
			allZero = false
		}
		sum += v
	}
	if allZero {
		return false, false
	}
	mean := sum / float64(len(volumes))
	if mean == 0 {
		return false, true
	}
	last := volumes[len(volumes)-1]
	return last > mean*threshold, true
}

// evaluateMomentumBuy implements the >=3-of-4 momentum entry rule. A
// volume-spike condition that can't be computed (all-zero window) is
// neutral: it drops out of both the numerator and denominator of the
// "how many of N conditions" count.
func evaluateMomentumBuy(volumes []float64, lastClose, currentRSI, previousRSI, shortMA, longMA, ma20 float64, cfg Config) bool {
	if currentRSI >= cfg.RSIOversold {
		return false
	}

	conditions := 0

	if shortMA > longMA {
		conditions++
	}
	if lastClose > ma20 {
		conditions++
	}
	if currentRSI > previousRSI {
		conditions++
	}

	if spike, hasVolumeData := volumeSpike(volumes, cfg.VolumeThreshold); hasVolumeData && spike {
		conditions++
	}

	return conditions >= 3
}

// evaluatePanicBuy implements the four all-required panic-buy conditions.
// Unlike momentum, an all-zero volume window is a hard gate: panic buy
// cannot trigger at all without volume confirmation.
func evaluatePanicBuy(candles []domain.Candle, volumes []float64, lastClose, currentRSI float64, cfg Config) bool {
	if !cfg.EnablePanicBuy {
		return false
	}
	if len(candles) <= cfg.PanicWindowBars {
		return false
	}

	spike, hasVolumeData := volumeSpike(volumes, cfg.VolumeThreshold)
	if !hasVolumeData || !spike {
		return false
	}

	if currentRSI >= cfg.PanicRSIThreshold {
		return false
	}

	window := candles[len(candles)-cfg.PanicWindowBars:]
	maxHigh := window[0].High
	for _, c := range window[1:] {
		if c.High > maxHigh {
			maxHigh = c.High
		}
	}
	if maxHigh <= 0 {
		return false
	}
	drop := (maxHigh - lastClose) / maxHigh
	return drop >= cfg.PanicPriceDropPct
}
