package domain

import (
	"fmt"
	"time"
)

// Candle is a single OHLCV bar for a symbol, second-precision timestamp.
// Live snapshot candles carry the quoted price as Close, Open chained from
// the previous candle's Close (or equal to Close when there is none), and
// High/Low as the larger/smaller of the two; backfilled candles carry
// genuine O/H/L/C and a zero Volume (see package backfill).
type Candle struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// DuplicateWindow is how close two candle timestamps must be to be
// considered the same bar for overlap/idempotence purposes.
const DuplicateWindow = 60 * time.Second

// Validate checks the OHLC invariants from the data model: low <= min(open,
// close) <= max(open,close) <= high, strictly positive prices, non-negative
// volume, and a timestamp not meaningfully in the future.
func (c Candle) Validate(now time.Time) error {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("candle %s@%s: prices must be strictly positive", c.Symbol, c.Timestamp)
	}
	minOC := min(c.Open, c.Close)
	maxOC := max(c.Open, c.Close)
	if c.Low > minOC || maxOC > c.High {
		return fmt.Errorf("candle %s@%s: OHLC invariant violated (O=%v H=%v L=%v C=%v)",
			c.Symbol, c.Timestamp, c.Open, c.High, c.Low, c.Close)
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle %s@%s: volume must be non-negative", c.Symbol, c.Timestamp)
	}
	if c.Timestamp.After(now.Add(5 * time.Second)) {
		return fmt.Errorf("candle %s@%s: timestamp is in the future", c.Symbol, c.Timestamp)
	}
	return nil
}

// IsDuplicateOf reports whether c and other fall within DuplicateWindow of
// each other for the same symbol.
func (c Candle) IsDuplicateOf(other Candle) bool {
	if c.Symbol != other.Symbol {
		return false
	}
	delta := c.Timestamp.Sub(other.Timestamp)
	if delta < 0 {
		delta = -delta
	}
	return delta <= DuplicateWindow
}
