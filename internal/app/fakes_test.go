package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"dexswingbot/internal/domain"
	"dexswingbot/internal/ports"
)

// fakeLogger is a minimal in-memory ports.Logger, a hand-rolled fake rather
// than a mocking library.
type fakeLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *fakeLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (l *fakeLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (l *fakeLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
func (l *fakeLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

// fakeCandleStore is an in-memory ports.CandleStore.
type fakeCandleStore struct {
	mu      sync.Mutex
	bySym   map[string][]domain.Candle
	saveErr error
}

func newFakeCandleStore() *fakeCandleStore {
	return &fakeCandleStore{bySym: make(map[string][]domain.Candle)}
}

func (f *fakeCandleStore) SaveCandles(ctx context.Context, symbol string, candles []domain.Candle) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.bySym[symbol]
	for _, c := range candles {
		replaced := false
		for i, e := range existing {
			if c.IsDuplicateOf(e) {
				existing[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, c)
		}
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].Timestamp.Before(existing[j].Timestamp) })
	f.bySym[symbol] = existing
	return nil
}

func (f *fakeCandleStore) LoadCandles(ctx context.Context, symbol string, hoursBack time.Duration) ([]domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().UTC().Add(-hoursBack)
	out := make([]domain.Candle, 0)
	for _, c := range f.bySym[symbol] {
		if !c.Timestamp.Before(cutoff) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCandleStore) CountSnapshots(ctx context.Context, symbol string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bySym[symbol]), nil
}

func (f *fakeCandleStore) CleanupOld(ctx context.Context, symbol string, keepHours time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().UTC().Add(-keepHours)
	kept := make([]domain.Candle, 0)
	removed := 0
	for _, c := range f.bySym[symbol] {
		if c.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	f.bySym[symbol] = kept
	return removed, nil
}

func (f *fakeCandleStore) Timestamps(ctx context.Context, symbol string) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Time, 0, len(f.bySym[symbol]))
	for _, c := range f.bySym[symbol] {
		out = append(out, c.Timestamp)
	}
	return out, nil
}

// fakePositionStore is an in-memory ports.PositionStore.
type fakePositionStore struct {
	mu  sync.Mutex
	all map[string]*domain.Position
}

func newFakePositionStore() *fakePositionStore {
	return &fakePositionStore{all: make(map[string]*domain.Position)}
}

func (f *fakePositionStore) Insert(ctx context.Context, pos *domain.Position) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *pos
	f.all[pos.ID] = &cp
	return nil
}

func (f *fakePositionStore) Update(ctx context.Context, pos *domain.Position) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *pos
	f.all[pos.ID] = &cp
	return nil
}

func (f *fakePositionStore) LoadOpen(ctx context.Context, userID string) ([]*domain.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Position, 0)
	for _, p := range f.all {
		if p.UserID == userID && p.IsOpen() {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePositionStore) LoadClosed(ctx context.Context, userID string, since time.Time) ([]*domain.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Position, 0)
	for _, p := range f.all {
		if p.UserID == userID && !p.IsOpen() && p.ExitTime != nil && !p.ExitTime.Before(since) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExitTime.After(*out[j].ExitTime) })
	return out, nil
}

func (f *fakePositionStore) FindOpenBySymbol(ctx context.Context, userID, symbol string) (*domain.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.all {
		if p.UserID == userID && p.Symbol == symbol && p.IsOpen() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeTokenRegistry is an in-memory ports.TokenRegistry.
type fakeTokenRegistry struct {
	mu   sync.Mutex
	byID map[string]*domain.TrackedToken // keyed by address
}

func newFakeTokenRegistry() *fakeTokenRegistry {
	return &fakeTokenRegistry{byID: make(map[string]*domain.TrackedToken)}
}

func (f *fakeTokenRegistry) ListActive(ctx context.Context) ([]*domain.TrackedToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.TrackedToken, 0)
	for _, t := range f.byID {
		if t.Status == domain.TokenActive {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTokenRegistry) ListActiveWithPositions(ctx context.Context, openSymbols map[string]struct{}) ([]*domain.TrackedToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.TrackedToken, 0)
	for _, t := range f.byID {
		_, open := openSymbols[t.Symbol]
		if t.Status == domain.TokenActive || open {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTokenRegistry) Upsert(ctx context.Context, token *domain.TrackedToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	cp.Status = domain.TokenActive
	cp.LastSeenTrending = time.Now().UTC()
	f.byID[token.Address] = &cp
	return nil
}

func (f *fakeTokenRegistry) MarkStaleBefore(ctx context.Context, cutoff time.Time, protected map[string]struct{}) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, t := range f.byID {
		if _, ok := protected[t.Symbol]; ok {
			continue
		}
		if t.Status == domain.TokenActive && t.LastSeenTrending.Before(cutoff) {
			t.Status = domain.TokenStale
			count++
		}
	}
	return count, nil
}

func (f *fakeTokenRegistry) MarkRemovedBefore(ctx context.Context, cutoff time.Time, protected map[string]struct{}) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, t := range f.byID {
		if _, ok := protected[t.Symbol]; ok {
			continue
		}
		if t.Status == domain.TokenStale && t.LastSeenTrending.Before(cutoff) {
			t.Status = domain.TokenRemoved
			count++
		}
	}
	return count, nil
}

func (f *fakeTokenRegistry) UpdateStrategyConfig(ctx context.Context, symbol, config string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.Symbol == symbol {
			t.StrategyConfig = config
		}
	}
	return nil
}

func (f *fakeTokenRegistry) EvictOldestActive(ctx context.Context, maxActive int, protected map[string]struct{}) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	active := make([]*domain.TrackedToken, 0)
	for _, t := range f.byID {
		if t.Status == domain.TokenActive {
			active = append(active, t)
		}
	}
	unprotected := make([]*domain.TrackedToken, 0)
	for _, t := range active {
		if _, ok := protected[t.Symbol]; !ok {
			unprotected = append(unprotected, t)
		}
	}
	excess := len(active) - maxActive
	if excess <= 0 || len(unprotected) == 0 {
		return 0, nil
	}
	if excess > len(unprotected) {
		excess = len(unprotected)
	}
	sort.Slice(unprotected, func(i, j int) bool {
		return unprotected[i].LastSeenTrending.Before(unprotected[j].LastSeenTrending)
	})
	for _, t := range unprotected[:excess] {
		t.Status = domain.TokenStale
	}
	return excess, nil
}

// fakeQuoteProvider is an in-memory ports.LiveQuoteProvider.
type fakeQuoteProvider struct {
	mu      sync.Mutex
	byAddr  map[string]ports.Quote
	errAddr map[string]error
	calls   int
}

func newFakeQuoteProvider() *fakeQuoteProvider {
	return &fakeQuoteProvider{byAddr: make(map[string]ports.Quote), errAddr: make(map[string]error)}
}

func (f *fakeQuoteProvider) GetQuote(ctx context.Context, address string) (ports.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errAddr[address]; ok {
		return ports.Quote{}, err
	}
	return f.byAddr[address], nil
}

// fakeDiscoveryProvider is an in-memory ports.DiscoveryProvider.
type fakeDiscoveryProvider struct {
	candidates []ports.TrendingCandidate
	err        error
}

func (f *fakeDiscoveryProvider) GetTrending(ctx context.Context, limit int) ([]ports.TrendingCandidate, error) {
	return f.candidates, f.err
}

// fakeHistoricalProvider is an in-memory ports.HistoricalProvider.
type fakeHistoricalProvider struct {
	externalIDs map[string]string
	series      map[string]ports.HistoricalSeries
}

func (f *fakeHistoricalProvider) ResolveExternalID(ctx context.Context, symbol, address string) (string, error) {
	if id, ok := f.externalIDs[address]; ok {
		return id, nil
	}
	return "", ports.ErrTokenNotFound
}

func (f *fakeHistoricalProvider) GetMarketChart(ctx context.Context, externalID string, days int) (ports.HistoricalSeries, error) {
	return f.series[externalID], nil
}
