package analysis

import (
	"context"
	"fmt"
	"testing"

	"ridge/internal/config"
	"ridge/internal/gateway/database"
	"ridge/internal/market"
	"ridge/internal/store"
)

type fakeSource struct {
	valid    bool
	price    float64
	series   market.TimeframeSeries
	fetchErr error
}

func (f *fakeSource) ValidateSymbol(ctx context.Context, symbol string) (bool, error) {
	return f.valid, nil
}

func (f *fakeSource) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	return f.price, nil
}

func (f *fakeSource) FetchAllTimeframes(ctx context.Context, symbol string) (market.TimeframeSeries, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.series, nil
}

type fakeAudit struct {
	records []database.AnalysisRecord
}

func (f *fakeAudit) LogAnalysis(ctx context.Context, rec database.AnalysisRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func mkCandle(i int, o, h, l, c float64) market.Candle {
	return market.Candle{
		OpenTime: int64(i) * 3_600_000,
		Open:     o, High: h, Low: l, Close: c,
	}
}

// 含一个 pivot high 的短序列，保证检测能产出至少一个阻力区间。
func resistanceSeries() []market.Candle {
	return []market.Candle{
		mkCandle(0, 100, 101, 99, 100.5),
		mkCandle(1, 100.5, 102, 100, 101),
		mkCandle(2, 103, 107, 101, 101),
		mkCandle(3, 101, 102, 99.5, 100),
		mkCandle(4, 100, 101, 98, 99),
		mkCandle(5, 99, 100, 97, 98),
		mkCandle(6, 98, 99, 96, 97),
	}
}

func newTestService(src MarketSource, audit AuditLog) (*Service, *store.MemoryKlineStore) {
	cfg, _ := config.Load("")
	ks := store.NewMemoryKlineStore()
	return NewService(ServiceParams{
		Config:     cfg,
		Source:     src,
		KlineStore: ks,
		Audit:      audit,
	}), ks
}

func TestAnalyzeHappyPath(t *testing.T) {
	src := &fakeSource{
		valid: true,
		price: 98.0,
		series: market.TimeframeSeries{
			"1h":  resistanceSeries(),
			"4h":  resistanceSeries(),
			"12h": nil,
		},
	}
	audit := &fakeAudit{}
	svc, ks := newTestService(src, audit)

	res, err := svc.Analyze(context.Background(), Request{Symbol: "vetusdt", Timeframe: "4h", ChatID: 42})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Symbol != "VETUSDT" {
		t.Errorf("symbol = %q", res.Symbol)
	}
	if res.Timeframe != "4h" {
		t.Errorf("timeframe = %q", res.Timeframe)
	}
	if res.Price != 98.0 {
		t.Errorf("price = %v", res.Price)
	}
	if res.RequestID == "" {
		t.Error("request id empty")
	}
	if len(res.Candles) != len(resistanceSeries()) {
		t.Errorf("candles len = %d", len(res.Candles))
	}
	if res.ZonesTotal() == 0 {
		t.Error("expected at least one zone")
	}
	// 区间必须带 timeframe 标签
	for tf, zs := range res.ZonesByTF {
		for _, z := range zs {
			if z.Timeframe != tf {
				t.Errorf("zone timeframe = %q, want %q", z.Timeframe, tf)
			}
		}
	}
	if len(res.Nearest.Resistance) == 0 {
		t.Error("price below zone, expected resistance candidates")
	}

	// K 线已落缓存
	cached, err := ks.Get(context.Background(), "VETUSDT", "1h")
	if err != nil || len(cached) != len(resistanceSeries()) {
		t.Errorf("cache get: len=%d err=%v", len(cached), err)
	}

	// 留痕
	if len(audit.records) != 1 {
		t.Fatalf("audit records = %d", len(audit.records))
	}
	rec := audit.records[0]
	if rec.Symbol != "VETUSDT" || rec.ChatID != 42 || rec.ID != res.RequestID {
		t.Errorf("unexpected audit record: %+v", rec)
	}
	if rec.ZonesTotal != res.ZonesTotal() {
		t.Errorf("audit zones = %d, want %d", rec.ZonesTotal, res.ZonesTotal())
	}
}

func TestAnalyzeDefaultTimeframe(t *testing.T) {
	src := &fakeSource{valid: true, price: 100, series: market.TimeframeSeries{"4h": resistanceSeries()}}
	svc, _ := newTestService(src, nil)
	res, err := svc.Analyze(context.Background(), Request{Symbol: "VETUSDT"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Timeframe != "4h" {
		t.Errorf("timeframe = %q, want config default 4h", res.Timeframe)
	}
}

func TestAnalyzeRejectsUnknownSymbol(t *testing.T) {
	svc, _ := newTestService(&fakeSource{valid: false}, nil)
	if _, err := svc.Analyze(context.Background(), Request{Symbol: "NOPEUSDT"}); err == nil {
		t.Fatal("expected error for unknown symbol")
	}
}

func TestAnalyzeRejectsUnsupportedTimeframe(t *testing.T) {
	svc, _ := newTestService(&fakeSource{valid: true}, nil)
	if _, err := svc.Analyze(context.Background(), Request{Symbol: "VETUSDT", Timeframe: "3m"}); err == nil {
		t.Fatal("expected error for unsupported timeframe")
	}
}

func TestAnalyzePropagatesFetchError(t *testing.T) {
	src := &fakeSource{valid: true, fetchErr: fmt.Errorf("network down")}
	svc, _ := newTestService(src, nil)
	if _, err := svc.Analyze(context.Background(), Request{Symbol: "VETUSDT"}); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}
