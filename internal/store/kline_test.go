package store

import (
	"context"
	"testing"

	"ridge/internal/market"
)

func candle(i int, close float64) market.Candle {
	return market.Candle{OpenTime: int64(i) * 3_600_000, Close: close}
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKlineStore()
	src := []market.Candle{candle(0, 1), candle(1, 2), candle(2, 3)}
	if err := s.Set(ctx, "VETUSDT", "1h", src); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, "VETUSDT", "1h")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}

	// Set 后修改原 slice 不应影响缓存
	src[0].Close = 999
	got2, _ := s.Get(ctx, "VETUSDT", "1h")
	if got2[0].Close != 1 {
		t.Errorf("store aliased caller slice: close = %v", got2[0].Close)
	}

	// Get 返回的也是拷贝
	got2[1].Close = 888
	got3, _ := s.Get(ctx, "VETUSDT", "1h")
	if got3[1].Close != 2 {
		t.Errorf("Get returned shared slice: close = %v", got3[1].Close)
	}
}

func TestMemorySetReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKlineStore()
	_ = s.Set(ctx, "VETUSDT", "1h", []market.Candle{candle(0, 1), candle(1, 2)})
	_ = s.Set(ctx, "VETUSDT", "1h", []market.Candle{candle(5, 9)})
	got, _ := s.Get(ctx, "VETUSDT", "1h")
	if len(got) != 1 || got[0].Close != 9 {
		t.Errorf("Set should replace, got %+v", got)
	}
}

func TestMemorySetValidates(t *testing.T) {
	s := NewMemoryKlineStore()
	if err := s.Set(context.Background(), "", "1h", nil); err == nil {
		t.Error("expected error for empty symbol")
	}
}

func TestMemoryExport(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKlineStore()
	_ = s.Set(ctx, "VETUSDT", "4h", []market.Candle{candle(0, 1), candle(1, 2), candle(2, 3)})

	got, err := s.Export(ctx, "VETUSDT", "4h", 2)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(got) != 2 || got[0].Close != 2 || got[1].Close != 3 {
		t.Errorf("Export tail = %+v", got)
	}

	all, _ := s.Export(ctx, "VETUSDT", "4h", 10)
	if len(all) != 3 {
		t.Errorf("Export over-limit len = %d", len(all))
	}
	none, _ := s.Export(ctx, "OTHERUSDT", "4h", 5)
	if len(none) != 0 {
		t.Errorf("Export unknown symbol len = %d", len(none))
	}
}
