package zone

import (
	"testing"
	"time"

	"ridge/internal/market"
)

// resistanceFixture 在下标 2 形成 pivot high：open=103 close=101 high=107。
// 邻居实体上沿都低于 103，不触发实体避让；后续收盘都低于 103，
// refine 不改变内沿，区间应保持 [103,107]。
func resistanceFixture() []market.Candle {
	return []market.Candle{
		mkCandle(0, 99, 100, 98, 100),
		mkCandle(1, 100, 101, 99, 101),
		mkCandle(2, 103, 107, 100, 101),
		mkCandle(3, 101, 102, 98, 99),
		mkCandle(4, 99, 99.5, 97, 98),
		mkCandle(5, 98, 98.5, 96, 97),
		mkCandle(6, 97, 97.5, 95.5, 96),
	}
}

func findResistance(zones []Zone, high float64) (Zone, bool) {
	for _, z := range zones {
		if z.Kind == Resistance && z.High == high {
			return z, true
		}
	}
	return Zone{}, false
}

func TestDetectZones_InitFromPivotBody(t *testing.T) {
	zones := DetectZones(resistanceFixture())
	z, ok := findResistance(zones, 107)
	if !ok {
		t.Fatalf("expected a resistance zone with outer=107, got %v", zones)
	}
	if z.Low != 103 {
		t.Fatalf("inner bound should be the pivot body edge 103, got %v", z.Low)
	}
	if z.OriginTime != 2*3_600_000 {
		t.Fatalf("origin_time should come from the pivot bar, got %d", z.OriginTime)
	}
	if z.PivotIndex != 2 {
		t.Fatalf("pivot index should be 2, got %d", z.PivotIndex)
	}
	if z.Strength != 1 {
		t.Fatalf("fresh zone strength should be 1, got %d", z.Strength)
	}
}

func TestDetectZones_BreakoutExcludesZone(t *testing.T) {
	candles := resistanceFixture()
	// 下标 5 收盘 108 > 外沿 107：区间必须整体消失
	candles[5] = mkCandle(5, 98, 108.5, 96, 108)
	zones := DetectZones(candles)
	if _, ok := findResistance(zones, 107); ok {
		t.Fatalf("zone closed through at 108 must not survive, got %v", zones)
	}
}

func TestDetectZones_NeighborBodyTightensInner(t *testing.T) {
	candles := resistanceFixture()
	// 下标 3 实体上沿 104.5 落在 (103,107) 之间：内沿应被抬到 104.5
	candles[3] = mkCandle(3, 104.5, 105, 98, 99)
	zones := DetectZones(candles)
	z, ok := findResistance(zones, 107)
	if !ok {
		t.Fatalf("expected resistance zone to survive, got %v", zones)
	}
	if z.Low != 104.5 {
		t.Fatalf("inner bound should be raised to neighbor body top 104.5, got %v", z.Low)
	}
}

func TestDetectZones_DegenerateCandidateDiscarded(t *testing.T) {
	candles := resistanceFixture()
	// pivot 实体上沿与 wick 重合（光头阳线）：inner >= outer，候选放弃
	candles[2] = mkCandle(2, 101, 107, 100, 107)
	zones := DetectZones(candles)
	if _, ok := findResistance(zones, 107); ok {
		t.Fatalf("degenerate geometry must be silently discarded, got %v", zones)
	}
}

func TestDetectZones_RefineTightensTowardOuter(t *testing.T) {
	candles := resistanceFixture()
	// pivot 邻居窗口之外出现一根收在 105 的 K 线（未破 107）：内沿应细化到 105
	candles[5] = mkCandle(5, 99, 105.5, 97, 105)
	zones := DetectZones(candles)
	z, ok := findResistance(zones, 107)
	if !ok {
		t.Fatalf("expected resistance zone to survive, got %v", zones)
	}
	if z.Low != 105 {
		t.Fatalf("refined inner should be the max close 105, got %v", z.Low)
	}
}

func TestDetectZones_RefineStopsAtNewExtreme(t *testing.T) {
	candles := resistanceFixture()
	// 下标 6 wick 108 越过外沿但收盘 106.5 未破：细化在此停止，
	// 停止那根的收盘不计入，内沿停留在此前累计的 105
	candles[5] = mkCandle(5, 99, 105.5, 97, 105)
	candles[6] = mkCandle(6, 105, 108, 104, 106.5)
	zones := DetectZones(candles)
	z, ok := findResistance(zones, 107)
	if !ok {
		t.Fatalf("wick beyond outer without a close through must not kill the zone, got %v", zones)
	}
	if z.Low != 105 {
		t.Fatalf("refinement must stop before the new-extreme bar, got inner %v", z.Low)
	}
}

func TestDetectZones_ShortSeriesYieldsEmpty(t *testing.T) {
	if zones := DetectZones(resistanceFixture()[:4]); len(zones) != 0 {
		t.Fatalf("fewer than 5 bars must yield no zones, got %v", zones)
	}
	if zones := DetectZones(nil); len(zones) != 0 {
		t.Fatalf("nil input must yield no zones, got %v", zones)
	}
}

func TestDetectZones_OutputInvariant(t *testing.T) {
	zones := DetectZones(waveCandles(120))
	if len(zones) == 0 {
		t.Fatal("wave fixture should produce zones")
	}
	for _, z := range zones {
		if z.Low >= z.High {
			t.Fatalf("invariant low<high violated: %+v", z)
		}
		if z.Status != StatusActive {
			t.Fatalf("output zones must be active: %+v", z)
		}
		if z.Kind != Support && z.Kind != Resistance {
			t.Fatalf("unexpected kind: %+v", z)
		}
	}
}

func TestDetectAll_TagsTimeframe(t *testing.T) {
	byTF := map[string][]market.Candle{
		"1h": waveCandles(80),
		"4h": waveCandles(60),
		"12h": nil,
	}
	out := DetectAll(byTF)
	if len(out) != 3 {
		t.Fatalf("every timeframe must be present in the result, got %d", len(out))
	}
	if len(out["12h"]) != 0 {
		t.Fatalf("empty input timeframe must map to empty zones, got %v", out["12h"])
	}
	for tf, zones := range out {
		for _, z := range zones {
			if z.Timeframe != tf {
				t.Fatalf("zone must carry its timeframe %q, got %q", tf, z.Timeframe)
			}
		}
	}
}

func TestZone_AgeDaysUsesExplicitAsOf(t *testing.T) {
	z := Zone{Kind: Support, Low: 1, High: 2, OriginTime: 0}
	asOf := time.UnixMilli(3 * 24 * 3_600_000)
	if got := z.AgeDays(asOf); got != 3 {
		t.Fatalf("age must be computed against the as-of reference, got %v", got)
	}
}
