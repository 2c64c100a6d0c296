package zone

import (
	"reflect"
	"testing"
)

func rz(low, high float64, origin int64, pivotIdx, strength int) Zone {
	return Zone{
		Kind:       Resistance,
		Low:        low,
		High:       high,
		OriginTime: origin,
		Strength:   strength,
		Status:     StatusActive,
		PivotIndex: pivotIdx,
	}
}

func TestMergeZones_GapBeyondThresholdStaysApart(t *testing.T) {
	// gap 0.3 远大于 0.5% × 平均宽度：不得合并
	zones := mergeZones([]Zone{
		rz(100, 102, 1000, 2, 1),
		rz(102.3, 103, 2000, 8, 1),
	})
	if len(zones) != 2 {
		t.Fatalf("expected 2 separate zones, got %v", zones)
	}
}

func TestMergeZones_CloseGapMerges(t *testing.T) {
	// gap 0.005 小于阈值：合并为 [100,102.5]，strength 相加
	zones := mergeZones([]Zone{
		rz(100, 102, 1000, 2, 1),
		rz(102.005, 102.5, 2000, 8, 1),
	})
	if len(zones) != 1 {
		t.Fatalf("expected a single merged zone, got %v", zones)
	}
	z := zones[0]
	if z.Low != 100 || z.High != 102.5 {
		t.Fatalf("merged bounds should be the union [100,102.5], got [%v,%v]", z.Low, z.High)
	}
	if z.Strength != 2 {
		t.Fatalf("merged strength should sum to 2, got %d", z.Strength)
	}
	if z.OriginTime != 1000 {
		t.Fatalf("older zone keeps identity, got origin %d", z.OriginTime)
	}
	if z.PivotIndex != 2 {
		t.Fatalf("pivot index should be the minimum, got %d", z.PivotIndex)
	}
}

func TestMergeZones_OverlapMerges(t *testing.T) {
	zones := mergeZones([]Zone{
		rz(100, 103, 5000, 7, 1),
		rz(102, 104, 1000, 3, 2),
	})
	if len(zones) != 1 {
		t.Fatalf("overlapping zones must merge, got %v", zones)
	}
	z := zones[0]
	if z.Low != 100 || z.High != 104 || z.Strength != 3 {
		t.Fatalf("unexpected merged zone %+v", z)
	}
	// 第二个更老，身份归它
	if z.OriginTime != 1000 {
		t.Fatalf("older origin_time wins identity, got %d", z.OriginTime)
	}
	if z.PivotIndex != 3 {
		t.Fatalf("pivot index should be min(7,3)=3, got %d", z.PivotIndex)
	}
}

func TestMergeZones_DifferentKindsNeverMerge(t *testing.T) {
	sup := Zone{Kind: Support, Low: 100, High: 103, OriginTime: 1, Strength: 1, Status: StatusActive, PivotIndex: 1}
	res := rz(102, 104, 2, 2, 1)
	zones := mergeZones([]Zone{sup, res})
	if len(zones) != 2 {
		t.Fatalf("different kinds must never merge, got %v", zones)
	}
	for _, z := range zones {
		if z.Kind != Support && z.Kind != Resistance {
			t.Fatalf("kind must not change during merge: %+v", z)
		}
	}
}

func TestMergeZones_ChainConvergesToFixedPoint(t *testing.T) {
	// 三个区间两两相邻，第一轮合并后的并集才与第三个重叠：
	// 不动点迭代必须把整条链收拢成一个区间
	zones := mergeZones([]Zone{
		rz(100, 101, 3000, 5, 1),
		rz(100.9, 102, 1000, 2, 1),
		rz(101.9, 103, 2000, 9, 1),
	})
	if len(zones) != 1 {
		t.Fatalf("chain of overlapping zones must collapse to one, got %v", zones)
	}
	z := zones[0]
	if z.Low != 100 || z.High != 103 || z.Strength != 3 || z.OriginTime != 1000 || z.PivotIndex != 2 {
		t.Fatalf("unexpected chain merge result %+v", z)
	}
}

func TestMergeZones_Idempotent(t *testing.T) {
	zones := mergeZones([]Zone{
		rz(100, 102, 1000, 2, 1),
		rz(102.005, 102.5, 2000, 8, 1),
		rz(110, 112, 3000, 15, 1),
		{Kind: Support, Low: 90, High: 91, OriginTime: 500, Strength: 2, Status: StatusActive, PivotIndex: 1},
	})
	again := mergeZones(append([]Zone(nil), zones...))
	if !reflect.DeepEqual(zones, again) {
		t.Fatalf("merging an already-merged set must be a no-op:\n%v\n%v", zones, again)
	}
}

func TestMergeZones_InputNotMutated(t *testing.T) {
	in := []Zone{
		rz(100, 103, 5000, 7, 1),
		rz(102, 104, 1000, 3, 2),
	}
	snapshot := append([]Zone(nil), in...)
	_ = mergeZones(in)
	if !reflect.DeepEqual(in, snapshot) {
		t.Fatalf("merge must not mutate its input:\n%v\n%v", in, snapshot)
	}
}
