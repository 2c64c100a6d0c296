package zone

import "sort"

// mergeThresholdPct 近邻合并阈值：间隙小于平均宽度的 0.5% 即合并。
const mergeThresholdPct = 0.005

// mergeable 判断同类的两个区间是否应合并：范围重叠，
// 或间隙（重叠时为非正值）小于两者平均宽度的 0.5%。
func mergeable(a, b Zone) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Low <= b.High && b.Low <= a.High {
		return true
	}
	threshold := (a.Width() + b.Width()) / 2 * mergeThresholdPct
	gap := maxf(a.Low, b.Low) - minf(a.High, b.High)
	return gap < threshold
}

// merge 以较老（OriginTime 较小，持平取前者）的区间为身份基准，
// 产出一个新值：边界取并集，strength 相加，pivot 下标取最小。
// 输入不被修改。
func merge(a, b Zone) Zone {
	base := a
	if b.OriginTime < a.OriginTime {
		base = b
	}
	base.Low = minf(a.Low, b.Low)
	base.High = maxf(a.High, b.High)
	base.Strength = a.Strength + b.Strength
	if b.PivotIndex < a.PivotIndex {
		base.PivotIndex = b.PivotIndex
	} else {
		base.PivotIndex = a.PivotIndex
	}
	return base
}

// mergeZones 把可合并的同类区间迭代聚合到不动点。
// 实现为 arena 上的纯归约：合并产生新值追加到 arena，
// 旧值仅标记失活，任何区间不做原地修改，避免跨轮别名。
// 工作队列只回查被上一次合并触达的新区间，谓词与选基规则
// 与全量重扫完全一致，结果相同。
func mergeZones(zones []Zone) []Zone {
	if len(zones) < 2 {
		return zones
	}

	arena := append([]Zone(nil), zones...)
	alive := make([]bool, len(arena))
	queue := make([]int, 0, len(arena))
	for i := range arena {
		alive[i] = true
		queue = append(queue, i)
	}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if !alive[i] {
			continue
		}
		for j := range arena {
			if j == i || !alive[j] {
				continue
			}
			if !mergeable(arena[i], arena[j]) {
				continue
			}
			merged := merge(arena[i], arena[j])
			alive[i] = false
			alive[j] = false
			arena = append(arena, merged)
			alive = append(alive, true)
			queue = append(queue, len(arena)-1)
			break
		}
	}

	out := make([]Zone, 0, len(zones))
	for i, z := range arena {
		if alive[i] {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PivotIndex != out[j].PivotIndex {
			return out[i].PivotIndex < out[j].PivotIndex
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
