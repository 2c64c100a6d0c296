package zone

import "ridge/internal/market"

// initZone 由 pivot 初始化候选区间：外沿取 wick，内沿取实体边。
// 对 i±1、i±2 四个邻居做实体避让：邻居实体边落在内外沿之间时，
// 将内沿向外沿方向单调收紧，避免区间压住邻居实体。
// 几何退化（内外沿倒置）直接放弃该候选。
func initZone(p Pivot, candles []market.Candle) (Zone, bool) {
	c := candles[p.Index]

	if p.Kind == PivotHigh {
		outer := c.High
		inner := c.BodyHigh()
		if inner >= outer {
			return Zone{}, false
		}
		for _, off := range []int{-2, -1, 1, 2} {
			j := p.Index + off
			if j < 0 || j >= len(candles) {
				continue
			}
			nb := candles[j].BodyHigh()
			if nb > inner && nb < outer {
				inner = nb
			}
		}
		if inner >= outer {
			return Zone{}, false
		}
		return Zone{
			Kind:       Resistance,
			Low:        inner,
			High:       outer,
			OriginTime: c.OpenTime,
			Strength:   1,
			Status:     StatusActive,
			PivotIndex: p.Index,
		}, true
	}

	outer := c.Low
	inner := c.BodyLow()
	if inner <= outer {
		return Zone{}, false
	}
	for _, off := range []int{-2, -1, 1, 2} {
		j := p.Index + off
		if j < 0 || j >= len(candles) {
			continue
		}
		nb := candles[j].BodyLow()
		if nb < inner && nb > outer {
			inner = nb
		}
	}
	if inner <= outer {
		return Zone{}, false
	}
	return Zone{
		Kind:       Support,
		Low:        outer,
		High:       inner,
		OriginTime: c.OpenTime,
		Strength:   1,
		Status:     StatusActive,
		PivotIndex: p.Index,
	}, true
}

// isBroken 判断区间是否已被后续收盘价击穿。
// 从 pivot 下标扫到序列末尾，close 严格越过初始化时的外沿即失效。
// 必须在 refine 之前执行：细化不改变 breakout 的判定基准。
func isBroken(z Zone, candles []market.Candle) bool {
	outer := z.outer()
	for i := z.PivotIndex; i < len(candles); i++ {
		c := candles[i]
		if z.Kind == Resistance && c.Close > outer {
			return true
		}
		if z.Kind == Support && c.Close < outer {
			return true
		}
	}
	return false
}

// refine 用 pivot 之后的收盘价序列收紧内沿。
// 自 pivot 起逐根累计 close 极值；遇到 wick 越过外沿（出现新极值，
// pivot 失去结构地位）或 close 击穿外沿（实际 breakout）即停止，
// 停止那根 K 线不计入。细化结果只在不越过外沿时生效。
func refine(z Zone, candles []market.Candle) Zone {
	n := len(candles)
	if z.Kind == Support {
		minClose := z.High
		for i := z.PivotIndex; i < n; i++ {
			c := candles[i]
			if c.Low < z.Low {
				break
			}
			if c.Close < z.Low {
				break
			}
			if c.Close < minClose {
				minClose = c.Close
			}
		}
		if minClose > z.Low {
			z.High = minClose
		}
		return z
	}

	maxClose := z.Low
	for i := z.PivotIndex; i < n; i++ {
		c := candles[i]
		if c.High > z.High {
			break
		}
		if c.Close > z.High {
			break
		}
		if c.Close > maxClose {
			maxClose = c.Close
		}
	}
	if maxClose < z.High {
		z.Low = maxClose
	}
	return z
}

// DetectZones 对一段 K 线序列执行完整流水线，返回全部存活区间。
// 对结构良好的输入从不报错：序列过短、候选退化或被击穿都只是
// 让对应候选被静默丢弃，最终可能得到空集。
func DetectZones(candles []market.Candle) []Zone {
	if len(candles) < 2*fractalWing+1 {
		return nil
	}

	pivots := FindPivots(candles)
	zones := make([]Zone, 0, len(pivots))
	for _, p := range pivots {
		z, ok := initZone(p, candles)
		if !ok {
			continue
		}
		if isBroken(z, candles) {
			continue
		}
		zones = append(zones, refine(z, candles))
	}

	zones = mergeZones(zones)

	out := zones[:0]
	for _, z := range zones {
		if z.Low < z.High && z.Status == StatusActive {
			out = append(out, z)
		}
	}
	return out
}

// DetectAll 对每个 timeframe 独立检测，并把 timeframe 直接打在区间记录上。
// 各 timeframe 之间没有共享状态，顺序执行即满足正确性。
func DetectAll(candlesByTF map[string][]market.Candle) map[string][]Zone {
	out := make(map[string][]Zone, len(candlesByTF))
	for tf, candles := range candlesByTF {
		zones := DetectZones(candles)
		for i := range zones {
			zones[i].Timeframe = tf
		}
		out[tf] = zones
	}
	return out
}
