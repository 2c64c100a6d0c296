package zone

import "ridge/internal/market"

// PivotKind 区分局部高点与局部低点。
type PivotKind string

const (
	PivotHigh PivotKind = "high"
	PivotLow  PivotKind = "low"
)

// Pivot 是一个 5 根 K 线对称分形窗口识别出的局部极值。
type Pivot struct {
	Index int
	Kind  PivotKind
}

// fractalWing 分形窗口单侧宽度（左右各 2 根）。
const fractalWing = 2

// FindPivots 扫描序列返回按下标升序的 pivot 列表。
// 判定采用严格不等：与邻居持平不算 pivot，保证结果确定可复现。
// 同一下标可能同时产生 pivot high 与 pivot low（罕见但允许）。
// 序列不足 5 根时返回 nil。
func FindPivots(candles []market.Candle) []Pivot {
	n := len(candles)
	if n < 2*fractalWing+1 {
		return nil
	}
	out := make([]Pivot, 0, n/8)
	for i := fractalWing; i < n-fractalWing; i++ {
		c := candles[i]
		isHigh := c.High > candles[i-2].High && c.High > candles[i-1].High &&
			c.High > candles[i+1].High && c.High > candles[i+2].High
		isLow := c.Low < candles[i-2].Low && c.Low < candles[i-1].Low &&
			c.Low < candles[i+1].Low && c.Low < candles[i+2].Low
		if isHigh {
			out = append(out, Pivot{Index: i, Kind: PivotHigh})
		}
		if isLow {
			out = append(out, Pivot{Index: i, Kind: PivotLow})
		}
	}
	return out
}
