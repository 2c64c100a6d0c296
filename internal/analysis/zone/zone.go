// Package zone 实现 S/R 支撑/阻力区间的识别流水线：
// 5 根 K 线分形 pivot → 区间初始化（wick 外沿 + body 内沿）→
// breakout 失效校验 → closes 收敛细化 → 同类区间合并。
package zone

import (
	"fmt"
	"time"
)

// Kind 表示区间类型，创建后不再变化。
type Kind string

const (
	Support    Kind = "support"
	Resistance Kind = "resistance"
)

// Status 表示区间状态；输出集中只会出现 active。
type Status string

const (
	StatusActive Status = "active"
	StatusBroken Status = "broken"
)

// Zone 是一个支撑或阻力价格带。
// Low < High 在任何可观察状态下都必须成立。
// Timeframe 在检测时直接打在记录上，下游不做身份反查。
type Zone struct {
	Kind       Kind    `json:"kind"`
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	OriginTime int64   `json:"origin_time"` // 首个 pivot K 线的 open_time（毫秒）
	Strength   int     `json:"strength"`    // 合并吸收的 pivot 数量
	Touches    int     `json:"touches"`     // 预留字段，当前逻辑不填充
	Status     Status  `json:"status"`
	PivotIndex int     `json:"pivot_index"` // 首个 pivot 在原序列中的下标
	Timeframe  string  `json:"timeframe,omitempty"`
}

// Width 返回区间宽度。
func (z Zone) Width() float64 {
	return z.High - z.Low
}

// outer 返回外沿（wick 侧）；close 穿越外沿即 breakout。
func (z Zone) outer() float64 {
	if z.Kind == Resistance {
		return z.High
	}
	return z.Low
}

// AgeDays 以显式的 asOf 时间计算区间年龄（天）。
// 不在实体内部读取系统时钟，保证输出可复现。
func (z Zone) AgeDays(asOf time.Time) float64 {
	return float64(asOf.UnixMilli()-z.OriginTime) / float64(24*time.Hour/time.Millisecond)
}

// DistancePct 返回当前价到区间近沿的带符号百分比距离。
// Resistance 以 Low 计（价在下方时为正），Support 以 High 计。
func (z Zone) DistancePct(price float64) float64 {
	if price == 0 {
		return 0
	}
	if z.Kind == Resistance {
		return (z.Low - price) / price * 100
	}
	return (z.High - price) / price * 100
}

// ContainsPrice 判断价格是否位于区间内（含 thresholdPct 比例的边沿余量）。
func (z Zone) ContainsPrice(price, thresholdPct float64) bool {
	margin := z.Width() * thresholdPct
	return z.Low-margin <= price && price <= z.High+margin
}

// Label 输出诊断用摘要。
func (z Zone) Label() string {
	return fmt.Sprintf("%s[%.8g-%.8g] s=%d tf=%s", z.Kind, z.Low, z.High, z.Strength, z.Timeframe)
}
