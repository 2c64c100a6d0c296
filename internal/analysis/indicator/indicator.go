// Package indicator 基于 talib 计算少量随消息一起输出的指标快照。
package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"ridge/internal/market"
)

type Settings struct {
	EMAFast   int
	EMASlow   int
	RSIPeriod int
	ATRPeriod int
}

func (s Settings) withDefaults() Settings {
	if s.EMAFast <= 0 {
		s.EMAFast = 21
	}
	if s.EMASlow <= 0 {
		s.EMASlow = 55
	}
	if s.RSIPeriod <= 0 {
		s.RSIPeriod = 14
	}
	if s.ATRPeriod <= 0 {
		s.ATRPeriod = 14
	}
	return s
}

// Snapshot 是一次分析随附的指标摘要。
type Snapshot struct {
	EMAFast  float64 `json:"ema_fast"`
	EMASlow  float64 `json:"ema_slow"`
	EMAState string  `json:"ema_state"` // above/below/touch：价格相对快线
	RSI      float64 `json:"rsi"`
	RSIState string  `json:"rsi_state"` // overbought/oversold/neutral
	ATR      float64 `json:"atr"`
	ATRPct   float64 `json:"atr_pct"` // ATR 占最新收盘的百分比
}

// Compute 计算指标快照；K 线不足时返回错误，由调用方决定是否省略该段。
func Compute(candles []market.Candle, cfg Settings) (Snapshot, error) {
	cfg = cfg.withDefaults()
	need := cfg.EMASlow
	if cfg.ATRPeriod+1 > need {
		need = cfg.ATRPeriod + 1
	}
	if len(candles) < need {
		return Snapshot{}, fmt.Errorf("not enough candles: %d < %d", len(candles), need)
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}
	lastClose := closes[len(closes)-1]

	snap := Snapshot{
		EMAFast: lastValid(talib.Ema(closes, cfg.EMAFast)),
		EMASlow: lastValid(talib.Ema(closes, cfg.EMASlow)),
		RSI:     lastValid(talib.Rsi(closes, cfg.RSIPeriod)),
		ATR:     lastValid(talib.Atr(highs, lows, closes, cfg.ATRPeriod)),
	}
	snap.EMAState = relativeState(lastClose, snap.EMAFast)
	switch {
	case snap.RSI >= 70:
		snap.RSIState = "overbought"
	case snap.RSI <= 30:
		snap.RSIState = "oversold"
	default:
		snap.RSIState = "neutral"
	}
	if lastClose > 0 {
		snap.ATRPct = snap.ATR / lastClose * 100
	}
	return snap, nil
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		v := series[i]
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v != 0 {
			return v
		}
	}
	return 0
}

func relativeState(price, ref float64) string {
	if ref == 0 {
		return "unknown"
	}
	switch {
	case price > ref*1.002:
		return "above"
	case price < ref*0.998:
		return "below"
	default:
		return "touch"
	}
}
