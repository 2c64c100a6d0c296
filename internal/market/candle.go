package market

// Candle 表示一根 K 线；序列约定按 OpenTime 升序且无重复时间戳。
type Candle struct {
	OpenTime  int64   `json:"open_time"` // 毫秒
	CloseTime int64   `json:"close_time,omitempty"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Trades    int64   `json:"trades,omitempty"`
}

// BodyHigh 返回实体上沿。
func (c Candle) BodyHigh() float64 {
	if c.Open > c.Close {
		return c.Open
	}
	return c.Close
}

// BodyLow 返回实体下沿。
func (c Candle) BodyLow() float64 {
	if c.Open < c.Close {
		return c.Open
	}
	return c.Close
}

// Bullish 判断是否为阳线。
func (c Candle) Bullish() bool {
	return c.Close >= c.Open
}
