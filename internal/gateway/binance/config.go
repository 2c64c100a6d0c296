package binance

import "time"

// 每个 timeframe 拉取的 K 线数量。
var defaultLimits = map[string]int{
	"1h":  500,
	"4h":  300,
	"12h": 200,
}

// Config 描述 Binance Source 运行所需的参数。
type Config struct {
	RESTBaseURL     string
	APIKey          string
	APISecret       string
	Timeframes      []string
	Limits          map[string]int
	HTTPTimeout     time.Duration
	ExchangeInfoTTL time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.RESTBaseURL == "" {
		out.RESTBaseURL = "https://fapi.binance.com"
	}
	if len(out.Timeframes) == 0 {
		out.Timeframes = []string{"1h", "4h", "12h"}
	}
	if len(out.Limits) == 0 {
		out.Limits = defaultLimits
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	if out.ExchangeInfoTTL <= 0 {
		out.ExchangeInfoTTL = 10 * time.Minute
	}
	return out
}

// LimitFor 返回某 timeframe 的拉取数量，未配置时取 300。
func (c Config) LimitFor(interval string) int {
	if n, ok := c.Limits[interval]; ok && n > 0 {
		return n
	}
	return 300
}
