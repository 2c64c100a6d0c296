package market

import "context"

// TimeframeSeries 表示各 timeframe 对应的 K 线序列。
type TimeframeSeries map[string][]Candle

// SourceStats 记录数据源运行期的一些指标。
type SourceStats struct {
	Requests  int64
	Errors    int64
	LastError string
}

// Source 统一对接外部行情供应商。
// 实现必须保证返回的序列按 OpenTime 严格升序且无重复时间戳；
// 排序被破坏时核心算法的输出没有意义。
type Source interface {
	// FetchHistory 拉取最近 limit 根 K 线并按时间升序返回。
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	// LatestPrice 返回最新成交价。
	LatestPrice(ctx context.Context, symbol string) (float64, error)
	// ValidateSymbol 校验交易对是否存在。
	ValidateSymbol(ctx context.Context, symbol string) (bool, error)
	// Stats 返回当前运行状态（若 source 不支持则返回零值）。
	Stats() SourceStats
	// Close 释放底层资源。
	Close() error
}
