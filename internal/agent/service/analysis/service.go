// Package analysis 串起一次完整的分析流程：
// 校验交易对 → 拉取多 timeframe K 线 → 区间检测与合并 → 最近区间筛选。
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ridge/internal/analysis/indicator"
	"ridge/internal/analysis/zone"
	"ridge/internal/config"
	"ridge/internal/gateway/database"
	"ridge/internal/logger"
	"ridge/internal/market"
	"ridge/internal/store"
)

// MarketSource 是服务需要的行情能力子集。
type MarketSource interface {
	ValidateSymbol(ctx context.Context, symbol string) (bool, error)
	LatestPrice(ctx context.Context, symbol string) (float64, error)
	FetchAllTimeframes(ctx context.Context, symbol string) (market.TimeframeSeries, error)
}

// AuditLog 记录分析请求留痕；实现可为空。
type AuditLog interface {
	LogAnalysis(ctx context.Context, rec database.AnalysisRecord) error
}

type Service struct {
	cfg    *config.Config
	source MarketSource
	ks     store.KlineStore
	audit  AuditLog
}

type ServiceParams struct {
	Config     *config.Config
	Source     MarketSource
	KlineStore store.KlineStore
	Audit      AuditLog
}

func NewService(p ServiceParams) *Service {
	return &Service{
		cfg:    p.Config,
		source: p.Source,
		ks:     p.KlineStore,
		audit:  p.Audit,
	}
}

// Request 是一次分析请求。Symbol 需已归一化（大写、带 USDT 后缀）。
type Request struct {
	Symbol    string
	Timeframe string // 主 timeframe，用于图表；空取配置默认
	ChatID    int64  // 来源会话，仅用于留痕
}

// Result 汇总一次分析的全部产出。
type Result struct {
	RequestID string
	Symbol    string
	Timeframe string
	Price     float64

	// 各 timeframe 的检测结果与跨 timeframe 汇总后的最近区间。
	ZonesByTF map[string][]zone.Zone
	Nearest   zone.Nearest

	Indicators *indicator.Snapshot // K 线不足时为 nil
	Candles    []market.Candle     // 主 timeframe 的 K 线，供图表使用

	GeneratedAt time.Time
	Duration    time.Duration
}

// ZonesTotal 返回所有 timeframe 的区间总数。
func (r *Result) ZonesTotal() int {
	n := 0
	for _, zs := range r.ZonesByTF {
		n += len(zs)
	}
	return n
}

// Analyze 执行一次完整分析。
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	tf := strings.ToLower(strings.TrimSpace(req.Timeframe))
	if tf == "" {
		tf = s.cfg.Zones.DefaultTimeframe
	}
	if !s.cfg.ValidTimeframe(tf) {
		return nil, fmt.Errorf("unsupported timeframe %q", tf)
	}

	ok, err := s.source.ValidateSymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", symbol, err)
	}
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}

	price, err := s.source.LatestPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("latest price %s: %w", symbol, err)
	}

	series, err := s.source.FetchAllTimeframes(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if s.ks != nil {
		for interval, candles := range series {
			if err := s.ks.Set(ctx, symbol, interval, candles); err != nil {
				logger.Warnf("[analysis] cache %s %s failed: %v", symbol, interval, err)
			}
		}
	}

	zonesByTF := zone.DetectAll(series)

	// 跨 timeframe 汇总后再取最近区间
	var pool []zone.Zone
	for _, zs := range zonesByTF {
		pool = append(pool, zs...)
	}
	nearest := zone.NearestZones(pool, price, s.cfg.Zones.MaxResistance, s.cfg.Zones.MaxSupport)

	res := &Result{
		RequestID:   uuid.NewString(),
		Symbol:      symbol,
		Timeframe:   tf,
		Price:       price,
		ZonesByTF:   zonesByTF,
		Nearest:     nearest,
		Candles:     series[tf],
		GeneratedAt: start,
	}
	if snap, err := indicator.Compute(series[tf], indicator.Settings{}); err == nil {
		res.Indicators = &snap
	} else {
		logger.Debugf("[analysis] indicators skipped for %s %s: %v", symbol, tf, err)
	}
	res.Duration = time.Since(start)

	if s.audit != nil {
		rec := database.AnalysisRecord{
			ID:          res.RequestID,
			Symbol:      symbol,
			Timeframe:   tf,
			ChatID:      req.ChatID,
			RequestedAt: start.UnixMilli(),
			Duration:    res.Duration,
			ZonesTotal:  res.ZonesTotal(),
		}
		if err := s.audit.LogAnalysis(ctx, rec); err != nil {
			logger.Warnf("[analysis] audit log failed: %v", err)
		}
	}

	logger.Infof("[analysis] %s tf=%s price=%.6g zones=%d nearest=%d/%d in %s",
		symbol, tf, price, res.ZonesTotal(),
		len(nearest.Resistance), len(nearest.Support), res.Duration.Round(time.Millisecond))
	return res, nil
}
