package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/sync/errgroup"

	"ridge/internal/logger"
	"ridge/internal/market"
)

const maxHistoryLimit = 1500

// Source 实现了 market.Source，负责 Binance Futures REST 接入。
// K 线走原生 REST（/fapi/v1/klines），最新价与交易对校验走官方 SDK。
type Source struct {
	cfg        Config
	httpClient *http.Client
	client     *futures.Client

	mu         sync.Mutex
	stats      market.SourceStats
	symbolsAt  time.Time
	symbolsSet map[string]struct{}
}

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	client := futures.NewClient(final.APIKey, final.APISecret)
	return &Source{
		cfg:        final,
		httpClient: &http.Client{Timeout: final.HTTPTimeout},
		client:     client,
	}, nil
}

// NormalizeSymbol 归一化交易对："vet" / "VET" / "VETUSDT" → "VETUSDT"。
func NormalizeSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if !strings.HasSuffix(s, "USDT") {
		s += "USDT"
	}
	return s
}

func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	url := fmt.Sprintf("%s/fapi/v1/klines?symbol=%s&interval=%s&limit=%d", s.cfg.RESTBaseURL, symbol, interval, limit)
	logger.Debugf("[binance] REST %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.recordError(err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		err := fmt.Errorf("binance history error: %s", resp.Status)
		s.recordError(err)
		return nil, err
	}
	var raw [][]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		s.recordError(err)
		return nil, err
	}
	out := make([]market.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 7 {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  toInt64(k[0]),
			CloseTime: toInt64(k[6]),
			Open:      toFloat(k[1]),
			High:      toFloat(k[2]),
			Low:       toFloat(k[3]),
			Close:     toFloat(k[4]),
			Volume:    toFloat(k[5]),
			Trades:    toInt64Safe(k, 8),
		})
	}
	s.recordRequest()
	return out, nil
}

// FetchAllTimeframes 并行拉取配置的全部 timeframe。
// 各 timeframe 相互独立；任一失败则整体失败，由调用方决定兜底。
func (s *Source) FetchAllTimeframes(ctx context.Context, symbol string) (market.TimeframeSeries, error) {
	out := make(market.TimeframeSeries, len(s.cfg.Timeframes))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, tf := range s.cfg.Timeframes {
		tf := tf
		g.Go(func() error {
			candles, err := s.FetchHistory(gctx, symbol, tf, s.cfg.LimitFor(tf))
			if err != nil {
				return fmt.Errorf("fetch %s %s: %w", symbol, tf, err)
			}
			mu.Lock()
			out[tf] = candles
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Source) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		s.recordError(err)
		return 0, err
	}
	for _, p := range prices {
		if p == nil {
			continue
		}
		if strings.EqualFold(p.Symbol, symbol) {
			s.recordRequest()
			return parseFloat(p.Price), nil
		}
	}
	return 0, fmt.Errorf("price not available for %s", symbol)
}

// ValidateSymbol 通过 exchangeInfo 校验交易对；结果按 TTL 缓存。
func (s *Source) ValidateSymbol(ctx context.Context, symbol string) (bool, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return false, fmt.Errorf("symbol is required")
	}
	s.mu.Lock()
	cached := s.symbolsSet
	fresh := time.Since(s.symbolsAt) < s.cfg.ExchangeInfoTTL
	s.mu.Unlock()
	if cached != nil && fresh {
		_, ok := cached[symbol]
		return ok, nil
	}

	info, err := s.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		s.recordError(err)
		// 缓存过期但还在：降级使用旧数据
		if cached != nil {
			_, ok := cached[symbol]
			return ok, nil
		}
		return false, err
	}
	set := make(map[string]struct{}, len(info.Symbols))
	for _, sym := range info.Symbols {
		set[strings.ToUpper(sym.Symbol)] = struct{}{}
	}
	s.mu.Lock()
	s.symbolsSet = set
	s.symbolsAt = time.Now()
	s.mu.Unlock()
	s.recordRequest()
	_, ok := set[symbol]
	return ok, nil
}

func (s *Source) Stats() market.SourceStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Source) Close() error { return nil }

func (s *Source) recordRequest() {
	s.mu.Lock()
	s.stats.Requests++
	s.mu.Unlock()
}

func (s *Source) recordError(err error) {
	s.mu.Lock()
	s.stats.Errors++
	if err != nil {
		s.stats.LastError = err.Error()
	}
	s.mu.Unlock()
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case float64:
		return t
	default:
		return 0
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return int64(f)
	default:
		return 0
	}
}

func toInt64Safe(row []any, idx int) int64 {
	if idx < 0 || idx >= len(row) {
		return 0
	}
	return toInt64(row[idx])
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
