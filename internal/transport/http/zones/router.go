// Package zones 暴露分析结果的 HTTP API（gin）。
package zones

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ridge/internal/agent/service/analysis"
	"ridge/internal/analysis/zone"
	"ridge/internal/gateway/binance"
	"ridge/internal/gateway/database"
	"ridge/internal/logger"
)

// Router 处理 /api/zones 下的路由。
type Router struct {
	svc *analysis.Service
	db  *database.Store // 可为 nil，此时 history 返回 404
}

func NewRouter(svc *analysis.Service, db *database.Store) *Router {
	return &Router{svc: svc, db: db}
}

func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/:symbol", r.handleZones)
	group.GET("/:symbol/history", r.handleHistory)
}

// ZonesResponse 是一次分析的 API 视图。
type ZonesResponse struct {
	RequestID   string                 `json:"request_id"`
	Symbol      string                 `json:"symbol"`
	Timeframe   string                 `json:"timeframe"`
	Price       float64                `json:"price"`
	ZonesByTF   map[string][]zone.Zone `json:"zones_by_timeframe"`
	Nearest     zone.Nearest           `json:"nearest"`
	GeneratedAt int64                  `json:"generated_at"` // 毫秒
	DurationMS  int64                  `json:"duration_ms"`
}

func (r *Router) handleZones(c *gin.Context) {
	symbol := binance.NormalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少交易对"})
		return
	}
	res, err := r.svc.Analyze(c.Request.Context(), analysis.Request{
		Symbol:    symbol,
		Timeframe: c.Query("tf"),
	})
	if err != nil {
		logger.Warnf("[zones-api] analyze %s failed: %v", symbol, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ZonesResponse{
		RequestID:   res.RequestID,
		Symbol:      res.Symbol,
		Timeframe:   res.Timeframe,
		Price:       res.Price,
		ZonesByTF:   res.ZonesByTF,
		Nearest:     res.Nearest,
		GeneratedAt: res.GeneratedAt.UnixMilli(),
		DurationMS:  res.Duration.Milliseconds(),
	})
}

// HistoryEntry 是一条历史请求记录的 API 视图。
type HistoryEntry struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Timeframe   string `json:"timeframe"`
	RequestedAt int64  `json:"requested_at"` // 毫秒
	DurationMS  int64  `json:"duration_ms"`
	ZonesTotal  int    `json:"zones_total"`
}

func (r *Router) handleHistory(c *gin.Context) {
	if r.db == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未启用持久化"})
		return
	}
	symbol := binance.NormalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少交易对"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	recs, err := r.db.RecentAnalyses(c.Request.Context(), symbol, limit)
	if err != nil {
		logger.Errorf("[zones-api] history %s failed: %v", symbol, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]HistoryEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, HistoryEntry{
			ID:          rec.ID,
			Symbol:      rec.Symbol,
			Timeframe:   rec.Timeframe,
			RequestedAt: rec.RequestedAt,
			DurationMS:  rec.Duration.Milliseconds(),
			ZonesTotal:  rec.ZonesTotal,
		})
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "history": out})
}

// NewServer 组装 gin 引擎：/healthz 与 /api/zones/*。
func NewServer(r *Router) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "ts": time.Now().UnixMilli()})
	})
	r.Register(engine.Group("/api/zones"))
	return &http.Server{Handler: engine}
}
