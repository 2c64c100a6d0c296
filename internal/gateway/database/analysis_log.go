package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AnalysisRecord 是一次分析请求的留痕。
type AnalysisRecord struct {
	ID          string
	Symbol      string
	Timeframe   string
	ChatID      int64
	RequestedAt int64 // 毫秒
	Duration    time.Duration
	ZonesTotal  int
}

// LogAnalysis 写入一条分析请求日志。
func (s *Store) LogAnalysis(ctx context.Context, rec AnalysisRecord) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	sym := strings.ToUpper(strings.TrimSpace(rec.Symbol))
	if rec.ID == "" || sym == "" {
		return fmt.Errorf("analysis record 缺少 id/symbol")
	}
	requestedAt := rec.RequestedAt
	if requestedAt == 0 {
		requestedAt = time.Now().UnixMilli()
	}
	_, err = db.ExecContext(ctx, `
        INSERT INTO analysis_log (id, symbol, timeframe, chat_id, requested_at, duration_ms, zones_total)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, sym, rec.Timeframe, rec.ChatID, requestedAt, rec.Duration.Milliseconds(), rec.ZonesTotal)
	return err
}

// RecentAnalyses 返回某 symbol 最近的 limit 条请求记录（新在前）。
func (s *Store) RecentAnalyses(ctx context.Context, symbol string, limit int) ([]AnalysisRecord, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
        SELECT id, symbol, timeframe, chat_id, requested_at, duration_ms, zones_total
        FROM analysis_log WHERE symbol=?
        ORDER BY requested_at DESC LIMIT ?`,
		strings.ToUpper(strings.TrimSpace(symbol)), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Timeframe, &rec.ChatID,
			&rec.RequestedAt, &durationMS, &rec.ZonesTotal); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
