package database

import (
	"context"
	"fmt"
	"strings"

	"ridge/internal/market"
)

// Set 全量替换一段序列：同事务内先清空旧数据再批量写入。
func (s *Store) Set(ctx context.Context, symbol, interval string, ks []market.Candle) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	iv := strings.ToLower(strings.TrimSpace(interval))
	if sym == "" || iv == "" {
		return fmt.Errorf("symbol/interval 不能为空")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM klines WHERE symbol=? AND interval=?`, sym, iv); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO klines (symbol, interval, open_time, open, high, low, close, volume)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, c := range ks {
		if _, err := stmt.ExecContext(ctx, sym, iv, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get 按时间升序返回全部缓存 K 线。
func (s *Store) Get(ctx context.Context, symbol, interval string) ([]market.Candle, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	iv := strings.ToLower(strings.TrimSpace(interval))
	rows, err := db.QueryContext(ctx, `
        SELECT open_time, open, high, low, close, volume
        FROM klines WHERE symbol=? AND interval=?
        ORDER BY open_time ASC`, sym, iv)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Candle
	for rows.Next() {
		var c market.Candle
		if err := rows.Scan(&c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Export 返回最近 limit 根 K 线（按时间升序）。
func (s *Store) Export(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		return nil, nil
	}
	all, err := s.Get(ctx, symbol, interval)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}
