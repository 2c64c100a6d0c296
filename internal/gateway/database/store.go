// Package database 提供基于 SQLite 的 K 线缓存与分析请求日志。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Store 持有 SQLite 连接；所有方法并发安全。
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open 打开（必要时创建）数据库文件并执行建表迁移。
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path 不能为空")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite 单写者：限制连接数避免 database is locked
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS klines (
            symbol    TEXT NOT NULL,
            interval  TEXT NOT NULL,
            open_time INTEGER NOT NULL,
            open      REAL NOT NULL,
            high      REAL NOT NULL,
            low       REAL NOT NULL,
            close     REAL NOT NULL,
            volume    REAL NOT NULL,
            PRIMARY KEY (symbol, interval, open_time)
        )`,
		`CREATE TABLE IF NOT EXISTS analysis_log (
            id           TEXT PRIMARY KEY,
            symbol       TEXT NOT NULL,
            timeframe    TEXT NOT NULL,
            chat_id      INTEGER,
            requested_at INTEGER NOT NULL,
            duration_ms  INTEGER NOT NULL,
            zones_total  INTEGER NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_log_symbol ON analysis_log(symbol, requested_at)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(context.Background(), q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("store 未初始化")
	}
	return db, nil
}
