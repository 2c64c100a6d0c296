package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ridge/internal/agent"
	"ridge/internal/agent/service/analysis"
	"ridge/internal/chart"
	"ridge/internal/config"
	"ridge/internal/gateway/binance"
	"ridge/internal/gateway/database"
	"ridge/internal/gateway/notifier"
	"ridge/internal/logger"
	"ridge/internal/store"
	"ridge/internal/transport/http/zones"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.toml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := binance.New(binance.Config{
		RESTBaseURL: cfg.Binance.RESTBaseURL,
		APIKey:      cfg.Binance.APIKey,
		APISecret:   cfg.Binance.APISecret,
		Timeframes:  cfg.Zones.Timeframes,
		Limits:      cfg.Zones.Limits,
		HTTPTimeout: cfg.BinanceTimeout(),
	})
	if err != nil {
		logger.Errorf("初始化行情源失败: %v", err)
		os.Exit(1)
	}
	defer source.Close()

	// 配置了 database.path 时 K 线缓存与请求留痕都落 SQLite，否则纯内存
	var (
		ks    store.KlineStore = store.NewMemoryKlineStore()
		audit analysis.AuditLog
		db    *database.Store
	)
	if cfg.Database.Path != "" {
		db, err = database.Open(cfg.Database.Path)
		if err != nil {
			logger.Errorf("打开数据库失败: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		ks = db
		audit = db
	}

	svc := analysis.NewService(analysis.ServiceParams{
		Config:     cfg,
		Source:     source,
		KlineStore: ks,
		Audit:      audit,
	})

	var snap *chart.Snapshotter
	if cfg.Chart.Enabled {
		snap = chart.NewSnapshotter(cfg.ChartTimeout())
	}

	if cfg.HTTP.Enabled {
		srv := zones.NewServer(zones.NewRouter(svc, db))
		srv.Addr = cfg.HTTP.Listen
		go func() {
			logger.Infof("HTTP API listening on %s", cfg.HTTP.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("HTTP server: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Telegram.Token == "" {
		if !cfg.HTTP.Enabled {
			logger.Errorf("telegram token 与 HTTP API 均未配置，无事可做")
			os.Exit(1)
		}
		logger.Warnf("未配置 telegram token，仅提供 HTTP API")
		<-ctx.Done()
		return
	}

	bot := agent.NewBot(agent.BotParams{
		Config:      cfg,
		Telegram:    notifier.NewTelegram(cfg.Telegram.Token),
		Analysis:    svc,
		Snapshotter: snap,
	})
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("bot 退出: %v", err)
		os.Exit(1)
	}
	logger.Infof("已退出")
}
