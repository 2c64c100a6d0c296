// Package config 负责加载 TOML 配置并套用默认值与环境变量覆盖。
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Telegram TelegramConfig `toml:"telegram"`
	Binance  BinanceConfig  `toml:"binance"`
	Zones    ZonesConfig    `toml:"zones"`
	Chart    ChartConfig    `toml:"chart"`
	HTTP     HTTPConfig     `toml:"http"`
	Database DatabaseConfig `toml:"database"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type TelegramConfig struct {
	Token string `toml:"token"`
	// 长轮询挂起秒数
	PollTimeoutSeconds int `toml:"poll_timeout_seconds"`
}

type BinanceConfig struct {
	RESTBaseURL    string `toml:"rest_base_url"`
	APIKey         string `toml:"api_key"`
	APISecret      string `toml:"api_secret"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type ZonesConfig struct {
	Timeframes       []string       `toml:"timeframes"`
	Limits           map[string]int `toml:"limits"`
	DefaultTimeframe string         `toml:"default_timeframe"`
	MaxResistance    int            `toml:"max_resistance"`
	MaxSupport       int            `toml:"max_support"`
}

type ChartConfig struct {
	Enabled        bool `toml:"enabled"`
	TimeoutSeconds int  `toml:"timeout_seconds"`
}

type HTTPConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// Load 读取配置文件（可不存在），套用环境变量覆盖与默认值。
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// 敏感信息优先取环境变量
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.Binance.APISecret = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Telegram.PollTimeoutSeconds <= 0 {
		c.Telegram.PollTimeoutSeconds = 50
	}
	if c.Binance.TimeoutSeconds <= 0 {
		c.Binance.TimeoutSeconds = 15
	}
	if len(c.Zones.Timeframes) == 0 {
		c.Zones.Timeframes = []string{"1h", "4h", "12h"}
	}
	if len(c.Zones.Limits) == 0 {
		c.Zones.Limits = map[string]int{"1h": 500, "4h": 300, "12h": 200}
	}
	if c.Zones.DefaultTimeframe == "" {
		c.Zones.DefaultTimeframe = "4h"
	}
	if c.Zones.MaxResistance <= 0 {
		c.Zones.MaxResistance = 3
	}
	if c.Zones.MaxSupport <= 0 {
		c.Zones.MaxSupport = 4
	}
	if c.Chart.TimeoutSeconds <= 0 {
		c.Chart.TimeoutSeconds = 30
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = ":8787"
	}
}

// BinanceTimeout 返回 HTTP 超时时长。
func (c *Config) BinanceTimeout() time.Duration {
	return time.Duration(c.Binance.TimeoutSeconds) * time.Second
}

// ChartTimeout 返回截图超时时长。
func (c *Config) ChartTimeout() time.Duration {
	return time.Duration(c.Chart.TimeoutSeconds) * time.Second
}

// ValidTimeframe 判断 tf 是否在配置的 timeframe 列表中。
func (c *Config) ValidTimeframe(tf string) bool {
	for _, v := range c.Zones.Timeframes {
		if v == tf {
			return true
		}
	}
	return false
}
