// Package agent 承载 Telegram 交互入口：长轮询收消息，按需触发分析并回图。
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"ridge/internal/agent/service/analysis"
	"ridge/internal/analysis/zone"
	"ridge/internal/chart"
	"ridge/internal/config"
	"ridge/internal/gateway/binance"
	"ridge/internal/gateway/notifier"
	"ridge/internal/logger"
)

const helpText = "发送 `交易对 [timeframe]` 即可分析，例如：\n" +
	"`VET` 或 `VET 1h`\n" +
	"支持的 timeframe 取决于配置（默认 1h/4h/12h）。"

type BotParams struct {
	Config      *config.Config
	Telegram    *notifier.Telegram
	Analysis    *analysis.Service
	Snapshotter *chart.Snapshotter // 为 nil 时只回文本
}

// Bot 是 Telegram 前端。
type Bot struct {
	cfg  *config.Config
	tg   *notifier.Telegram
	svc  *analysis.Service
	snap *chart.Snapshotter
}

func NewBot(p BotParams) *Bot {
	return &Bot{
		cfg:  p.Config,
		tg:   p.Telegram,
		svc:  p.Analysis,
		snap: p.Snapshotter,
	}
}

// Run 启动长轮询循环，直到 ctx 取消。
func (b *Bot) Run(ctx context.Context) error {
	if b == nil || b.tg == nil {
		return fmt.Errorf("telegram 未配置")
	}
	logger.Infof("[bot] long polling started")
	var offset int64
	for {
		updates, err := b.tg.GetUpdates(ctx, offset, b.cfg.Telegram.PollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warnf("[bot] getUpdates failed: %v", err)
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil {
				continue
			}
			b.handleMessage(ctx, u.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *notifier.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	chatID := msg.Chat.ID
	if strings.HasPrefix(text, "/start") || strings.HasPrefix(text, "/help") {
		if _, err := b.tg.SendText(ctx, chatID, helpText); err != nil {
			logger.Warnf("[bot] send help failed: %v", err)
		}
		return
	}
	if strings.HasPrefix(text, "/") {
		return
	}

	symbol, tf, err := b.parseCommand(text)
	if err != nil {
		_, _ = b.tg.SendText(ctx, chatID, "⚠️ "+err.Error()+"\n\n"+helpText)
		return
	}

	statusID, err := b.tg.SendText(ctx, chatID,
		fmt.Sprintf("⏳ 正在分析 *%s* (%s)…", symbol, tf))
	if err != nil {
		logger.Warnf("[bot] send status failed: %v", err)
	}

	res, err := b.svc.Analyze(ctx, analysis.Request{
		Symbol:    symbol,
		Timeframe: tf,
		ChatID:    chatID,
	})
	if err != nil {
		logger.Errorf("[bot] analyze %s %s failed: %v", symbol, tf, err)
		b.replaceStatus(ctx, chatID, statusID,
			fmt.Sprintf("❌ 分析 %s 失败：%v", symbol, err))
		return
	}

	summary := formatResult(res)
	if png := b.renderChart(ctx, res); png != nil {
		if err := b.tg.SendPhoto(ctx, chatID, summary, png); err != nil {
			logger.Warnf("[bot] send photo failed, fallback to text: %v", err)
			b.replaceStatus(ctx, chatID, statusID, summary)
			return
		}
		if statusID != 0 {
			b.tg.Delete(ctx, chatID, statusID)
		}
		return
	}
	b.replaceStatus(ctx, chatID, statusID, summary)
}

// parseCommand 解析 "VET" / "vet 1h" 形式的请求。
func (b *Bot) parseCommand(text string) (symbol, tf string, err error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 {
		return "", "", fmt.Errorf("无法识别的请求")
	}
	symbol = binance.NormalizeSymbol(fields[0])
	if symbol == "" {
		return "", "", fmt.Errorf("交易对不能为空")
	}
	tf = b.cfg.Zones.DefaultTimeframe
	if len(fields) == 2 {
		tf = strings.ToLower(strings.TrimSpace(fields[1]))
		if !b.cfg.ValidTimeframe(tf) {
			return "", "", fmt.Errorf("不支持的 timeframe：%s（可用：%s）",
				tf, strings.Join(b.cfg.Zones.Timeframes, "/"))
		}
	}
	return symbol, tf, nil
}

func (b *Bot) replaceStatus(ctx context.Context, chatID, statusID int64, text string) {
	if statusID != 0 {
		if err := b.tg.EditText(ctx, chatID, statusID, text); err == nil {
			return
		}
	}
	if _, err := b.tg.SendText(ctx, chatID, text); err != nil {
		logger.Warnf("[bot] send result failed: %v", err)
	}
}

// renderChart 生成图表 PNG；chart 关闭或截图失败时返回 nil。
func (b *Bot) renderChart(ctx context.Context, res *analysis.Result) []byte {
	if b.snap == nil || len(res.Candles) == 0 {
		return nil
	}
	// 只画最近区间，全量区间会把图塞满
	zones := make([]zone.Zone, 0, len(res.Nearest.Resistance)+len(res.Nearest.Support))
	zones = append(zones, res.Nearest.Resistance...)
	zones = append(zones, res.Nearest.Support...)
	html, err := chart.BuildHTML(chart.Params{
		Symbol:       res.Symbol,
		Timeframe:    res.Timeframe,
		Candles:      res.Candles,
		Zones:        zones,
		CurrentPrice: res.Price,
		AsOf:         res.GeneratedAt,
	})
	if err != nil {
		logger.Warnf("[bot] build chart failed: %v", err)
		return nil
	}
	png, err := b.snap.Snapshot(ctx, html)
	if err != nil {
		logger.Warnf("[bot] snapshot failed: %v", err)
		return nil
	}
	return png
}

// formatResult 生成 Markdown 摘要，区间表放在 text 代码块里保持对齐。
func formatResult(res *analysis.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s* · %s · `%.6g`\n", res.Symbol, res.Timeframe, res.Price)
	if ind := res.Indicators; ind != nil {
		fmt.Fprintf(&sb, "RSI %.1f (%s) · EMA %s · ATR %.2f%%\n",
			ind.RSI, ind.RSIState, ind.EMAState, ind.ATRPct)
	}

	rows := len(res.Nearest.Resistance) + len(res.Nearest.Support)
	if rows == 0 {
		sb.WriteString("\n附近没有可用的支撑/阻力区间。")
		return sb.String()
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"SIDE", "TF", "RANGE", "DIST", "STR", "AGE"})
	inside := false
	appendZone := func(side string, z zone.Zone) {
		rng := fmt.Sprintf("%.6g-%.6g", z.Low, z.High)
		if z.ContainsPrice(res.Price, 0) {
			rng += " ←"
			inside = true
		}
		t.AppendRow(table.Row{
			side, z.Timeframe, rng,
			fmt.Sprintf("%+.2f%%", z.DistancePct(res.Price)),
			z.Strength,
			fmt.Sprintf("%dd", int(z.AgeDays(res.GeneratedAt))),
		})
	}
	for _, z := range res.Nearest.Resistance {
		appendZone("R", z)
	}
	for _, z := range res.Nearest.Support {
		appendZone("S", z)
	}
	sb.WriteString("\n```text\n")
	sb.WriteString(t.Render())
	sb.WriteString("\n```")
	if inside {
		sb.WriteString("\n← 当前价位于该区间内")
	}
	fmt.Fprintf(&sb, "\n_%d zones · %s_", res.ZonesTotal(), res.Duration.Round(time.Millisecond))
	return sb.String()
}
