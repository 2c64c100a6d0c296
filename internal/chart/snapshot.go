package chart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"ridge/internal/logger"
)

// Snapshotter 用无头 Chrome 把 echarts HTML 截成 PNG。
type Snapshotter struct {
	timeout time.Duration
	// 页面渲染等待时间：echarts 动画关闭后仍需一次绘制
	settle time.Duration
}

func NewSnapshotter(timeout time.Duration) *Snapshotter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Snapshotter{timeout: timeout, settle: 1200 * time.Millisecond}
}

// Snapshot 渲染 HTML 并返回 PNG 字节。
// 环境里没有可用浏览器时返回错误，调用方应降级为纯文本输出。
func (s *Snapshotter) Snapshot(ctx context.Context, html []byte) ([]byte, error) {
	if len(html) == 0 {
		return nil, fmt.Errorf("empty html")
	}
	tmp, err := os.CreateTemp("", "ridge-chart-*.html")
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	defer os.Remove(path)
	if _, err := tmp.Write(html); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(runCtx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	var png []byte
	err = chromedp.Run(browserCtx,
		chromedp.EmulateViewport(1440, 780),
		chromedp.Navigate("file://"+abs),
		chromedp.Sleep(s.settle),
		chromedp.FullScreenshot(&png, 90),
	)
	if err != nil {
		return nil, fmt.Errorf("chart snapshot: %w", err)
	}
	logger.Debugf("[chart] snapshot done, %d bytes", len(png))
	return png, nil
}
