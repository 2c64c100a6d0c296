// Package chart 负责把 K 线与 S/R 区间渲染为图片：
// go-echarts 生成 HTML，chromedp 截屏得到 PNG。
package chart

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"ridge/internal/analysis/zone"
	"ridge/internal/market"
)

// TradingView 暗色系配色。
const (
	bgColor         = "#131722"
	textColor       = "#b2b5be"
	upColor         = "#26a69a"
	downColor       = "#ef5350"
	supportColor    = "rgba(38,166,154,0.25)"
	resistanceColor = "rgba(239,83,80,0.25)"
)

// 图表最多显示的 K 线数量。
const maxDisplayCandles = 120

// Params 是一次渲染的全部输入。
type Params struct {
	Symbol       string
	Timeframe    string
	Candles      []market.Candle // 主 timeframe 的 K 线
	Zones        []zone.Zone     // 要绘制的区间（通常为最近区间的汇总）
	CurrentPrice float64
	AsOf         time.Time // 区间年龄的计算基准
}

// BuildHTML 渲染 echarts K 线图 HTML。
func BuildHTML(p Params) ([]byte, error) {
	candles := p.Candles
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles to render")
	}
	if len(candles) > maxDisplayCandles {
		candles = candles[len(candles)-maxDisplayCandles:]
	}

	xAxis := make([]string, 0, len(candles))
	klineData := make([]opts.KlineData, 0, len(candles))
	for _, c := range candles {
		ts := time.UnixMilli(c.OpenTime).UTC()
		xAxis = append(xAxis, ts.Format("Jan 02 15:04"))
		// echarts K 线数据顺序：open close low high
		klineData = append(klineData, opts.KlineData{
			Value: [4]float64{c.Open, c.Close, c.Low, c.High},
		})
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           "1400px",
			Height:          "720px",
			BackgroundColor: bgColor,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%s · %s · Binance Futures", p.Symbol, p.Timeframe),
			Left:  "left",
			TitleStyle: &opts.TextStyle{
				Color:    textColor,
				FontSize: 14,
			},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: textColor},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: textColor},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        upColor,
			Color0:       downColor,
			BorderColor:  upColor,
			BorderColor0: downColor,
		}),
	}
	if len(xAxis) > 0 {
		first, last := xAxis[0], xAxis[len(xAxis)-1]
		for _, z := range p.Zones {
			seriesOpts = append(seriesOpts, charts.WithMarkAreaNameCoordItemOpts(opts.MarkAreaNameCoordItem{
				Name:        zoneLabel(z, p.AsOf),
				Coordinate0: []interface{}{first, z.Low},
				Coordinate1: []interface{}{last, z.High},
				ItemStyle: &opts.ItemStyle{
					Color: zoneColor(z.Kind),
				},
			}))
		}
	}
	if p.CurrentPrice > 0 {
		seriesOpts = append(seriesOpts,
			charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{
				Name:  fmt.Sprintf("%.6g", p.CurrentPrice),
				YAxis: p.CurrentPrice,
			}),
			charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
				Symbol: []string{"none", "none"},
				LineStyle: &opts.LineStyle{
					Color: textColor,
					Type:  "solid",
					Width: 1,
				},
			}),
		)
	}

	kline.SetXAxis(xAxis).AddSeries("kline", klineData, seriesOpts...)

	var buf bytes.Buffer
	if err := kline.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zoneColor(k zone.Kind) string {
	if k == zone.Resistance {
		return resistanceColor
	}
	return supportColor
}

func zoneLabel(z zone.Zone, asOf time.Time) string {
	kind := "SUPPORT"
	if z.Kind == zone.Resistance {
		kind = "RESISTANCE"
	}
	label := fmt.Sprintf("%s %.6g-%.6g (%dd)", kind, z.Low, z.High, int(z.AgeDays(asOf)))
	if z.Timeframe != "" {
		label = "[" + z.Timeframe + "] " + label
	}
	return label
}
