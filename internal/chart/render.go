package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"riskadvisor/internal/domain"
)

const (
	maxRenderedRows = 20
	labelWidth      = 18
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// RenderText dibuja una vista previa del grafico para la terminal.
func RenderText(cfg domain.ChartConfig, width int) string {
	if width < 40 {
		width = 40
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", cfg.Title, cfg.Type)
	if len(cfg.Data) == 0 {
		b.WriteString("No data available\n")
		return b.String()
	}

	switch cfg.Type {
	case domain.ChartMap:
		renderMap(&b, cfg)
	case domain.ChartLine, domain.ChartArea:
		renderSpark(&b, cfg, width)
	case domain.ChartPie, domain.ChartDonut:
		renderPie(&b, cfg, width)
	default:
		renderBars(&b, cfg, cfg.XAxis, cfg.YAxis, width)
	}
	return b.String()
}

func renderBars(b *strings.Builder, cfg domain.ChartConfig, labelCol, valueCol string, width int) {
	rows := cfg.Data
	if len(rows) > maxRenderedRows {
		rows = rows[:maxRenderedRows]
	}
	maxAbs := 0.0
	for _, row := range rows {
		v, _ := domain.Float(row[valueCol])
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	barSpace := width - labelWidth - 16
	for _, row := range rows {
		v, _ := domain.Float(row[valueCol])
		n := 0
		if maxAbs > 0 {
			n = int(math.Round(math.Abs(v) / maxAbs * float64(barSpace)))
		}
		label := fitLabel(domain.Text(row[labelCol]))
		fmt.Fprintf(b, "%s │%s %s\n", label, strings.Repeat("█", n), formatValue(v))
	}
	if extra := len(cfg.Data) - len(rows); extra > 0 {
		fmt.Fprintf(b, "… %d more rows\n", extra)
	}
}

func renderPie(b *strings.Builder, cfg domain.ChartConfig, width int) {
	total := 0.0
	for _, row := range cfg.Data {
		v, _ := domain.Float(row["value"])
		total += math.Abs(v)
	}
	barSpace := width - labelWidth - 16
	rows := cfg.Data
	if len(rows) > maxRenderedRows {
		rows = rows[:maxRenderedRows]
	}
	for _, row := range rows {
		v, _ := domain.Float(row["value"])
		pct := 0.0
		if total > 0 {
			pct = math.Abs(v) / total
		}
		n := int(math.Round(pct * float64(barSpace)))
		fmt.Fprintf(b, "%s │%s %.1f%%\n", fitLabel(domain.Text(row["category"])), strings.Repeat("▓", n), pct*100)
	}
}

func renderSpark(b *strings.Builder, cfg domain.ChartConfig, width int) {
	values := make([]float64, 0, len(cfg.Data))
	for _, row := range cfg.Data {
		if v, ok := domain.Float(row[cfg.YAxis]); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		b.WriteString("No numeric values\n")
		return
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	var line strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		line.WriteRune(sparkBlocks[idx])
	}
	fmt.Fprintf(b, "%s\n", line.String())
	first := domain.Text(cfg.Data[0][cfg.XAxis])
	last := domain.Text(cfg.Data[len(cfg.Data)-1][cfg.XAxis])
	fmt.Fprintf(b, "%s → %s  min %s  max %s\n", first, last, formatValue(lo), formatValue(hi))
}

func renderMap(b *strings.Builder, cfg domain.ChartConfig) {
	fmt.Fprintf(b, "%d locations\n", len(cfg.Data))
	rows := cfg.Data
	if len(rows) > maxRenderedRows {
		rows = rows[:maxRenderedRows]
	}
	for _, row := range rows {
		lat, _ := domain.Float(row["latitude"])
		lng, _ := domain.Float(row["longitude"])
		fmt.Fprintf(b, "%s  %.4f, %.4f\n", fitLabel(domain.Text(row["title"])), lat, lng)
	}
}

func fitLabel(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.FillRight(runewidth.Truncate(s, labelWidth, "…"), labelWidth)
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
