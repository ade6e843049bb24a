package chart

import (
	"strings"

	"riskadvisor/internal/domain"
)

const defaultTitle = "Data Visualization"

// NormalizeType lleva las variantes del backend ("Stacked Bar", "scatterplot",
// "Area Chart") a un ChartType. Lo desconocido se dibuja como barras.
func NormalizeType(raw string) domain.ChartType {
	t := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	t = strings.ReplaceAll(t, "_", "-")
	switch {
	case t == "":
		return ""
	case strings.Contains(t, "map"):
		return domain.ChartMap
	case strings.Contains(t, "stack"):
		return domain.ChartStackedBar
	case strings.Contains(t, "scatter"):
		return domain.ChartScatter
	case strings.Contains(t, "area"):
		return domain.ChartArea
	case strings.Contains(t, "donut"):
		return domain.ChartDonut
	case strings.Contains(t, "pie"):
		return domain.ChartPie
	case strings.Contains(t, "line"):
		return domain.ChartLine
	case strings.Contains(t, "histogram"):
		return domain.ChartHistogram
	case strings.Contains(t, "heatmap"):
		return domain.ChartHeatmap
	}
	return domain.ChartBar
}

// NeedsAxes indica si el tipo usa ejes X/Y elegibles.
func NeedsAxes(t domain.ChartType) bool {
	switch t {
	case domain.ChartPie, domain.ChartDonut, domain.ChartHeatmap, domain.ChartMap:
		return false
	}
	return true
}

// Resolve combina la pista del backend, un tipo pedido por el usuario y la
// deteccion. Un mapa sin coordenadas validas o un tipo sin ejes posibles
// termina en barras.
func Resolve(ds *domain.Dataset, hint *domain.VisualizationConfig, override domain.ChartType) domain.ChartConfig {
	cfg := domain.ChartConfig{Title: defaultTitle, Data: []domain.Row{}}
	if hint != nil && strings.TrimSpace(hint.Title) != "" {
		cfg.Title = hint.Title
	}

	chartType := NormalizeType(string(override))
	if chartType == "" && hint != nil {
		chartType = NormalizeType(hint.RequestedType())
	}
	if chartType == "" {
		chartType = DetectChartType(ds)
	}
	cfg.Type = chartType

	if ds.Len() == 0 {
		cfg.Type = domain.ChartBar
		return cfg
	}

	if cfg.Type == domain.ChartMap {
		points := PrepareMapData(ds)
		if CheckGeoData(ds) && len(points) > 0 {
			cfg.Data = make([]domain.Row, 0, len(points))
			for _, p := range points {
				cfg.Data = append(cfg.Data, domain.Row{"latitude": p.Latitude, "longitude": p.Longitude, "title": p.Title})
			}
			return cfg
		}
		cfg.Type = domain.ChartBar
	}

	numeric := NumericColumns(ds)
	cfg.XAxis = ds.Columns[0]
	if len(numeric) > 0 {
		cfg.YAxis = numeric[0]
	}
	if hint != nil {
		if hasColumn(ds.Columns, hint.XAxis) {
			cfg.XAxis = hint.XAxis
		}
		if hasColumn(ds.Columns, hint.YAxis) {
			cfg.YAxis = hint.YAxis
		}
	}

	if cfg.YAxis == "" && cfg.Type != domain.ChartBar {
		cfg.Type = domain.ChartBar
	}
	if cfg.Type == domain.ChartStackedBar {
		cfg.Series = numeric
	}
	if !NeedsAxes(cfg.Type) && cfg.Type != domain.ChartHeatmap {
		cfg.XAxis, cfg.YAxis = "", ""
	}
	cfg.Data = PrepareChartData(ds, cfg.Type)
	return cfg
}

func hasColumn(columns []string, name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
