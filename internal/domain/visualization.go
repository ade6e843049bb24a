package domain

// ChartType enumera las vistas que sabe dibujar el panel.
type ChartType string

const (
	ChartBar        ChartType = "bar"
	ChartLine       ChartType = "line"
	ChartPie        ChartType = "pie"
	ChartDonut      ChartType = "donut"
	ChartScatter    ChartType = "scatter"
	ChartStackedBar ChartType = "stacked-bar"
	ChartArea       ChartType = "area"
	ChartHistogram  ChartType = "histogram"
	ChartHeatmap    ChartType = "heatmap"
	ChartMap        ChartType = "map"
)

// ChartConfig es la especificacion resuelta que consume el render.
type ChartConfig struct {
	Type  ChartType `json:"type"`
	Title string    `json:"title"`
	XAxis string    `json:"x_axis,omitempty"`
	YAxis string    `json:"y_axis,omitempty"`
	// Series solo se usa en stacked-bar: columnas numericas apiladas.
	Series []string `json:"series,omitempty"`
	Data   []Row    `json:"data"`
}

// VisualizationConfig es la pista del backend: tipo de grafico y ejes.
type VisualizationConfig struct {
	ChartType string `json:"chart_type,omitempty"`
	Type      string `json:"type,omitempty"`
	XAxis     string `json:"x_axis,omitempty"`
	YAxis     string `json:"y_axis,omitempty"`
	Title     string `json:"title,omitempty"`
}

// RequestedType devuelve chart_type o type, el que venga.
func (v VisualizationConfig) RequestedType() string {
	if v.ChartType != "" {
		return v.ChartType
	}
	return v.Type
}

// PlotlyVisualization es una figura ya armada por el agente de visualizacion.
type PlotlyVisualization struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	PlotlyJSON  string `json:"plotly_json"`
	Description string `json:"description"`
}

// MapPoint es una coordenada valida lista para el mapa.
type MapPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Title     string  `json:"title"`
}
