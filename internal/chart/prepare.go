package chart

import (
	"sort"
	"strings"

	"riskadvisor/internal/domain"
)

// PrepareMapData devuelve los puntos validos con su titulo.
func PrepareMapData(ds *domain.Dataset) []domain.MapPoint {
	if ds.Len() == 0 {
		return nil
	}
	latCol := findColumn(ds.Columns, mapLatitudeNames)
	lngCol := findColumn(ds.Columns, mapLongitudeNames)
	if latCol == "" || lngCol == "" {
		return nil
	}
	titleCol := mapTitleColumn(ds.Columns)

	points := make([]domain.MapPoint, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		lat, lng, ok := coordinates(row, latCol, lngCol)
		if !ok {
			continue
		}
		title := "Location"
		if titleCol != "" {
			if t := domain.Text(row[titleCol]); t != "" {
				title = t
			}
		}
		points = append(points, domain.MapPoint{Latitude: lat, Longitude: lng, Title: title})
	}
	return points
}

func mapTitleColumn(columns []string) string {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, hint := range titleHints {
			if strings.Contains(lower, hint) {
				return col
			}
		}
	}
	for _, col := range columns {
		if !isCoordinateColumn(col) {
			return col
		}
	}
	return ""
}

// PrepareChartData adapta las filas al tipo: torta/dona a {category,value},
// linea ordenada por la columna temporal. El resto pasa sin cambios.
func PrepareChartData(ds *domain.Dataset, chartType domain.ChartType) []domain.Row {
	if ds.Len() == 0 {
		return []domain.Row{}
	}
	switch chartType {
	case domain.ChartPie, domain.ChartDonut:
		return preparePie(ds)
	case domain.ChartLine:
		return prepareTimeSeries(ds)
	}
	return append([]domain.Row(nil), ds.Rows...)
}

func preparePie(ds *domain.Dataset) []domain.Row {
	numericCol := ""
	for _, col := range ds.Columns {
		for _, row := range ds.Rows {
			if domain.IsNumber(row[col]) {
				numericCol = col
				break
			}
		}
		if numericCol != "" {
			break
		}
	}
	categoryCol := ""
	for _, col := range ds.Columns {
		if col != numericCol {
			categoryCol = col
			break
		}
	}
	if numericCol == "" || categoryCol == "" {
		return append([]domain.Row(nil), ds.Rows...)
	}
	out := make([]domain.Row, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		value, _ := domain.Float(row[numericCol])
		out = append(out, domain.Row{"category": row[categoryCol], "value": value})
	}
	return out
}

func prepareTimeSeries(ds *domain.Dataset) []domain.Row {
	rows := append([]domain.Row(nil), ds.Rows...)
	timeCol := TimeColumn(ds)
	if timeCol == "" {
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a := domain.ParseTimestamp(domain.Text(rows[i][timeCol]))
		b := domain.ParseTimestamp(domain.Text(rows[j][timeCol]))
		return a.Before(b)
	})
	return rows
}
