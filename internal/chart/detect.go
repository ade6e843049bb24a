// Package chart elige y prepara la vista grafica de un dataset a partir de
// los nombres y valores de sus columnas.
package chart

import (
	"strings"

	"riskadvisor/internal/domain"
)

var (
	latitudeNames  = []string{"latitude", "lat", "latitude_decimal"}
	longitudeNames = []string{"longitude", "lng", "longitude_decimal"}

	mapLatitudeNames  = []string{"latitude", "lat", "latitude_decimal", "recommended_latitude"}
	mapLongitudeNames = []string{"longitude", "lng", "longitude_decimal", "recommended_longitude"}

	titleHints = []string{"name", "location", "address", "city", "id"}
)

// DetectChartType aplica las heuristicas en orden: serie temporal, geo,
// torta, barras apiladas y por ultimo barras.
func DetectChartType(ds *domain.Dataset) domain.ChartType {
	if ds.Len() == 0 {
		return domain.ChartBar
	}
	numeric := NumericColumns(ds)

	if TimeColumn(ds) != "" && len(numeric) > 0 {
		return domain.ChartLine
	}
	for _, col := range ds.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "country") || strings.Contains(lower, "lat") || strings.Contains(lower, "lng") {
			return domain.ChartMap
		}
	}
	if len(numeric) == 1 && len(ds.Columns) == 2 {
		return domain.ChartPie
	}
	if len(numeric) > 2 {
		return domain.ChartStackedBar
	}
	return domain.ChartBar
}

// NumericColumns son las columnas con al menos un valor numerico o un string numerico.
func NumericColumns(ds *domain.Dataset) []string {
	if ds.Len() == 0 {
		return nil
	}
	out := make([]string, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		for _, row := range ds.Rows {
			if _, ok := domain.Float(row[col]); ok {
				out = append(out, col)
				break
			}
		}
	}
	return out
}

// TimeColumn devuelve la primera columna temporal: nombre con date/time o
// algun valor de texto que se pueda leer como fecha.
func TimeColumn(ds *domain.Dataset) string {
	if ds.Len() == 0 {
		return ""
	}
	for _, col := range ds.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
			return col
		}
	}
	for _, col := range ds.Columns {
		for _, row := range ds.Rows {
			if s, ok := row[col].(string); ok && !domain.ParseTimestamp(strings.TrimSpace(s)).IsZero() {
				return col
			}
		}
	}
	return ""
}

// CheckGeoData exige columnas de latitud y longitud con nombre exacto y al
// menos una fila con coordenadas validas distintas de cero.
func CheckGeoData(ds *domain.Dataset) bool {
	if ds.Len() == 0 {
		return false
	}
	latCol := findColumn(ds.Columns, latitudeNames)
	lngCol := findColumn(ds.Columns, longitudeNames)
	if latCol == "" || lngCol == "" {
		return false
	}
	for _, row := range ds.Rows {
		if _, _, ok := coordinates(row, latCol, lngCol); ok {
			return true
		}
	}
	return false
}

func coordinates(row domain.Row, latCol, lngCol string) (float64, float64, bool) {
	lat, okLat := domain.Float(row[latCol])
	lng, okLng := domain.Float(row[lngCol])
	if !okLat || !okLng || lat == 0 || lng == 0 {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

func findColumn(columns, names []string) string {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, name := range names {
			if lower == name {
				return col
			}
		}
	}
	return ""
}

func isCoordinateColumn(col string) bool {
	lower := strings.ToLower(col)
	for _, group := range [][]string{mapLatitudeNames, mapLongitudeNames} {
		for _, name := range group {
			if lower == name {
				return true
			}
		}
	}
	return false
}
