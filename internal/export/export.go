// Package export serializa los datos tabulares de una respuesta a CSV, JSON o PDF.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"riskadvisor/internal/domain"
	"riskadvisor/internal/metrics"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

var (
	ErrNoData        = errors.New("no data to export")
	ErrUnknownFormat = errors.New("unknown export format")
)

// ParseFormat acepta csv, json o pdf sin importar mayusculas.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatCSV, FormatJSON, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
}

// ContentType es el MIME que acompaña la descarga.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// DefaultFilename es data.<ext>.
func DefaultFilename(f Format) string {
	return "data." + string(f)
}

// TimestampedFilename evita sobrescribir exportes previos desde la terminal.
func TimestampedFilename(f Format, at time.Time) string {
	return fmt.Sprintf("data_%s.%s", at.UTC().Format("20060102_150405"), f)
}

// Write escribe el dataset en el formato pedido.
func Write(w io.Writer, f Format, ds *domain.Dataset) error {
	var err error
	switch f {
	case FormatCSV:
		var out string
		if out, err = CSV(ds); err == nil {
			_, err = io.WriteString(w, out)
		}
	case FormatJSON:
		var out []byte
		if out, err = JSON(ds); err == nil {
			_, err = w.Write(out)
		}
	case FormatPDF:
		err = PDF(w, ds)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return err
	}
	metrics.Exports.WithLabelValues(string(f)).Inc()
	return nil
}

// CSV arma la cabecera y una linea por fila unidas por "\n", sin salto final.
func CSV(ds *domain.Dataset) (string, error) {
	if ds.Len() == 0 || len(ds.Columns) == 0 {
		return "", ErrNoData
	}
	lines := make([]string, 0, ds.Len()+1)
	lines = append(lines, csvLine(ds.Columns, func(col string) string { return col }))
	for _, row := range ds.Rows {
		lines = append(lines, csvLine(ds.Columns, func(col string) string { return domain.Text(row[col]) }))
	}
	return strings.Join(lines, "\n"), nil
}

func csvLine(columns []string, value func(string) string) string {
	fields := make([]string, len(columns))
	for i, col := range columns {
		fields[i] = csvEscape(value(col))
	}
	return strings.Join(fields, ",")
}

func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// JSON indenta con dos espacios respetando el orden de columnas. Sin filas es [].
func JSON(ds *domain.Dataset) ([]byte, error) {
	if ds.Len() == 0 {
		return []byte("[]"), nil
	}
	compact, err := json.Marshal(ds)
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent dataset: %w", err)
	}
	return buf.Bytes(), nil
}
