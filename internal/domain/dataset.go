package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Row es una fila tabular tal como la devuelve el backend.
type Row map[string]any

// Dataset conserva el orden de columnas del payload; encoding/json pierde el
// orden de claves al decodificar en map, por eso se recorre con tokens.
// Los payloads que no son tabulares quedan sin filas y se guardan en Raw.
type Dataset struct {
	Columns []string
	Rows    []Row
	Raw     json.RawMessage
}

var ErrDatasetShape = errors.New("dataset must be an object or an array of objects")

// NewDataset arma un dataset con columnas explicitas.
func NewDataset(columns []string, rows []Row) *Dataset {
	return &Dataset{Columns: columns, Rows: rows}
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// IsTabular indica si el payload se pudo leer como filas.
func (d *Dataset) IsTabular() bool {
	return d != nil && len(d.Raw) == 0
}

// UnmarshalJSON acepta cualquier valor: objetos y arrays de objetos se leen
// como filas (los null se saltan); el resto se conserva en Raw.
func (d *Dataset) UnmarshalJSON(raw []byte) error {
	err := d.decodeTabular(raw)
	if errors.Is(err, ErrDatasetShape) {
		d.Columns = nil
		d.Rows = nil
		d.Raw = append(json.RawMessage(nil), raw...)
		return nil
	}
	return err
}

func (d *Dataset) decodeTabular(raw []byte) error {
	d.Columns = nil
	d.Rows = nil
	d.Raw = nil

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return ErrDatasetShape
	}

	seen := map[string]bool{}
	switch delim {
	case '{':
		row, err := d.decodeObject(dec, seen)
		if err != nil {
			return err
		}
		if len(row) > 0 {
			d.Rows = append(d.Rows, row)
		}
	case '[':
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			if tok == nil {
				continue
			}
			if open, ok := tok.(json.Delim); !ok || open != '{' {
				return ErrDatasetShape
			}
			row, err := d.decodeObject(dec, seen)
			if err != nil {
				return err
			}
			d.Rows = append(d.Rows, row)
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
	default:
		return ErrDatasetShape
	}
	return nil
}

// decodeObject lee un objeto cuyo '{' ya fue consumido.
func (d *Dataset) decodeObject(dec *json.Decoder, seen map[string]bool) (Row, error) {
	row := Row{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, ErrDatasetShape
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode column %q: %w", key, err)
		}
		row[key] = value
		if !seen[key] {
			seen[key] = true
			d.Columns = append(d.Columns, key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return row, nil
}

// MarshalJSON escribe un array de objetos respetando el orden de columnas.
func (d Dataset) MarshalJSON() ([]byte, error) {
	if len(d.Rows) == 0 && len(d.Raw) > 0 {
		return d.Raw, nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range d.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := d.writeRow(&buf, row); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (d Dataset) writeRow(buf *bytes.Buffer, row Row) error {
	buf.WriteByte('{')
	first := true
	for _, col := range d.Columns {
		value, ok := row[col]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(col)
		buf.Write(key)
		buf.WriteByte(':')
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode column %q: %w", col, err)
		}
		buf.Write(encoded)
	}
	buf.WriteByte('}')
	return nil
}

// Float intenta leer un valor como numero, igual que Number(x) en el panel:
// numeros, json.Number y strings numericos.
func Float(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case bool:
		return 0, false
	}
	return 0, false
}

// IsNumber es true solo para valores realmente numericos (no strings).
func IsNumber(value any) bool {
	switch value.(type) {
	case json.Number, float64, float32, int, int64:
		return true
	}
	return false
}

// Text convierte un valor de celda en texto plano para tablas y exportes.
func Text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(encoded)
}
