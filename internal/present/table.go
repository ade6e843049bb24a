package present

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"riskadvisor/internal/domain"
)

// PageSizes son los tamaños de pagina ofrecidos por la tabla.
var PageSizes = []int{10, 25, 50}

const DefaultPageSize = 10

// DataTable es la vista filtrable, ordenable y paginada de un dataset.
type DataTable struct {
	Columns  []string
	rows     []domain.Row
	view     []domain.Row
	filter   string
	sortCol  string
	sortDesc bool
	PageSize int
	page     int
}

func NewDataTable(ds *domain.Dataset) *DataTable {
	t := &DataTable{PageSize: DefaultPageSize}
	if ds != nil {
		t.Columns = ds.Columns
		t.rows = ds.Rows
	}
	t.apply()
	return t
}

// Filter deja las filas donde algun valor contiene el termino, sin distinguir mayusculas.
func (t *DataTable) Filter(term string) {
	t.filter = strings.ToLower(strings.TrimSpace(term))
	t.page = 0
	t.apply()
}

// SortBy ordena por una columna; repetir la misma columna invierte el sentido.
// Una columna inexistente quita el orden.
func (t *DataTable) SortBy(col string) {
	if !containsString(t.Columns, col) {
		t.sortCol, t.sortDesc = "", false
	} else if t.sortCol == col {
		t.sortDesc = !t.sortDesc
	} else {
		t.sortCol, t.sortDesc = col, false
	}
	t.apply()
}

func (t *DataTable) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	t.PageSize = size
	t.page = 0
}

// Len es la cantidad de filas despues del filtro.
func (t *DataTable) Len() int { return len(t.view) }

func (t *DataTable) PageCount() int {
	if len(t.view) == 0 {
		return 1
	}
	return (len(t.view) + t.PageSize - 1) / t.PageSize
}

// Page es el indice base cero de la pagina actual.
func (t *DataTable) Page() int { return t.page }

// SetPage acota el indice al rango valido.
func (t *DataTable) SetPage(page int) {
	if page < 0 {
		page = 0
	}
	if last := t.PageCount() - 1; page > last {
		page = last
	}
	t.page = page
}

func (t *DataTable) NextPage() { t.SetPage(t.page + 1) }
func (t *DataTable) PrevPage() { t.SetPage(t.page - 1) }

// Rows devuelve las filas de la pagina actual.
func (t *DataTable) Rows() []domain.Row {
	start := t.page * t.PageSize
	if start >= len(t.view) {
		return []domain.Row{}
	}
	end := start + t.PageSize
	if end > len(t.view) {
		end = len(t.view)
	}
	return t.view[start:end]
}

func (t *DataTable) apply() {
	view := make([]domain.Row, 0, len(t.rows))
	for _, row := range t.rows {
		if t.filter == "" || t.matches(row) {
			view = append(view, row)
		}
	}
	if t.sortCol != "" {
		sortRows(view, t.sortCol, t.sortDesc)
	}
	t.view = view
	t.SetPage(t.page)
}

func (t *DataTable) matches(row domain.Row) bool {
	for _, col := range t.Columns {
		if strings.Contains(strings.ToLower(domain.Text(row[col])), t.filter) {
			return true
		}
	}
	return false
}

// Render dibuja la pagina actual como tabla de texto de ancho fijo.
func (t *DataTable) Render(width int) string {
	if len(t.Columns) == 0 {
		return "No data"
	}
	colWidth := (width - len(t.Columns) - 1) / len(t.Columns)
	if colWidth < 6 {
		colWidth = 6
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("│")
		for _, c := range cells {
			c = strings.ReplaceAll(c, "\n", " ")
			b.WriteString(runewidth.FillRight(runewidth.Truncate(c, colWidth, "…"), colWidth))
			b.WriteString("│")
		}
		b.WriteString("\n")
	}

	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
		if col == t.sortCol {
			if t.sortDesc {
				header[i] += " ↓"
			} else {
				header[i] += " ↑"
			}
		}
	}
	writeRow(header)
	b.WriteString("├" + strings.Repeat(strings.Repeat("─", colWidth)+"┼", len(t.Columns)-1) + strings.Repeat("─", colWidth) + "┤\n")
	for _, row := range t.Rows() {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = domain.Text(row[col])
		}
		writeRow(cells)
	}
	return b.String()
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
