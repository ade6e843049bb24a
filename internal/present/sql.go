// Package present concentra el formateo de texto que comparten la terminal y el gateway.
package present

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

var (
	sqlSpaces   = regexp.MustCompile(`\s+`)
	sqlKeywords = regexp.MustCompile(`(?i)\b(SELECT|FROM|WHERE|AND|OR|JOIN|INNER JOIN|LEFT JOIN|RIGHT JOIN|FULL JOIN|GROUP BY|ORDER BY|HAVING|LIMIT|UNION)\b`)
	sqlCommas   = regexp.MustCompile(`,\s*(\w)`)
	sqlCond     = regexp.MustCompile(`(?i)^(AND|OR)\b`)
	sqlClause   = regexp.MustCompile(`(?i)^(SELECT|FROM|WHERE|GROUP BY|ORDER BY|HAVING|LIMIT|UNION|JOIN|INNER JOIN|LEFT JOIN|RIGHT JOIN|FULL JOIN)\b`)
)

// FormatSQL corta antes de cada clausula, una columna por linea, y sangra
// condiciones y listas.
func FormatSQL(sql string) string {
	flat := strings.TrimSpace(sqlSpaces.ReplaceAllString(sql, " "))
	if flat == "" {
		return ""
	}
	flat = sqlKeywords.ReplaceAllString(flat, "\n$1")
	flat = sqlCommas.ReplaceAllString(flat, ",\n    $1")

	lines := make([]string, 0, 8)
	for _, line := range strings.Split(flat, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case sqlCond.MatchString(trimmed):
			lines = append(lines, "  "+trimmed)
		case sqlClause.MatchString(trimmed):
			lines = append(lines, trimmed)
		default:
			lines = append(lines, "    "+trimmed)
		}
	}
	return strings.Join(lines, "\n")
}

// HighlightSQL colorea la consulta para terminal 256 colores. Si chroma falla
// devuelve el texto sin color.
func HighlightSQL(sql string) string {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, sql, "sql", "terminal256", "monokai"); err != nil {
		return sql
	}
	return buf.String()
}
