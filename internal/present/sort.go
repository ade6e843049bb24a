package present

import (
	"sort"
	"strings"

	"riskadvisor/internal/domain"
)

// sortRows compara como numero cuando ambos valores lo son y como texto si no.
// Los vacios quedan al final en ambos sentidos.
func sortRows(rows []domain.Row, col string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][col], rows[j][col]
		aEmpty, bEmpty := domain.Text(a) == "", domain.Text(b) == ""
		if aEmpty || bEmpty {
			return !aEmpty && bEmpty
		}
		less, equal := compareCells(a, b)
		if equal {
			return false
		}
		if desc {
			return !less
		}
		return less
	})
}

func compareCells(a, b any) (less, equal bool) {
	fa, okA := domain.Float(a)
	fb, okB := domain.Float(b)
	if okA && okB {
		return fa < fb, fa == fb
	}
	sa, sb := strings.ToLower(domain.Text(a)), strings.ToLower(domain.Text(b))
	return sa < sb, sa == sb
}
