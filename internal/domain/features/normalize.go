package features

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// canonical folds a categorical spelling into the form used by the alias
// tables: NFKC-normalized, case-folded, separators collapsed to single spaces.
func canonical(s string) string {
	s = norm.NFKC.String(s)
	// Casers are stateful; one per call keeps this safe for concurrent use.
	s = cases.Fold().String(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', '/', '\\', ':', ',', '\t':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// compact is canonical with all spaces removed; used for column names where
// "Satisfaction Level", "satisfaction_level" and "satisfactionLevel" must agree.
func compact(s string) string {
	return strings.ReplaceAll(canonical(s), " ", "")
}
