package features

// Salary is the ordinal salary band.
type Salary int

// Salary bands in ordinal order.
const (
	SalaryLow Salary = iota
	SalaryMedium
	SalaryHigh
)

func (s Salary) String() string {
	switch s {
	case SalaryLow:
		return "low"
	case SalaryHigh:
		return "high"
	default:
		return "medium"
	}
}

// salaryAliases maps canonical spellings seen across ingestion sources to bands.
var salaryAliases = map[string]Salary{
	"low":         SalaryLow,
	"lo":          SalaryLow,
	"l":           SalaryLow,
	"1":           SalaryLow,
	"low salary":  SalaryLow,
	"low pay":     SalaryLow,
	"lower":       SalaryLow,
	"junior":      SalaryLow,
	"band 1":      SalaryLow,
	"medium":      SalaryMedium,
	"med":         SalaryMedium,
	"mid":         SalaryMedium,
	"middle":      SalaryMedium,
	"m":           SalaryMedium,
	"2":           SalaryMedium,
	"average":     SalaryMedium,
	"moderate":    SalaryMedium,
	"medium pay":  SalaryMedium,
	"band 2":      SalaryMedium,
	"high":        SalaryHigh,
	"hi":          SalaryHigh,
	"h":           SalaryHigh,
	"3":           SalaryHigh,
	"high salary": SalaryHigh,
	"high pay":    SalaryHigh,
	"higher":      SalaryHigh,
	"top":         SalaryHigh,
	"band 3":      SalaryHigh,
}

// ParseSalary resolves a salary spelling. ok is false for unknown values.
func ParseSalary(raw string) (band Salary, ok bool) {
	band, ok = salaryAliases[canonical(raw)]
	return band, ok
}

// departmentAliases maps canonical spellings to the department names used in
// the historical HR extract.
var departmentAliases = map[string]string{
	"sales":                    "sales",
	"sale":                     "sales",
	"sales dept":               "sales",
	"sales department":         "sales",
	"accounting":               "accounting",
	"accounts":                 "accounting",
	"finance":                  "accounting",
	"hr":                       "hr",
	"h r":                      "hr",
	"human resources":          "hr",
	"human resource":           "hr",
	"people":                   "hr",
	"personnel":                "hr",
	"technical":                "technical",
	"tech":                     "technical",
	"support":                  "support",
	"customer support":         "support",
	"helpdesk":                 "support",
	"management":               "management",
	"mgmt":                     "management",
	"managers":                 "management",
	"it":                       "it",
	"i t":                      "it",
	"information technology":   "it",
	"product mng":              "product_mng",
	"product mgmt":             "product_mng",
	"product management":       "product_mng",
	"product":                  "product_mng",
	"marketing":                "marketing",
	"mktg":                     "marketing",
	"randd":                    "randd",
	"r&d":                      "randd",
	"r & d":                    "randd",
	"r and d":                  "randd",
	"rnd":                      "randd",
	"research and development": "randd",
	"research & development":   "randd",
	"research":                 "randd",
}

// UnknownDepartment is the bucket for departments outside the learned vocabulary.
const UnknownDepartment = "unknown"

// CanonicalDepartment resolves a department spelling. Departments not covered
// by the alias table keep their canonical form with spaces as underscores, so
// the vocabulary stays an open set.
func CanonicalDepartment(raw string) string {
	c := canonical(raw)
	if d, ok := departmentAliases[c]; ok {
		return d
	}
	out := make([]rune, 0, len(c))
	for _, r := range c {
		if r == ' ' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}
