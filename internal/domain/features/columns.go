package features

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/attrition/internal/domain/model"
)

// Logical record fields.
const (
	colSatisfaction = "satisfaction_level"
	colEvaluation   = "last_evaluation"
	colProjects     = "number_project"
	colHours        = "average_monthly_hours"
	colTenure       = "time_spend_company"
	colAccident     = "work_accident"
	colPromotion    = "promotion_last_5years"
	colSalary       = "salary"
	colDepartment   = "department"
	colLeft         = "left"
)

// columnAliases maps compact column spellings from HR exports, spreadsheets
// and API clients to logical fields. Keys are compact() forms.
var columnAliases = map[string]string{
	"satisfactionlevel":   colSatisfaction,
	"satisfaction":        colSatisfaction,
	"satisfactionscore":   colSatisfaction,
	"sat":                 colSatisfaction,
	"lastevaluation":      colEvaluation,
	"lasteval":            colEvaluation,
	"evaluation":          colEvaluation,
	"evaluationscore":     colEvaluation,
	"numberproject":       colProjects,
	"numberprojects":      colProjects,
	"numberofprojects":    colProjects,
	"numprojects":         colProjects,
	"projects":            colProjects,
	"projectcount":        colProjects,
	"averagemonthlyhours": colHours,
	"averagemontlyhours":  colHours, // misspelling shipped in the original HR extract
	"avgmonthlyhours":     colHours,
	"monthlyhours":        colHours,
	"hours":               colHours,
	"timespendcompany":    colTenure,
	"timespentcompany":    colTenure,
	"timespentatcompany":  colTenure,
	"tenure":              colTenure,
	"yearsatcompany":      colTenure,
	"workaccident":        colAccident,
	"accident":            colAccident,
	"hadaccident":         colAccident,
	"promotionlast5years": colPromotion,
	"promotionlast5yrs":   colPromotion,
	"promotedlast5years":  colPromotion,
	"promotion":           colPromotion,
	"promoted":            colPromotion,
	"salary":              colSalary,
	"salarylevel":         colSalary,
	"salaryband":          colSalary,
	"paygrade":            colSalary,
	"department":          colDepartment,
	"dept":                colDepartment,
	"division":            colDepartment,
	"sales":               colDepartment, // the original extract names the department column "sales"
	"left":                colLeft,
	"attrition":           colLeft,
	"churn":               colLeft,
	"target":              colLeft,
}

// ResolveColumn maps a column name to its logical field, or "" if unknown.
func ResolveColumn(name string) string {
	return columnAliases[compact(name)]
}

// FromMap builds an employee from a loosely keyed record. The two boolean
// flags default to false when absent; every other field is required.
func FromMap(rec map[string]any) (model.Employee, error) {
	fields, err := resolveFields(rec)
	if err != nil {
		return model.Employee{}, err
	}
	var (
		emp model.Employee
		p   fieldParser
	)
	emp.SatisfactionLevel = p.float(fields, colSatisfaction)
	emp.LastEvaluation = p.float(fields, colEvaluation)
	emp.NumberProject = p.int(fields, colProjects)
	emp.AverageMonthlyHours = p.int(fields, colHours)
	emp.TimeSpendCompany = p.int(fields, colTenure)
	emp.WorkAccident = p.optionalBool(fields, colAccident)
	emp.PromotionLast5Years = p.optionalBool(fields, colPromotion)
	emp.Salary = p.string(fields, colSalary)
	emp.Department = p.string(fields, colDepartment)
	if p.err != nil {
		return model.Employee{}, p.err
	}
	return emp, nil
}

// FromLabeledMap is FromMap plus the required turnover label.
func FromLabeledMap(rec map[string]any) (model.TrainingRow, error) {
	emp, err := FromMap(rec)
	if err != nil {
		return model.TrainingRow{}, err
	}
	fields, _ := resolveFields(rec)
	var p fieldParser
	left := p.bool(fields, colLeft)
	if p.err != nil {
		return model.TrainingRow{}, p.err
	}
	return model.TrainingRow{Employee: emp, Left: left}, nil
}

func resolveFields(rec map[string]any) (map[string]any, error) {
	fields := make(map[string]any, len(rec))
	origin := make(map[string]string, len(rec))
	for k, v := range rec {
		field := ResolveColumn(k)
		if field == "" {
			continue
		}
		if prev, dup := origin[field]; dup {
			return nil, &model.ValidationError{Field: field, Reason: fmt.Sprintf("supplied twice (%q and %q)", prev, k)}
		}
		origin[field] = k
		fields[field] = v
	}
	return fields, nil
}

// fieldParser records the first conversion error and ignores later calls.
type fieldParser struct {
	err error
}

func (p *fieldParser) fail(field, reason string) {
	if p.err == nil {
		p.err = &model.ValidationError{Field: field, Reason: reason}
	}
}

func (p *fieldParser) lookup(fields map[string]any, field string) (any, bool) {
	v, ok := fields[field]
	if !ok || v == nil {
		p.fail(field, "is required")
		return nil, false
	}
	return v, true
}

func (p *fieldParser) float(fields map[string]any, field string) float64 {
	v, ok := p.lookup(fields, field)
	if !ok {
		return 0
	}
	f, err := toFloat(v)
	if err != nil {
		p.fail(field, err.Error())
	}
	return f
}

// maxCount bounds integer columns so conversion never wraps.
const maxCount = math.MaxInt32

func (p *fieldParser) int(fields map[string]any, field string) int {
	f := p.float(fields, field)
	if f != math.Trunc(f) {
		p.fail(field, fmt.Sprintf("must be a whole number, got %v", f))
		return 0
	}
	if math.Abs(f) > maxCount {
		p.fail(field, fmt.Sprintf("out of range, magnitude must be <= %d, got %v", maxCount, f))
		return 0
	}
	return int(f)
}

func (p *fieldParser) string(fields map[string]any, field string) string {
	v, ok := p.lookup(fields, field)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

func (p *fieldParser) bool(fields map[string]any, field string) bool {
	v, ok := p.lookup(fields, field)
	if !ok {
		return false
	}
	b, err := toBool(v)
	if err != nil {
		p.fail(field, err.Error())
	}
	return b
}

func (p *fieldParser) optionalBool(fields map[string]any, field string) bool {
	if v, ok := fields[field]; !ok || v == nil {
		return false
	}
	return p.bool(fields, field)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch canonical(b) {
		case "1", "true", "t", "yes", "y":
			return true, nil
		case "0", "false", "f", "no", "n", "":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", b)
	default:
		f, err := toFloat(v)
		if err != nil {
			return false, err
		}
		if f != 0 && f != 1 {
			return false, fmt.Errorf("not a boolean: %v", f)
		}
		return f == 1, nil
	}
}
