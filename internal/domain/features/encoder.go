// Package features turns raw employee records into the fixed-order numeric
// vectors consumed by classifiers.
//
// Layout (indices are stable for a given schema):
//
//	0 satisfaction_level      clamped to [0,1]
//	1 last_evaluation         clamped to [0,1]
//	2 number_project
//	3 average_monthly_hours
//	4 time_spend_company
//	5 work_accident           0/1
//	6 promotion_last_5years   0/1
//	7 salary                  ordinal low=0, medium=1, high=2
//	8.. department=<name>     one-hot over the learned vocabulary, then department=unknown
//
// Continuous values outside their range and unseen categories are recovered
// locally and reported as warnings; structural problems (negative counts,
// missing categorical fields, NaN) fail with model.ValidationError.
package features

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/validation"
)

// schemaRevision is bumped whenever the vector layout above changes.
const schemaRevision = "v1"

// Base feature indices.
const (
	idxSatisfaction = iota
	idxEvaluation
	idxProjects
	idxHours
	idxTenure
	idxAccident
	idxPromotion
	idxSalary
	baseWidth
)

var baseNames = [baseWidth]string{
	"satisfaction_level",
	"last_evaluation",
	"number_project",
	"average_monthly_hours",
	"time_spend_company",
	"work_accident",
	"promotion_last_5years",
	"salary",
}

// Warning describes an input anomaly that was recovered during encoding.
type Warning struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s=%q: %s", w.Field, w.Value, w.Reason)
}

// Vector is an encoded feature row tagged with the schema that produced it.
type Vector struct {
	Schema string    `json:"schema"`
	Values []float64 `json:"values"`
}

// Base holds the decoded non-department features of a vector.
type Base struct {
	SatisfactionLevel   float64
	LastEvaluation      float64
	NumberProject       int
	AverageMonthlyHours int
	TimeSpendCompany    int
	WorkAccident        bool
	PromotionLast5Years bool
	Salary              Salary
}

// Base decodes the fixed leading features.
func (v Vector) Base() Base {
	if len(v.Values) < baseWidth {
		return Base{}
	}
	return Base{
		SatisfactionLevel:   v.Values[idxSatisfaction],
		LastEvaluation:      v.Values[idxEvaluation],
		NumberProject:       int(v.Values[idxProjects]),
		AverageMonthlyHours: int(v.Values[idxHours]),
		TimeSpendCompany:    int(v.Values[idxTenure]),
		WorkAccident:        v.Values[idxAccident] == 1,
		PromotionLast5Years: v.Values[idxPromotion] == 1,
		Salary:              Salary(v.Values[idxSalary]),
	}
}

// Encoder encodes employees against a fixed department vocabulary. It is
// immutable after construction and safe for concurrent use.
type Encoder struct {
	departments []string
	index       map[string]int
	names       []string
	schema      string
}

// NewEncoder builds an encoder for the given department vocabulary. Entries
// are canonicalized, deduplicated and sorted so the layout is deterministic.
func NewEncoder(vocabulary []string) *Encoder {
	seen := make(map[string]struct{}, len(vocabulary))
	depts := make([]string, 0, len(vocabulary))
	for _, raw := range vocabulary {
		d := CanonicalDepartment(raw)
		if d == "" || d == UnknownDepartment {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		depts = append(depts, d)
	}
	sort.Strings(depts)

	e := &Encoder{
		departments: depts,
		index:       make(map[string]int, len(depts)+1),
		names:       make([]string, 0, baseWidth+len(depts)+1),
	}
	e.names = append(e.names, baseNames[:]...)
	for i, d := range depts {
		e.index[d] = i
		e.names = append(e.names, "department="+d)
	}
	e.index[UnknownDepartment] = len(depts)
	e.names = append(e.names, "department="+UnknownDepartment)

	sum := sha256.Sum256([]byte(strings.Join(e.names, "\x00")))
	e.schema = schemaRevision + ":" + hex.EncodeToString(sum[:6])
	return e
}

// LearnEncoder derives the department vocabulary from training records.
func LearnEncoder(records []model.Employee) *Encoder {
	vocab := make([]string, 0, len(records))
	for i := range records {
		vocab = append(vocab, records[i].Department)
	}
	return NewEncoder(vocab)
}

// Vocabulary returns the learned departments in encoding order.
func (e *Encoder) Vocabulary() []string {
	return append([]string(nil), e.departments...)
}

// FeatureNames returns the name of every vector position.
func (e *Encoder) FeatureNames() []string {
	return append([]string(nil), e.names...)
}

// Width is the vector length.
func (e *Encoder) Width() int { return len(e.names) }

// Schema fingerprints the layout. Vectors and models must agree on it.
func (e *Encoder) Schema() string { return e.schema }

// Check rejects vectors produced by a different encoder.
func (e *Encoder) Check(v Vector) error {
	if v.Schema != e.schema || len(v.Values) != len(e.names) {
		return fmt.Errorf("%w: vector %s (%d values), encoder %s (%d values)",
			model.ErrSchemaMismatch, v.Schema, len(v.Values), e.schema, len(e.names))
	}
	return nil
}

// Validate runs the structural checks of Encode without needing a vocabulary.
func Validate(rec model.Employee) error {
	if err := validation.Struct(rec); err != nil {
		return err
	}
	for name, v := range map[string]float64{
		"satisfaction_level": rec.SatisfactionLevel,
		"last_evaluation":    rec.LastEvaluation,
	} {
		if math.IsNaN(v) {
			return &model.ValidationError{Field: name, Reason: "is not a number"}
		}
	}
	return nil
}

// Encode maps rec to a feature vector. Warnings list recovered anomalies.
func (e *Encoder) Encode(rec model.Employee) (Vector, []Warning, error) {
	if err := Validate(rec); err != nil {
		return Vector{}, nil, err
	}

	var warnings []Warning
	values := make([]float64, len(e.names))

	values[idxSatisfaction] = clampUnit("satisfaction_level", rec.SatisfactionLevel, &warnings)
	values[idxEvaluation] = clampUnit("last_evaluation", rec.LastEvaluation, &warnings)
	values[idxProjects] = float64(rec.NumberProject)
	values[idxHours] = float64(rec.AverageMonthlyHours)
	values[idxTenure] = float64(rec.TimeSpendCompany)
	values[idxAccident] = boolValue(rec.WorkAccident)
	values[idxPromotion] = boolValue(rec.PromotionLast5Years)

	band, ok := ParseSalary(rec.Salary)
	if !ok {
		band = SalaryMedium
		warnings = append(warnings, Warning{Field: "salary", Value: rec.Salary, Reason: "unknown salary band, using medium"})
	}
	values[idxSalary] = float64(band)

	dept := CanonicalDepartment(rec.Department)
	slot, ok := e.index[dept]
	if !ok || dept == UnknownDepartment {
		slot = e.index[UnknownDepartment]
		warnings = append(warnings, Warning{Field: "department", Value: rec.Department, Reason: "department not in training vocabulary"})
	}
	values[baseWidth+slot] = 1

	return Vector{Schema: e.schema, Values: values}, warnings, nil
}

// EncodeRows encodes labelled rows for training. The first structural error
// aborts with the offending row index.
func (e *Encoder) EncodeRows(rows []model.TrainingRow) ([][]float64, []bool, error) {
	X := make([][]float64, len(rows))
	y := make([]bool, len(rows))
	for i := range rows {
		v, _, err := e.Encode(rows[i].Employee)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
		X[i] = v.Values
		y[i] = rows[i].Left
	}
	return X, y, nil
}

func clampUnit(field string, v float64, warnings *[]Warning) float64 {
	switch {
	case v < 0:
		*warnings = append(*warnings, Warning{Field: field, Value: fmt.Sprint(v), Reason: "clamped to 0"})
		return 0
	case v > 1:
		*warnings = append(*warnings, Warning{Field: field, Value: fmt.Sprint(v), Reason: "clamped to 1"})
		return 1
	default:
		return v
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
