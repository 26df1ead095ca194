package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ParamKind tags the value held by a HyperParam.
type ParamKind uint8

// Hyperparameter kinds. Opaque holds the string form of a value that has no
// primitive representation.
const (
	ParamInt ParamKind = iota + 1
	ParamFloat
	ParamBool
	ParamString
	ParamOpaque
)

// HyperParam is a fitted hyperparameter value. Exactly one field is
// meaningful, selected by Kind.
type HyperParam struct {
	Kind  ParamKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// Hyperparameters maps parameter names to values.
type Hyperparameters map[string]HyperParam

// IntParam wraps an integer value.
func IntParam(v int) HyperParam { return HyperParam{Kind: ParamInt, Int: int64(v)} }

// FloatParam wraps a float value.
func FloatParam(v float64) HyperParam { return HyperParam{Kind: ParamFloat, Float: v} }

// BoolParam wraps a boolean value.
func BoolParam(v bool) HyperParam { return HyperParam{Kind: ParamBool, Bool: v} }

// StringParam wraps a string value.
func StringParam(v string) HyperParam { return HyperParam{Kind: ParamString, Str: v} }

// OpaqueParam stores the string form of v.
func OpaqueParam(v any) HyperParam { return HyperParam{Kind: ParamOpaque, Str: fmt.Sprint(v)} }

// Value returns the primitive held by p.
func (p HyperParam) Value() any {
	switch p.Kind {
	case ParamInt:
		return p.Int
	case ParamFloat:
		return p.Float
	case ParamBool:
		return p.Bool
	case ParamString, ParamOpaque:
		return p.Str
	default:
		return nil
	}
}

// String renders p for logs and CLIs.
func (p HyperParam) String() string {
	switch p.Kind {
	case ParamInt:
		return strconv.FormatInt(p.Int, 10)
	case ParamFloat:
		return strconv.FormatFloat(p.Float, 'g', -1, 64)
	case ParamBool:
		return strconv.FormatBool(p.Bool)
	default:
		return p.Str
	}
}

// MarshalJSON emits the primitive value. Non-finite floats are stringified.
func (p HyperParam) MarshalJSON() ([]byte, error) {
	if p.Kind == ParamFloat && (math.IsNaN(p.Float) || math.IsInf(p.Float, 0)) {
		return json.Marshal(p.String())
	}
	return json.Marshal(p.Value())
}

// UnmarshalJSON infers the kind from the JSON token. Opaque values come back
// as ParamString since the distinction is not carried on the wire.
func (p *HyperParam) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*p = BoolParam(v)
	case string:
		*p = StringParam(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			*p = HyperParam{Kind: ParamInt, Int: i}
			return nil
		}
		f, err := v.Float64()
		if err != nil {
			return fmt.Errorf("hyperparameter %q: %w", v.String(), err)
		}
		*p = FloatParam(f)
	case nil:
		*p = HyperParam{}
	default:
		*p = OpaqueParam(v)
	}
	return nil
}
