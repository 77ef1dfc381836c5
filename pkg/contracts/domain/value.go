package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Value is a float64 that knows whether it is present. Input panels are
// sparse: a security-month without a usable return or a fiscal year without a
// reported line item carries no number at all, and that absence must survive
// every downstream computation (absent is never zero). Arithmetic on Value
// propagates missingness algebraically, and division by zero yields a missing
// result instead of Inf/NaN, so aggregation code never needs ad hoc guards.
//
// The zero Value is missing, matching the sql.NullFloat64 shape.
type Value struct {
	Float64 float64 `json:"value"`
	Valid   bool    `json:"valid"`
}

// NewValue returns a present Value. NaN and Inf inputs collapse to missing so
// that upstream float contamination cannot masquerade as data.
func NewValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{Float64: f, Valid: true}
}

// Missing returns an absent Value.
func Missing() Value {
	return Value{}
}

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool {
	return !v.Valid
}

// Positive reports whether the value is present and strictly greater than zero.
func (v Value) Positive() bool {
	return v.Valid && v.Float64 > 0
}

// Add returns v + o, missing if either operand is missing.
func (v Value) Add(o Value) Value {
	if !v.Valid || !o.Valid {
		return Value{}
	}
	return NewValue(v.Float64 + o.Float64)
}

// Sub returns v - o, missing if either operand is missing.
func (v Value) Sub(o Value) Value {
	if !v.Valid || !o.Valid {
		return Value{}
	}
	return NewValue(v.Float64 - o.Float64)
}

// Mul returns v * o, missing if either operand is missing.
func (v Value) Mul(o Value) Value {
	if !v.Valid || !o.Valid {
		return Value{}
	}
	return NewValue(v.Float64 * o.Float64)
}

// Div returns v / o. The result is missing if either operand is missing or
// the denominator is zero; it never panics and never produces Inf.
func (v Value) Div(o Value) Value {
	if !v.Valid || !o.Valid || o.Float64 == 0 {
		return Value{}
	}
	return NewValue(v.Float64 / o.Float64)
}

// Neg returns -v, missing if v is missing.
func (v Value) Neg() Value {
	if !v.Valid {
		return Value{}
	}
	return Value{Float64: -v.Float64, Valid: true}
}

// Abs returns |v|, missing if v is missing.
func (v Value) Abs() Value {
	if !v.Valid {
		return Value{}
	}
	return Value{Float64: math.Abs(v.Float64), Valid: true}
}

// Or returns v when present, otherwise o.
func (v Value) Or(o Value) Value {
	if v.Valid {
		return v
	}
	return o
}

// OrZero returns v when present, otherwise a present zero. Used by the
// book-equity style derivation chains where a missing component is defined
// to contribute nothing rather than poison the sum.
func (v Value) OrZero() Value {
	if v.Valid {
		return v
	}
	return Value{Float64: 0, Valid: true}
}

// Coalesce returns the first present value, or missing when none is.
func Coalesce(vs ...Value) Value {
	for _, v := range vs {
		if v.Valid {
			return v
		}
	}
	return Value{}
}

// String renders the value for logs and error contexts.
func (v Value) String() string {
	if !v.Valid {
		return "missing"
	}
	return fmt.Sprintf("%g", v.Float64)
}

// MarshalJSON encodes a missing Value as null so exported series keep the
// absent-versus-zero distinction on the wire.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float64)
}

// UnmarshalJSON decodes null as missing and a number as a present value.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	*v = NewValue(f)
	return nil
}
