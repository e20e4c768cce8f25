package prosody

import (
	"math"
	"strconv"
)

// Measure is a scalar statistic that may be undefined.
// Undefined means the underlying set was empty (no voiced frames, no pauses,
// digital silence). It is never represented as a numeric zero.
type Measure struct {
	Value float64
	Valid bool
}

// Defined returns a valid Measure holding v.
// NaN and Inf collapse to undefined so they can never leak into output.
func Defined(v float64) Measure {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Measure{}
	}
	return Measure{Value: v, Valid: true}
}

// Undefined returns the missing-value sentinel
func Undefined() Measure {
	return Measure{}
}

// Round returns the measure rounded to the given number of decimals
func (m Measure) Round(decimals int) Measure {
	if !m.Valid {
		return m
	}
	return Measure{Value: Round(m.Value, decimals), Valid: true}
}

// Format renders the value with fixed decimals, or "" when undefined
func (m Measure) Format(decimals int) string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', decimals, 64)
}

// MarshalJSON encodes undefined as null
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, m.Value, 'f', -1, 64), nil
}

// UnmarshalJSON accepts null or a number
func (m *Measure) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Measure{}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = Defined(v)
	return nil
}

// Ptr returns a pointer suitable for nullable storage columns
func (m Measure) Ptr() *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}

// Round rounds half to even at the given decimal precision,
// matching numpy.round so exported values are stable across tools.
func Round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	r := math.RoundToEven(v*scale) / scale
	if r == 0 {
		return 0 // normalise -0
	}
	return r
}
