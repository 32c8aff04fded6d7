package model

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ID identifies a city. The optimizer sends numeric identifiers while hand
// written files often use strings, so both decode into the same key space.
type ID string

// UnmarshalJSON accepts a JSON number or string. Integral numbers are
// normalized so that 5, 5.0 and "5" are the same ID.
func (id *ID) UnmarshalJSON(data []byte) error {
	v, ok := decodeID(data)
	if !ok {
		*id = ""
		return nil
	}
	*id = v
	return nil
}

// Number is a float64 that tolerates numeric strings and nulls on the wire.
// Anything that does not parse decodes as 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	v, _ := decodeFloat(data)
	*n = Number(v)
	return nil
}

// Float64 returns n as a plain float64.
func (n Number) Float64() float64 { return float64(n) }

func isNull(data []byte) bool {
	return len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func decodeFloat(data []byte) (float64, bool) {
	if isNull(data) {
		return 0, false
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		f, err := num.Float64()
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func decodeID(data []byte) (ID, bool) {
	if isNull(data) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", false
		}
		return normalizeID(s), true
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return "", false
	}
	return normalizeID(num.String()), true
}

func normalizeID(s string) ID {
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return ID(strconv.FormatInt(int64(f), 10))
	}
	return ID(s)
}

func decodeString(data []byte) (string, bool) {
	if isNull(data) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// fields holds the raw members of a loosely typed JSON object.
type fields map[string]json.RawMessage

func decodeFields(data []byte) (fields, error) {
	if isNull(data) {
		return fields{}, nil
	}
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// float returns the first present numeric member among keys.
func (f fields) float(keys ...string) Opt[float64] {
	for _, k := range keys {
		if raw, ok := f[k]; ok {
			if v, ok := decodeFloat(raw); ok {
				return Some(v)
			}
		}
	}
	return None[float64]()
}

func (f fields) id(keys ...string) Opt[ID] {
	for _, k := range keys {
		if raw, ok := f[k]; ok {
			if v, ok := decodeID(raw); ok {
				return Some(v)
			}
		}
	}
	return None[ID]()
}

func (f fields) str(keys ...string) Opt[string] {
	for _, k := range keys {
		if raw, ok := f[k]; ok {
			if v, ok := decodeString(raw); ok {
				return Some(v)
			}
		}
	}
	return None[string]()
}
