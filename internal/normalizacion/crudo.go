package normalizacion

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Crudo is one row as returned by the database or a legacy export.
type Crudo = map[string]any

// primero returns the first present, non-empty value among keys.
func primero(m Crudo, keys ...string) any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

// objeto returns the first nested object among keys. Arrays yield their
// first element, which is how one-to-one joins come back from some exports.
func objeto(m Crudo, keys ...string) Crudo {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]any:
			return v
		case []any:
			if len(v) > 0 {
				if o, ok := v[0].(map[string]any); ok {
					return o
				}
			}
		}
	}
	return nil
}

// lista returns the first array of objects among keys.
func lista(m Crudo, keys ...string) []Crudo {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		arr, ok := m[k].([]any)
		if !ok {
			continue
		}
		out := make([]Crudo, 0, len(arr))
		for _, e := range arr {
			if o, ok := e.(map[string]any); ok {
				out = append(out, o)
			}
		}
		return out
	}
	return nil
}

func texto(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case [16]byte:
		return uuid.UUID(t).String()
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func entero(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			return int(f), ferr == nil
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

func enteroPtr(v any) *int {
	if n, ok := entero(v); ok {
		return &n
	}
	return nil
}

func decimalPtr(v any) *decimal.Decimal {
	var d decimal.Decimal
	var err error
	switch t := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		d = t
	case float64:
		d = decimal.NewFromFloat(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	case json.Number:
		d, err = decimal.NewFromString(t.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(t))
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return &d
}

var formatosFecha = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07", "2006-01-02 15:04:05", "2006-01-02"}

func fecha(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, f := range formatosFecha {
			if ts, err := time.Parse(f, strings.TrimSpace(t)); err == nil {
				return ts
			}
		}
	}
	return time.Time{}
}
