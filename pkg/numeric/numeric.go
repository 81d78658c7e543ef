// Package numeric coerces untrusted numeric-like values into finite
// float64s. The commerce backend stringifies prices and omits totals often
// enough that every field crossing the network boundary goes through here
// before arithmetic touches it.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Coerce returns a finite number for any input. nil, NaN, infinities, and
// unparseable strings collapse to 0. Negative values pass through untouched;
// clamping is a call-site decision, not a parsing one. Coerce is idempotent
// over its own output.
func Coerce(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint64:
		return float64(v)
	case json.Number:
		return parse(v.String())
	case string:
		return parse(v)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Clamp floors a value at zero. Money and quantities never render negative.
func Clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	return finite(value)
}

// CoerceQuantity coerces and floors a value into a positive line quantity.
func CoerceQuantity(value any) int {
	qty := int(Coerce(value))
	if qty < 1 {
		return 1
	}
	return qty
}

func parse(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return finite(parsed)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
