package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Predicate is the operator object produced for one filter row.
type Predicate struct {
	Key         string
	Value       any
	Insensitive bool
}

// buildPredicate maps a filter row to its operator key and coerced value.
func buildPredicate(t OperationType, raw any) (Predicate, error) {
	op, ok := lookupOperator(t)
	if !ok {
		return Predicate{}, newError(ErrUnknownOperator, fmt.Sprintf("%s is not a valid filter type", t))
	}
	value, err := coerceValue(t, op, raw)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Key: op.key, Value: value, Insensitive: op.insensitive}, nil
}

func coerceValue(t OperationType, op operatorDef, raw any) (any, error) {
	items, isArray, err := normalizeValue(raw)
	if err != nil {
		if op.coerce == coerceNull && raw == nil {
			return nil, nil
		}
		return nil, err
	}

	if op.coerce == coerceNull {
		// the value is ignored, otherwise the client would filter for the string "null"
		return nil, nil
	}

	if isArray {
		if !op.arrays {
			return nil, newError(ErrInvalidOperatorForInput, fmt.Sprintf("Filter type %s does not support array values", t))
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = coerceElement(op.coerce, item)
		}
		return out, nil
	}

	scalar := items[0]
	if op.wrap {
		return []any{coerceElement(op.coerce, scalar)}, nil
	}
	return coerceElement(op.coerce, scalar), nil
}

// coerceElement applies one coercion rule to a primitive value.
func coerceElement(c coercion, v any) any {
	switch c {
	case coerceString:
		return stringify(v)
	case coerceEquality, coercePrimitive:
		if s, ok := v.(string); ok {
			switch s {
			case "true":
				return true
			case "false":
				return false
			}
		}
		return numericIfPossible(v)
	default:
		return numericIfPossible(v)
	}
}

// NumericIfPossible converts a string to float64 when the trimmed string is
// a complete, finite floating point literal. Other values are returned as is.
func NumericIfPossible(v any) any {
	return numericIfPossible(v)
}

func numericIfPossible(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	return f
}

func stringify(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// normalizeValue validates the value shape. It returns the primitive
// elements and whether the input was a slice; a scalar is returned as a
// single element.
func normalizeValue(raw any) ([]any, bool, error) {
	if raw == nil {
		return nil, false, scalarShapeError()
	}
	if p, ok := normalizePrimitive(raw); ok {
		return []any{p}, false, nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false, scalarShapeError()
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		p, ok := normalizePrimitive(rv.Index(i).Interface())
		if !ok {
			return nil, true, newError(ErrInvalidValueShape, "Array filter value must be an Array<string|number|boolean>")
		}
		items[i] = p
	}
	return items, true, nil
}

func scalarShapeError() error {
	return newError(ErrInvalidValueShape, "Filter value must be a string, a number or a boolean")
}

// normalizePrimitive maps every Go numeric kind to float64 so predicates
// carry the same number type whichever decoder produced the request.
func normalizePrimitive(v any) (any, bool) {
	switch x := v.(type) {
	case string, bool, float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String(), true
		}
		return f, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return nil, false
}
