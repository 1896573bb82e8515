package ml

import (
	"errors"
	"fmt"
	"reflect"
)

// FeatureSchema is the column layout a classifier was trained on: the column
// order and, for categorical columns, the category codes.
type FeatureSchema struct {
	Names     []string
	Encodings map[string]map[string]float64
}

func NewFeatureSchema(names []string, encodings map[string]map[string]float64) (FeatureSchema, error) {
	if len(names) == 0 {
		return FeatureSchema{}, errors.New("feature list is empty")
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" {
			return FeatureSchema{}, errors.New("feature name is empty")
		}
		if seen[name] {
			return FeatureSchema{}, fmt.Errorf("duplicate feature %q", name)
		}
		seen[name] = true
	}
	for column, codes := range encodings {
		if !seen[column] {
			return FeatureSchema{}, fmt.Errorf("encoding for unknown feature %q", column)
		}
		if len(codes) == 0 {
			return FeatureSchema{}, fmt.Errorf("encoding for %q has no categories", column)
		}
	}
	return FeatureSchema{
		Names:     append([]string(nil), names...),
		Encodings: encodings,
	}, nil
}

// Assemble turns named rows into a numeric frame with one column per schema
// feature, in schema order.
func (s FeatureSchema) Assemble(rows []Row) ([][]float64, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFrame
	}
	frame := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.Names) {
			return nil, fmt.Errorf("row %d has %d columns, model expects %d", i, len(row), len(s.Names))
		}
		values := make([]float64, len(s.Names))
		for j, name := range s.Names {
			raw, ok := row[name]
			if !ok {
				return nil, fmt.Errorf("row %d is missing column %q", i, name)
			}
			value, err := s.encode(name, raw)
			if err != nil {
				return nil, err
			}
			values[j] = value
		}
		frame[i] = values
	}
	return frame, nil
}

func (s FeatureSchema) encode(column string, raw interface{}) (float64, error) {
	codes, categorical := s.Encodings[column]
	rv := reflect.ValueOf(raw)
	if categorical {
		if rv.Kind() != reflect.String {
			return 0, fmt.Errorf("column %q expects a category, got %T", column, raw)
		}
		code, ok := codes[rv.String()]
		if !ok {
			return 0, fmt.Errorf("column %q: unknown category %q", column, rv.String())
		}
		return code, nil
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("column %q: could not convert %T to float", column, raw)
	}
}
