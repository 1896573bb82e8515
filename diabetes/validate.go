package diabetes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// FieldError describes one rejected field. Loc is the path to the field,
// starting with "body".
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError is returned when a request body does not describe a
// complete, well-typed patient record.
type ValidationError struct {
	Details []FieldError `json:"detail"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		msgs = append(msgs, strings.Join(d.Loc, ".")+": "+d.Msg)
	}
	return "invalid patient record: " + strings.Join(msgs, "; ")
}

// patientRequest mirrors PatientRecord with pointer fields so that absent
// fields can be told apart from zero values.
type patientRequest struct {
	Gender            *string  `json:"gender" validate:"required,oneof=Female Male Other"`
	Age               *int     `json:"age" validate:"required"`
	Hypertension      *int     `json:"hypertension" validate:"required,oneof=0 1"`
	HeartDisease      *int     `json:"heart_disease" validate:"required,oneof=0 1"`
	SmokingHistory    *string  `json:"smoking_history_cleaned" validate:"required,oneof=never unknown current past"`
	BMI               *float64 `json:"bmi" validate:"required"`
	HbA1cLevel        *float64 `json:"HbA1c_level" validate:"required"`
	BloodGlucoseLevel *int     `json:"blood_glucose_level" validate:"required"`
}

// targets maps each column name to the field it decodes into.
func (p *patientRequest) targets() map[string]interface{} {
	return map[string]interface{}{
		ColumnGender:            &p.Gender,
		ColumnAge:               &p.Age,
		ColumnHypertension:      &p.Hypertension,
		ColumnHeartDisease:      &p.HeartDisease,
		ColumnSmokingHistory:    &p.SmokingHistory,
		ColumnBMI:               &p.BMI,
		ColumnHbA1cLevel:        &p.HbA1cLevel,
		ColumnBloodGlucoseLevel: &p.BloodGlucoseLevel,
	}
}

func (p *patientRequest) record() PatientRecord {
	return PatientRecord{
		Gender:            Gender(*p.Gender),
		Age:               *p.Age,
		Hypertension:      *p.Hypertension,
		HeartDisease:      *p.HeartDisease,
		SmokingHistory:    SmokingHistory(*p.SmokingHistory),
		BMI:               *p.BMI,
		HbA1cLevel:        *p.HbA1cLevel,
		BloodGlucoseLevel: *p.BloodGlucoseLevel,
	}
}

// Validator decodes and checks request bodies. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewValidator() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("register validation translations: %w", err)
	}
	return &Validator{validate: validate, trans: trans}, nil
}

// ParseRecord decodes body into a PatientRecord. Any problem with the body is
// reported as a *ValidationError. Keys must match the column names exactly,
// including case.
func (v *Validator) ParseRecord(body []byte) (PatientRecord, error) {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return PatientRecord{}, invalidJSON("request body is empty")
		case errors.As(err, &typeErr):
			return PatientRecord{}, &ValidationError{Details: []FieldError{{
				Loc:  []string{"body"},
				Msg:  "request body must be a JSON object",
				Type: "object_type",
			}}}
		default:
			return PatientRecord{}, invalidJSON(err.Error())
		}
	}
	if dec.More() {
		return PatientRecord{}, invalidJSON("unexpected data after JSON object")
	}

	var req patientRequest
	var details []FieldError
	reported := make(map[string]bool)

	targets := req.targets()
	for _, column := range Columns {
		raw, ok := fields[column]
		if !ok {
			continue
		}
		if detail, failed := decodeField(column, raw, targets[column]); failed {
			details = append(details, detail)
			reported[column] = true
		}
	}

	var extra []string
	for key := range fields {
		if _, known := targets[key]; !known {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		details = append(details, FieldError{
			Loc:  []string{"body", key},
			Msg:  fmt.Sprintf("%s is not a recognised field", key),
			Type: "extra_forbidden",
		})
	}

	if err := v.validate.Struct(&req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return PatientRecord{}, err
		}
		for _, fe := range fieldErrs {
			if reported[fe.Field()] {
				continue
			}
			details = append(details, FieldError{
				Loc:  []string{"body", fe.Field()},
				Msg:  fe.Translate(v.trans),
				Type: fe.Tag(),
			})
		}
	}

	if len(details) > 0 {
		return PatientRecord{}, &ValidationError{Details: details}
	}
	return req.record(), nil
}

func invalidJSON(msg string) *ValidationError {
	return &ValidationError{Details: []FieldError{{
		Loc:  []string{"body"},
		Msg:  msg,
		Type: "json_invalid",
	}}}
}

// maxExactInt is the largest magnitude a float64 holds without losing
// integer precision.
const maxExactInt = 1 << 53

// decodeField decodes one column value into its request field. Whole numbers
// such as 45.0 are accepted for integer fields.
func decodeField(column string, raw json.RawMessage, target interface{}) (FieldError, bool) {
	err := json.Unmarshal(raw, target)
	if err == nil {
		return FieldError{}, false
	}

	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return FieldError{
			Loc:  []string{"body", column},
			Msg:  fmt.Sprintf("%s has an invalid value", column),
			Type: "value_error",
		}, true
	}

	if dst, ok := target.(**int); ok && strings.HasPrefix(typeErr.Value, "number") {
		var f float64
		if json.Unmarshal(raw, &f) == nil && f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
			n := int(f)
			*dst = &n
			return FieldError{}, false
		}
	}

	kind := typeErr.Type.Kind()
	if kind == reflect.Ptr {
		kind = typeErr.Type.Elem().Kind()
	}
	msg, errType := "has an invalid type", "type_error"
	switch kind {
	case reflect.Int, reflect.Int64:
		msg, errType = "must be a valid integer", "int_type"
	case reflect.Float64:
		msg, errType = "must be a valid number", "float_type"
	case reflect.String:
		msg, errType = "must be a valid string", "string_type"
	}
	return FieldError{
		Loc:  []string{"body", column},
		Msg:  fmt.Sprintf("%s %s, got %s", column, msg, typeErr.Value),
		Type: errType,
	}, true
}
