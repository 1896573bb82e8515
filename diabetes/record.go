// Package diabetes holds the patient record, its request validation and the
// prediction service built on a loaded classifier.
package diabetes

import "diabetesapi/ml"

type Gender string

const (
	GenderFemale Gender = "Female"
	GenderMale   Gender = "Male"
	GenderOther  Gender = "Other"
)

type SmokingHistory string

const (
	SmokingNever   SmokingHistory = "never"
	SmokingUnknown SmokingHistory = "unknown"
	SmokingCurrent SmokingHistory = "current"
	SmokingPast    SmokingHistory = "past"
)

// Column names as the classifier was trained on them.
const (
	ColumnGender            = "gender"
	ColumnAge               = "age"
	ColumnHypertension      = "hypertension"
	ColumnHeartDisease      = "heart_disease"
	ColumnSmokingHistory    = "smoking_history_cleaned"
	ColumnBMI               = "bmi"
	ColumnHbA1cLevel        = "HbA1c_level"
	ColumnBloodGlucoseLevel = "blood_glucose_level"
)

// Columns lists the record fields in request order.
var Columns = []string{
	ColumnGender,
	ColumnAge,
	ColumnHypertension,
	ColumnHeartDisease,
	ColumnSmokingHistory,
	ColumnBMI,
	ColumnHbA1cLevel,
	ColumnBloodGlucoseLevel,
}

// PatientRecord is a validated prediction request. Every field is required.
type PatientRecord struct {
	Gender            Gender         `json:"gender"`
	Age               int            `json:"age"`
	Hypertension      int            `json:"hypertension"`
	HeartDisease      int            `json:"heart_disease"`
	SmokingHistory    SmokingHistory `json:"smoking_history_cleaned"`
	BMI               float64        `json:"bmi"`
	HbA1cLevel        float64        `json:"HbA1c_level"`
	BloodGlucoseLevel int            `json:"blood_glucose_level"`
}

// Fields returns the record as a single named row for feature assembly.
func (r PatientRecord) Fields() ml.Row {
	return ml.Row{
		ColumnGender:            string(r.Gender),
		ColumnAge:               r.Age,
		ColumnHypertension:      r.Hypertension,
		ColumnHeartDisease:      r.HeartDisease,
		ColumnSmokingHistory:    string(r.SmokingHistory),
		ColumnBMI:               r.BMI,
		ColumnHbA1cLevel:        r.HbA1cLevel,
		ColumnBloodGlucoseLevel: r.BloodGlucoseLevel,
	}
}
