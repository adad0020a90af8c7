package schema

import (
	"strconv"

	"github.com/YuminosukeSato/celiguard/pkg/errors"
)

// PatientRecord is one patient's feature values: 5 numeric fields and 8
// categorical fields. Records are created per request and never persisted.
type PatientRecord struct {
	AgeAtDiagnosis  float64 `json:"age_at_diagnosis"`
	CurrentAge      float64 `json:"current_age"`
	YearsOfSymptoms float64 `json:"years_of_symptoms"`
	BMI             float64 `json:"bmi"`
	FollowupYears   float64 `json:"followup_years"`
	Sex             string  `json:"sex"`
	MarshGrade      string  `json:"marsh_grade"`
	MucosalHealing  string  `json:"mucosal_healing"`
	RCDType         string  `json:"rcd_type"`
	SmokingStatus   string  `json:"smoking_status"`
	GFDAdherence    string  `json:"gfd_adherence"`
	FamilyHistory   string  `json:"family_history"`
	HLARisk         string  `json:"hla_risk"`
}

// Numeric returns the named numeric field value.
func (r PatientRecord) Numeric(name string) (float64, bool) {
	switch name {
	case FieldAgeAtDiagnosis:
		return r.AgeAtDiagnosis, true
	case FieldCurrentAge:
		return r.CurrentAge, true
	case FieldYearsOfSymptoms:
		return r.YearsOfSymptoms, true
	case FieldBMI:
		return r.BMI, true
	case FieldFollowupYears:
		return r.FollowupYears, true
	}
	return 0, false
}

// Categorical returns the named categorical field value.
func (r PatientRecord) Categorical(name string) (string, bool) {
	switch name {
	case FieldSex:
		return r.Sex, true
	case FieldMarshGrade:
		return r.MarshGrade, true
	case FieldMucosalHealing:
		return r.MucosalHealing, true
	case FieldRCDType:
		return r.RCDType, true
	case FieldSmokingStatus:
		return r.SmokingStatus, true
	case FieldGFDAdherence:
		return r.GFDAdherence, true
	case FieldFamilyHistory:
		return r.FamilyHistory, true
	case FieldHLARisk:
		return r.HLARisk, true
	}
	return "", false
}

// RecordFromMap builds a PatientRecord from a decoded request payload,
// enforcing that every schema field is present with the right type. Domain
// checks are left to FeatureSchema.Validate; this is the missing-field
// boundary, so a request omitting bmi fails here naming "bmi".
func RecordFromMap(s FeatureSchema, payload map[string]interface{}) (PatientRecord, error) {
	var rec PatientRecord
	for _, f := range s.Fields {
		raw, ok := payload[f.Name]
		if !ok {
			return PatientRecord{}, errors.NewValidationError(f.Name, "field is missing", nil)
		}
		switch f.Kind {
		case KindNumeric:
			v, err := toFloat(raw)
			if err != nil {
				return PatientRecord{}, errors.NewValidationError(f.Name, "expected a number", raw)
			}
			rec.setNumeric(f.Name, v)
		case KindCategorical:
			v, ok := raw.(string)
			if !ok {
				return PatientRecord{}, errors.NewValidationError(f.Name, "expected a string", raw)
			}
			rec.setCategorical(f.Name, v)
		}
	}
	return rec, nil
}

func (r *PatientRecord) setNumeric(name string, v float64) {
	switch name {
	case FieldAgeAtDiagnosis:
		r.AgeAtDiagnosis = v
	case FieldCurrentAge:
		r.CurrentAge = v
	case FieldYearsOfSymptoms:
		r.YearsOfSymptoms = v
	case FieldBMI:
		r.BMI = v
	case FieldFollowupYears:
		r.FollowupYears = v
	}
}

func (r *PatientRecord) setCategorical(name, v string) {
	switch name {
	case FieldSex:
		r.Sex = v
	case FieldMarshGrade:
		r.MarshGrade = v
	case FieldMucosalHealing:
		r.MucosalHealing = v
	case FieldRCDType:
		r.RCDType = v
	case FieldSmokingStatus:
		r.SmokingStatus = v
	case FieldGFDAdherence:
		r.GFDAdherence = v
	case FieldFamilyHistory:
		r.FamilyHistory = v
	case FieldHLARisk:
		r.HLARisk = v
	}
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return 0, errors.New("string is not a number")
	default:
		return 0, errors.Newf("unsupported numeric type %T", v)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
