// Package schema defines the frozen feature contract of the risk stratifier:
// the 13 patient features, their declared domains, and the 3 risk classes.
//
// The same FeatureSchema instance is used to fit the encoder and to validate
// every inference request. Training and serving disagreeing on the schema is
// a contract violation, so the schema is embedded in the published artifact
// and compared on load.
package schema

import (
	"sort"

	"github.com/YuminosukeSato/celiguard/pkg/errors"
)

// NumClasses is the number of risk classes.
const NumClasses = 3

// RiskClass is the malignancy risk stratum. The integer mapping is fixed and
// never reordered.
type RiskClass int

const (
	// RiskLow is the lowest malignancy risk stratum.
	RiskLow RiskClass = iota
	// RiskModerate is the intermediate stratum.
	RiskModerate
	// RiskHigh is the highest stratum.
	RiskHigh
)

// Label returns the display label for the class.
func (c RiskClass) Label() string {
	switch c {
	case RiskLow:
		return "Low Risk"
	case RiskModerate:
		return "Moderate Risk"
	case RiskHigh:
		return "High Risk"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is one of the three defined classes.
func (c RiskClass) Valid() bool {
	return c >= RiskLow && c <= RiskHigh
}

// ClassLabels returns the class labels indexed by class value.
func ClassLabels() []string {
	return []string{RiskLow.Label(), RiskModerate.Label(), RiskHigh.Label()}
}

// FieldKind distinguishes numeric from categorical features.
type FieldKind string

const (
	// KindNumeric marks a continuous feature with a closed [Min, Max] domain.
	KindNumeric FieldKind = "numeric"
	// KindCategorical marks a feature with an enumerated value set.
	KindCategorical FieldKind = "categorical"
)

// Field describes one feature: its name, kind, and declared domain.
type Field struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`

	// Numeric domain. Only meaningful when Kind == KindNumeric.
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`

	// Categories holds the enumerated value set in declaration order.
	// Only meaningful when Kind == KindCategorical.
	Categories []string `json:"categories,omitempty"`
}

// HasCategory reports whether v is in the field's declared value set.
func (f Field) HasCategory(v string) bool {
	for _, c := range f.Categories {
		if c == v {
			return true
		}
	}
	return false
}

// SortedCategories returns the field's value set in lexicographic order, the
// order used for one-hot indicator columns.
func (f Field) SortedCategories() []string {
	out := make([]string, len(f.Categories))
	copy(out, f.Categories)
	sort.Strings(out)
	return out
}

// FeatureSchema is the ordered list of feature fields.
type FeatureSchema struct {
	Fields []Field `json:"fields"`
}

// Field names, shared with the external request format.
const (
	FieldAgeAtDiagnosis  = "age_at_diagnosis"
	FieldCurrentAge      = "current_age"
	FieldYearsOfSymptoms = "years_of_symptoms"
	FieldBMI             = "bmi"
	FieldFollowupYears   = "followup_years"
	FieldSex             = "sex"
	FieldMarshGrade      = "marsh_grade"
	FieldMucosalHealing  = "mucosal_healing"
	FieldRCDType         = "rcd_type"
	FieldSmokingStatus   = "smoking_status"
	FieldGFDAdherence    = "gfd_adherence"
	FieldFamilyHistory   = "family_history"
	FieldHLARisk         = "hla_risk"
)

// Default returns the frozen schema of the celiac risk stratifier: 5 numeric
// fields followed by 8 categorical fields.
func Default() FeatureSchema {
	return FeatureSchema{Fields: []Field{
		{Name: FieldAgeAtDiagnosis, Kind: KindNumeric, Min: 5, Max: 80},
		{Name: FieldCurrentAge, Kind: KindNumeric, Min: 5, Max: 90},
		{Name: FieldYearsOfSymptoms, Kind: KindNumeric, Min: 0, Max: 15},
		{Name: FieldBMI, Kind: KindNumeric, Min: 16, Max: 35},
		{Name: FieldFollowupYears, Kind: KindNumeric, Min: 0, Max: 20},
		{Name: FieldSex, Kind: KindCategorical, Categories: []string{"Male", "Female"}},
		{Name: FieldMarshGrade, Kind: KindCategorical, Categories: []string{"0", "1", "2", "3a", "3b", "3c"}},
		{Name: FieldMucosalHealing, Kind: KindCategorical, Categories: []string{"Yes", "No"}},
		{Name: FieldRCDType, Kind: KindCategorical, Categories: []string{"None", "Type I", "Type II"}},
		{Name: FieldSmokingStatus, Kind: KindCategorical, Categories: []string{"Never", "Former", "Current"}},
		{Name: FieldGFDAdherence, Kind: KindCategorical, Categories: []string{"Good", "Moderate", "Poor"}},
		{Name: FieldFamilyHistory, Kind: KindCategorical, Categories: []string{"Yes", "No"}},
		{Name: FieldHLARisk, Kind: KindCategorical, Categories: []string{"Low", "Medium", "High"}},
	}}
}

// NumericFields returns the numeric fields in schema order.
func (s FeatureSchema) NumericFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Kind == KindNumeric {
			out = append(out, f)
		}
	}
	return out
}

// CategoricalFields returns the categorical fields in schema order.
func (s FeatureSchema) CategoricalFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Kind == KindCategorical {
			out = append(out, f)
		}
	}
	return out
}

// FieldByName returns the named field.
func (s FeatureSchema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// EncodedDim is the dimensionality of the encoded feature vector: one column
// per numeric field plus one indicator column per declared category.
func (s FeatureSchema) EncodedDim() int {
	dim := 0
	for _, f := range s.Fields {
		switch f.Kind {
		case KindNumeric:
			dim++
		case KindCategorical:
			dim += len(f.Categories)
		}
	}
	return dim
}

// Equal reports whether two schemas declare the same ordered fields and
// domains.
func (s FeatureSchema) Equal(other FeatureSchema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		g := other.Fields[i]
		if f.Name != g.Name || f.Kind != g.Kind || f.Min != g.Min || f.Max != g.Max {
			return false
		}
		if len(f.Categories) != len(g.Categories) {
			return false
		}
		for j, c := range f.Categories {
			if c != g.Categories[j] {
				return false
			}
		}
	}
	return true
}

// Validate checks a record against the schema: numeric fields within their
// declared domain, categorical fields drawn from their value set, and the
// cross-field invariant current_age >= age_at_diagnosis. The returned error
// names the offending field.
func (s FeatureSchema) Validate(rec PatientRecord) error {
	for _, f := range s.Fields {
		switch f.Kind {
		case KindNumeric:
			v, ok := rec.Numeric(f.Name)
			if !ok {
				return errors.NewValidationError(f.Name, "unknown numeric field", nil)
			}
			if v < f.Min || v > f.Max {
				return errors.NewValidationError(f.Name,
					"out of declared domain ["+formatFloat(f.Min)+", "+formatFloat(f.Max)+"]", v)
			}
		case KindCategorical:
			v, ok := rec.Categorical(f.Name)
			if !ok {
				return errors.NewValidationError(f.Name, "unknown categorical field", nil)
			}
			if !f.HasCategory(v) {
				return errors.NewValidationError(f.Name, "value not in declared category set", v)
			}
		}
	}
	if rec.CurrentAge < rec.AgeAtDiagnosis {
		return errors.NewValidationError(FieldCurrentAge,
			"must be greater than or equal to age_at_diagnosis", rec.CurrentAge)
	}
	return nil
}
