package preprocessing

import (
	"encoding/json"
	"testing"

	"github.com/YuminosukeSato/celiguard/schema"
)

func trainingRecords() []schema.PatientRecord {
	return []schema.PatientRecord{
		{
			AgeAtDiagnosis: 30, CurrentAge: 35, YearsOfSymptoms: 2, BMI: 22, FollowupYears: 5,
			Sex: "Female", MarshGrade: "2", MucosalHealing: "Yes", RCDType: "None",
			SmokingStatus: "Never", GFDAdherence: "Good", FamilyHistory: "No", HLARisk: "Low",
		},
		{
			AgeAtDiagnosis: 55, CurrentAge: 62, YearsOfSymptoms: 10, BMI: 27, FollowupYears: 7,
			Sex: "Male", MarshGrade: "3c", MucosalHealing: "No", RCDType: "Type II",
			SmokingStatus: "Current", GFDAdherence: "Poor", FamilyHistory: "Yes", HLARisk: "High",
		},
		{
			AgeAtDiagnosis: 45, CurrentAge: 50, YearsOfSymptoms: 5, BMI: 24.5, FollowupYears: 5,
			Sex: "Female", MarshGrade: "3b", MucosalHealing: "Yes", RCDType: "None",
			SmokingStatus: "Former", GFDAdherence: "Moderate", FamilyHistory: "No", HLARisk: "Medium",
		},
	}
}

func TestRecordEncoder_Dim(t *testing.T) {
	enc := NewRecordEncoder(schema.Default())
	if got := enc.Dim(); got != 29 {
		t.Errorf("Dim() = %d, want 29", got)
	}
	if got := len(enc.FeatureNames()); got != 29 {
		t.Errorf("len(FeatureNames()) = %d, want 29", got)
	}
}

func TestRecordEncoder_Deterministic(t *testing.T) {
	enc := NewRecordEncoder(schema.Default())
	records := trainingRecords()
	if err := enc.Fit(records); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	a, err := enc.EncodeRecord(records[0])
	if err != nil {
		t.Fatalf("EncodeRecord() error = %v", err)
	}
	b, err := enc.EncodeRecord(records[0])
	if err != nil {
		t.Fatalf("EncodeRecord() error = %v", err)
	}

	if len(a) != 29 {
		t.Fatalf("len(vector) = %d, want 29", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("encode not bit-identical at %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestRecordEncoder_OneHotPlacement(t *testing.T) {
	enc := NewRecordEncoder(schema.Default())
	records := trainingRecords()
	if err := enc.Fit(records); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	vec, err := enc.EncodeRecord(records[0])
	if err != nil {
		t.Fatalf("EncodeRecord() error = %v", err)
	}
	names := enc.FeatureNames()

	// sex=Female is the record's value; Female sorts before Male
	for i, name := range names {
		switch name {
		case "sex=Female":
			if vec[i] != 1 {
				t.Errorf("%s = %v, want 1", name, vec[i])
			}
		case "sex=Male":
			if vec[i] != 0 {
				t.Errorf("%s = %v, want 0", name, vec[i])
			}
		case "marsh_grade=2":
			if vec[i] != 1 {
				t.Errorf("%s = %v, want 1", name, vec[i])
			}
		}
		_ = i
	}

	// each categorical block contributes exactly one hot indicator
	hot := 0
	for i := 5; i < len(vec); i++ {
		if vec[i] == 1 {
			hot++
		}
	}
	if hot != 8 {
		t.Errorf("hot indicators = %d, want 8", hot)
	}
}

func TestRecordEncoder_UnknownCategoryZeroBlock(t *testing.T) {
	enc := NewRecordEncoder(schema.Default())
	if err := enc.Fit(trainingRecords()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	rec := trainingRecords()[0]
	rec.HLARisk = "Unknown"

	vec, err := enc.EncodeRecord(rec)
	if err != nil {
		t.Fatalf("EncodeRecord() error = %v; unknown categories encode as zeros", err)
	}

	names := enc.FeatureNames()
	for i, name := range names {
		if name == "hla_risk=High" || name == "hla_risk=Low" || name == "hla_risk=Medium" {
			if vec[i] != 0 {
				t.Errorf("%s = %v, want 0 for unknown category", name, vec[i])
			}
		}
	}
}

func TestRecordEncoder_NotFitted(t *testing.T) {
	enc := NewRecordEncoder(schema.Default())
	if _, err := enc.EncodeRecord(trainingRecords()[0]); err == nil {
		t.Error("EncodeRecord() before Fit() should fail")
	}
}

func TestRecordEncoder_JSONRoundTrip(t *testing.T) {
	enc := NewRecordEncoder(schema.Default())
	records := trainingRecords()
	if err := enc.Fit(records); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	want, err := enc.EncodeRecord(records[2])
	if err != nil {
		t.Fatalf("EncodeRecord() error = %v", err)
	}

	b, err := json.Marshal(enc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var restored RecordEncoder
	if err := json.Unmarshal(b, &restored); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if err := restored.Restore(); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	got, err := restored.EncodeRecord(records[2])
	if err != nil {
		t.Fatalf("EncodeRecord() after restore error = %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("restored encoding differs at %d: %v != %v", i, got[i], want[i])
		}
	}
}
