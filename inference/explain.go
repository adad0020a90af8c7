package inference

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/celiguard/schema"
)

// Explain produces a short human-readable rationale for a prediction from the
// record's risk and protective factors. It is a serving convenience on top of
// PredictionResult, not part of the prediction contract, so callers may omit
// it freely.
func Explain(rec schema.PatientRecord, class schema.RiskClass) string {
	switch class {
	case schema.RiskHigh:
		return explainHigh(rec)
	case schema.RiskModerate:
		return explainModerate(rec)
	default:
		return explainLow(rec)
	}
}

func explainHigh(rec schema.PatientRecord) string {
	var reasons []string
	switch rec.RCDType {
	case "Type II":
		reasons = append(reasons, "Refractory Celiac Disease Type II (very high risk factor)")
	case "Type I":
		reasons = append(reasons, "Refractory Celiac Disease Type I")
	}
	if rec.AgeAtDiagnosis > 50 {
		reasons = append(reasons, fmt.Sprintf("late diagnosis at age %.0f", rec.AgeAtDiagnosis))
	}
	if rec.MucosalHealing == "No" {
		reasons = append(reasons, "no mucosal healing on follow-up")
	}
	if rec.GFDAdherence == "Poor" || rec.GFDAdherence == "Moderate" {
		reasons = append(reasons,
			fmt.Sprintf("%s adherence to gluten-free diet", strings.ToLower(rec.GFDAdherence)))
	}
	if rec.YearsOfSymptoms > 8 {
		reasons = append(reasons,
			fmt.Sprintf("long diagnostic delay (%.1f years)", rec.YearsOfSymptoms))
	}
	if rec.MarshGrade == "3b" || rec.MarshGrade == "3c" {
		reasons = append(reasons,
			fmt.Sprintf("severe intestinal damage (Marsh %s)", rec.MarshGrade))
	}
	if len(reasons) == 0 {
		return "HIGH RISK: Multiple risk factors present. Close monitoring and specialist follow-up recommended."
	}
	return fmt.Sprintf("HIGH RISK: Key factors include %s. Close monitoring and specialist follow-up recommended.",
		strings.Join(reasons, ", "))
}

func explainModerate(rec schema.PatientRecord) string {
	var factors []string
	if rec.AgeAtDiagnosis > 40 {
		factors = append(factors, "diagnosis after age 40")
	}
	if rec.MucosalHealing == "No" {
		factors = append(factors, "incomplete mucosal healing")
	}
	if rec.GFDAdherence == "Moderate" {
		factors = append(factors, "partial diet adherence")
	}
	if rec.YearsOfSymptoms > 5 {
		factors = append(factors, "diagnostic delay")
	}
	if len(factors) == 0 {
		return "MODERATE RISK: Mixed risk profile. Regular follow-up and monitoring advised."
	}
	return fmt.Sprintf("MODERATE RISK: Some risk factors present including %s. Regular follow-up and monitoring advised.",
		strings.Join(factors, ", "))
}

func explainLow(rec schema.PatientRecord) string {
	var protective []string
	if rec.AgeAtDiagnosis < 40 {
		protective = append(protective, "early diagnosis")
	}
	if rec.MucosalHealing == "Yes" {
		protective = append(protective, "successful mucosal healing")
	}
	if rec.RCDType == "None" {
		protective = append(protective, "no refractory disease")
	}
	if rec.GFDAdherence == "Good" {
		protective = append(protective, "good diet adherence")
	}
	if len(protective) == 0 {
		return "LOW RISK: Favorable risk profile. Continue current management and routine follow-up."
	}
	return fmt.Sprintf("LOW RISK: Favorable profile with %s. Continue current management and routine follow-up.",
		strings.Join(protective, ", "))
}
