package errors

import (
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("bmi", "out of range [16, 35]", 50.0)

	var vErr *ValidationError
	if !As(err, &vErr) {
		t.Fatalf("expected error to be *ValidationError, got %T", err)
	}
	if vErr.Field != "bmi" {
		t.Errorf("Field = %q, want %q", vErr.Field, "bmi")
	}
	if !strings.Contains(err.Error(), "bmi") {
		t.Errorf("error message should name the field: %v", err)
	}
}

func TestArtifactLoadError_Unwrap(t *testing.T) {
	cause := New("unexpected EOF")
	err := NewArtifactLoadError("/models/params.json", "corrupt payload", cause)

	var aErr *ArtifactLoadError
	if !As(err, &aErr) {
		t.Fatalf("expected error to be *ArtifactLoadError, got %T", err)
	}
	if !Is(err, cause) {
		t.Error("ArtifactLoadError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "params.json") {
		t.Errorf("error message should include the path: %v", err)
	}
}

func TestTrainingDataError(t *testing.T) {
	err := NewTrainingDataError("fewer than 2 represented classes", 100, 1)

	var tErr *TrainingDataError
	if !As(err, &tErr) {
		t.Fatalf("expected error to be *TrainingDataError, got %T", err)
	}
	if tErr.Classes != 1 || tErr.Samples != 100 {
		t.Errorf("got samples=%d classes=%d, want 100/1", tErr.Samples, tErr.Classes)
	}
}

func TestModelNotLoadedError(t *testing.T) {
	err := NewModelNotLoadedError("Predict")

	var mErr *ModelNotLoadedError
	if !As(err, &mErr) {
		t.Fatalf("expected error to be *ModelNotLoadedError, got %T", err)
	}
	if mErr.Op != "Predict" {
		t.Errorf("Op = %q, want %q", mErr.Op, "Predict")
	}
}

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("RecordEncoder", "Transform")
	want := "celiguard: RecordEncoder: this model is not fitted yet. Call Fit() before using Transform()"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDimensionError_AxisNames(t *testing.T) {
	tests := []struct {
		name string
		axis int
		want string
	}{
		{"rows", 0, "rows"},
		{"features", 1, "features"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("Encoder.Transform", 29, 5, tt.axis)
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error message %q should mention %q", err.Error(), tt.want)
			}
		})
	}
}
