package dataset

import (
	"reflect"
	"testing"

	"github.com/YuminosukeSato/celiguard/schema"
)

func TestGenerate_Size(t *testing.T) {
	ds, err := Generate(200, 42)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(ds.Samples) != 200 {
		t.Errorf("len(Samples) = %d, want 200", len(ds.Samples))
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(300, 42)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := Generate(300, 42)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("identically seeded datasets must be identical")
	}

	c, err := Generate(300, 43)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if reflect.DeepEqual(a, c) {
		t.Error("differently seeded datasets should differ")
	}
}

func TestGenerate_RecordsAreValid(t *testing.T) {
	s := schema.Default()
	ds, err := Generate(500, 7)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for i, sample := range ds.Samples {
		if err := s.Validate(sample.Record); err != nil {
			t.Fatalf("sample %d invalid: %v", i, err)
		}
		if !sample.Class.Valid() {
			t.Fatalf("sample %d has invalid class %d", i, sample.Class)
		}
	}
}

func TestGenerate_AllClassesRepresented(t *testing.T) {
	ds, err := Generate(1500, 42)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	counts := ds.ClassCounts()
	for c, n := range counts {
		if n == 0 {
			t.Errorf("class %d has no samples", c)
		}
	}
}

func TestGenerate_ClassWeights(t *testing.T) {
	// All weight on High: every sample must carry that class
	ds, err := Generate(100, 1, WithClassWeights([]float64{0, 0, 1}))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for i, sample := range ds.Samples {
		if sample.Class != schema.RiskHigh {
			t.Fatalf("sample %d class = %v, want RiskHigh", i, sample.Class)
		}
	}
}

func TestGenerate_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		n    int
		opts []Option
	}{
		{"zero samples", 0, nil},
		{"negative samples", -5, nil},
		{"wrong weight count", 10, []Option{WithClassWeights([]float64{1, 1})}},
		{"negative weight", 10, []Option{WithClassWeights([]float64{1, -1, 1})}},
		{"all-zero weights", 10, []Option{WithClassWeights([]float64{0, 0, 0})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Generate(tt.n, 42, tt.opts...); err == nil {
				t.Error("Generate() should fail")
			}
		})
	}
}

func TestTrainingDataset_Labels(t *testing.T) {
	ds, err := Generate(50, 4)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	y := ds.Labels()
	rows, cols := y.Dims()
	if rows != 50 || cols != 1 {
		t.Fatalf("Labels() dims = (%d, %d), want (50, 1)", rows, cols)
	}
	for i := 0; i < rows; i++ {
		if y.At(i, 0) != float64(ds.Samples[i].Class) {
			t.Errorf("label %d = %v, want %v", i, y.At(i, 0), float64(ds.Samples[i].Class))
		}
	}
}
