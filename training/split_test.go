package training

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"github.com/YuminosukeSato/celiguard/schema"
)

// labeledMatrix builds an n-sample dataset whose single feature equals the
// label, with counts[c] samples of class c.
func labeledMatrix(counts []int) (*mat.Dense, *mat.Dense) {
	n := 0
	for _, c := range counts {
		n += c
	}
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	row := 0
	for class, count := range counts {
		for i := 0; i < count; i++ {
			X.Set(row, 0, float64(class))
			y.Set(row, 0, float64(class))
			row++
		}
	}
	return X, y
}

func TestStratifiedSplit_Proportions(t *testing.T) {
	X, y := labeledMatrix([]int{50, 30, 20})

	split, err := StratifiedSplit(X, y, 0.2, 42)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}

	if got := split.YTrain.Len(); got != 80 {
		t.Errorf("train size: got %d, want 80", got)
	}
	if got := split.YTest.Len(); got != 20 {
		t.Errorf("test size: got %d, want 20", got)
	}

	// per-class test counts must follow the ratio exactly
	wantTest := []int{10, 6, 4}
	gotTest := make([]int, schema.NumClasses)
	for i := 0; i < split.YTest.Len(); i++ {
		gotTest[int(split.YTest.AtVec(i))]++
	}
	for c, want := range wantTest {
		if gotTest[c] != want {
			t.Errorf("class %d test count: got %d, want %d", c, gotTest[c], want)
		}
	}
}

func TestStratifiedSplit_FeatureRowsFollowLabels(t *testing.T) {
	X, y := labeledMatrix([]int{40, 40, 40})

	split, err := StratifiedSplit(X, y, 0.25, 7)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}
	for i := 0; i < split.YTrain.Len(); i++ {
		if split.XTrain.At(i, 0) != split.YTrain.AtVec(i) {
			t.Fatalf("train row %d: feature %v does not match label %v",
				i, split.XTrain.At(i, 0), split.YTrain.AtVec(i))
		}
	}
	for i := 0; i < split.YTest.Len(); i++ {
		if split.XTest.At(i, 0) != split.YTest.AtVec(i) {
			t.Fatalf("test row %d: feature %v does not match label %v",
				i, split.XTest.At(i, 0), split.YTest.AtVec(i))
		}
	}
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	X, y := labeledMatrix([]int{30, 30, 30})

	a, err := StratifiedSplit(X, y, 0.2, 123)
	if err != nil {
		t.Fatalf("first split failed: %v", err)
	}
	b, err := StratifiedSplit(X, y, 0.2, 123)
	if err != nil {
		t.Fatalf("second split failed: %v", err)
	}
	if !mat.Equal(a.XTrain, b.XTrain) || !mat.Equal(a.XTest, b.XTest) {
		t.Error("same seed must produce the same partition")
	}
}

func TestStratifiedSplit_Errors(t *testing.T) {
	tests := []struct {
		name      string
		counts    []int
		ratio     float64
		wantTrain bool
	}{
		{name: "missing class", counts: []int{50, 50, 0}, ratio: 0.2, wantTrain: true},
		{name: "class too small for test side", counts: []int{50, 50, 1}, ratio: 0.2, wantTrain: true},
		{name: "ratio zero", counts: []int{30, 30, 30}, ratio: 0},
		{name: "ratio one", counts: []int{30, 30, 30}, ratio: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X, y := labeledMatrix(tt.counts)
			_, err := StratifiedSplit(X, y, tt.ratio, 42)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantTrain {
				var trainErr *errors.TrainingDataError
				if !errors.As(err, &trainErr) {
					t.Errorf("expected TrainingDataError, got %v", err)
				}
			}
		})
	}
}
