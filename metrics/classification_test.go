package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect predictions",
			yTrue: []float64{0, 1, 2, 1},
			yPred: []float64{0, 1, 2, 1},
			want:  1.0,
		},
		{
			name:  "half correct",
			yTrue: []float64{0, 1, 2, 0},
			yPred: []float64{0, 1, 0, 2},
			want:  0.5,
		},
		{
			name:  "all wrong",
			yTrue: []float64{0, 0, 0},
			yPred: []float64{1, 1, 1},
			want:  0.0,
		},
		{
			name:    "dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0},
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var yTrue, yPred *mat.VecDense
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			} else {
				yTrue = &mat.VecDense{}
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			} else {
				yPred = &mat.VecDense{}
			}

			got, err := Accuracy(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 0, 1, 1, 2, 2})
	yPred := mat.NewVecDense(6, []float64{0, 1, 1, 1, 2, 0})

	cm, err := ConfusionMatrix(yTrue, yPred, 3)
	if err != nil {
		t.Fatalf("ConfusionMatrix() error = %v", err)
	}

	want := [][]float64{
		{1, 1, 0},
		{0, 2, 0},
		{1, 0, 1},
	}
	for i := range want {
		for j := range want[i] {
			if cm.At(i, j) != want[i][j] {
				t.Errorf("cm[%d][%d] = %v, want %v", i, j, cm.At(i, j), want[i][j])
			}
		}
	}
}

func TestConfusionMatrix_LabelOutOfRange(t *testing.T) {
	yTrue := mat.NewVecDense(2, []float64{0, 3})
	yPred := mat.NewVecDense(2, []float64{0, 1})

	if _, err := ConfusionMatrix(yTrue, yPred, 3); err == nil {
		t.Error("ConfusionMatrix() should reject labels outside [0, numClasses)")
	}
}

func TestF1PerClass(t *testing.T) {
	// class 0: precision 1/2, recall 1/2 -> F1 = 0.5
	// class 1: precision 2/3, recall 1.0 -> F1 = 0.8
	// class 2: precision 1.0, recall 1/2 -> F1 = 2/3
	yTrue := mat.NewVecDense(6, []float64{0, 0, 1, 1, 2, 2})
	yPred := mat.NewVecDense(6, []float64{0, 1, 1, 1, 2, 0})

	f1, err := F1PerClass(yTrue, yPred, 3)
	if err != nil {
		t.Fatalf("F1PerClass() error = %v", err)
	}

	want := []float64{0.5, 0.8, 2.0 / 3.0}
	for c := range want {
		if math.Abs(f1[c]-want[c]) > 1e-6 {
			t.Errorf("f1[%d] = %v, want %v", c, f1[c], want[c])
		}
	}
}

func TestF1PerClass_AbsentClass(t *testing.T) {
	// class 2 never occurs and is never predicted: F1 must be 0, not NaN
	yTrue := mat.NewVecDense(4, []float64{0, 0, 1, 1})
	yPred := mat.NewVecDense(4, []float64{0, 0, 1, 1})

	f1, err := F1PerClass(yTrue, yPred, 3)
	if err != nil {
		t.Fatalf("F1PerClass() error = %v", err)
	}
	if f1[2] != 0 {
		t.Errorf("f1[2] = %v, want 0 for absent class", f1[2])
	}
	for c, v := range f1 {
		if math.IsNaN(v) {
			t.Errorf("f1[%d] is NaN", c)
		}
	}
}

func TestMacroF1(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 0, 1, 1, 2, 2})
	yPred := mat.NewVecDense(6, []float64{0, 1, 1, 1, 2, 0})

	got, err := MacroF1(yTrue, yPred, 3)
	if err != nil {
		t.Fatalf("MacroF1() error = %v", err)
	}

	want := (0.5 + 0.8 + 2.0/3.0) / 3.0
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("MacroF1() = %v, want %v", got, want)
	}
}
