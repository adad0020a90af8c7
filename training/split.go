package training

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"github.com/YuminosukeSato/celiguard/schema"
)

// SplitResult holds a stratified train/test partition of an encoded dataset.
type SplitResult struct {
	XTrain *mat.Dense
	XTest  *mat.Dense
	YTrain *mat.VecDense
	YTest  *mat.VecDense
}

// StratifiedSplit partitions X (n_samples x n_features) and y (n_samples x 1)
// so that each risk class contributes testRatio of its samples to the test
// side. The partition is deterministic for a fixed seed. Every class must end
// up with at least one sample on each side, otherwise evaluation would be
// blind to that class and the split fails with a TrainingDataError.
func StratifiedSplit(X *mat.Dense, y *mat.Dense, testRatio float64, seed int64) (*SplitResult, error) {
	if X == nil || y == nil {
		return nil, errors.NewValueError("StratifiedSplit", "nil input matrix")
	}
	n, cols := X.Dims()
	yRows, yCols := y.Dims()
	if yRows != n || yCols != 1 {
		return nil, errors.NewDimensionError("StratifiedSplit", n, yRows, 0)
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, errors.NewValueError("StratifiedSplit",
			fmt.Sprintf("test ratio must be in (0, 1), got %g", testRatio))
	}

	byClass := make([][]int, schema.NumClasses)
	for i := 0; i < n; i++ {
		c := int(y.At(i, 0))
		if c < 0 || c >= schema.NumClasses {
			return nil, errors.NewValueError("StratifiedSplit",
				fmt.Sprintf("label %d at row %d outside class range", c, i))
		}
		byClass[c] = append(byClass[c], i)
	}

	present := 0
	for _, idx := range byClass {
		if len(idx) > 0 {
			present++
		}
	}
	if present < schema.NumClasses {
		return nil, errors.NewTrainingDataError("dataset does not cover all risk classes", n, present)
	}

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for c, idx := range byClass {
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(math.Round(float64(len(idx)) * testRatio))
		if nTest < 1 || nTest >= len(idx) {
			return nil, errors.NewTrainingDataError(
				fmt.Sprintf("class %d would be missing from one side of the split", c),
				len(idx), schema.NumClasses)
		}
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}

	return &SplitResult{
		XTrain: takeRows(X, trainIdx, cols),
		XTest:  takeRows(X, testIdx, cols),
		YTrain: takeLabels(y, trainIdx),
		YTest:  takeLabels(y, testIdx),
	}, nil
}

func takeRows(X *mat.Dense, idx []int, cols int) *mat.Dense {
	out := mat.NewDense(len(idx), cols, nil)
	for i, row := range idx {
		out.SetRow(i, mat.Row(nil, row, X))
	}
	return out
}

func takeLabels(y *mat.Dense, idx []int) *mat.VecDense {
	out := mat.NewVecDense(len(idx), nil)
	for i, row := range idx {
		out.SetVec(i, y.At(row, 0))
	}
	return out
}
