package classifier

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/celiguard/core/model"
	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression implements multinomial (softmax) logistic regression
// trained with batch gradient descent and L2 regularization.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	C            float64 `json:"c"`             // Inverse regularization strength
	MaxIter      int     `json:"max_iter"`      // Maximum iterations
	Tol          float64 `json:"tol"`           // Tolerance for stopping
	FitIntercept bool    `json:"fit_intercept"` // Whether to fit intercept
	RandomState  int64   `json:"random_state"`  // Random seed

	// Fitted parameters (n_classes x n_features)
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
	NClasses  int         `json:"n_classes"`
	NFeatures int         `json:"n_features"`

	rand *rand.Rand
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		C:            1.0,
		MaxIter:      500,
		Tol:          1e-4,
		FitIntercept: true,
		RandomState:  0,
	}

	for _, opt := range opts {
		opt(lr)
	}

	lr.rand = rand.New(rand.NewSource(lr.RandomState))

	return lr
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.MaxIter = maxIter
	}
}

// WithLRTol sets the tolerance for the stopping criterion
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.Tol = tol
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.RandomState = seed
	}
}

// Kind returns the classifier's tag.
func (lr *LogisticRegression) Kind() Kind {
	return KindLogisticRegression
}

// Fit trains the softmax regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}

	nClasses := countClasses(y)
	if nClasses < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "need at least 2 classes")
	}

	lr.NClasses = nClasses
	lr.NFeatures = nFeatures
	lr.initializeWeights()

	// One-hot targets
	target := make([][]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		target[i] = make([]float64, nClasses)
		target[i][int(y.At(i, 0))] = 1.0
	}

	baseLearningRate := 1.0
	lambda := 1.0 / lr.C

	for iter := 0; iter < lr.MaxIter; iter++ {
		gradCoef := make([][]float64, nClasses)
		for c := range gradCoef {
			gradCoef[c] = make([]float64, nFeatures)
		}
		gradIntercept := make([]float64, nClasses)

		// Accumulate softmax gradients
		for i := 0; i < nSamples; i++ {
			probs := lr.softmaxRow(X, i)
			for c := 0; c < nClasses; c++ {
				diff := probs[c] - target[i][c]
				gradIntercept[c] += diff
				for j := 0; j < nFeatures; j++ {
					gradCoef[c][j] += diff * X.At(i, j)
				}
			}
		}

		// Scale by sample count and add L2 gradient
		maxGrad := 0.0
		for c := 0; c < nClasses; c++ {
			gradIntercept[c] /= float64(nSamples)
			if math.Abs(gradIntercept[c]) > maxGrad {
				maxGrad = math.Abs(gradIntercept[c])
			}
			for j := 0; j < nFeatures; j++ {
				gradCoef[c][j] = gradCoef[c][j]/float64(nSamples) + lambda*lr.Coef[c][j]/float64(nSamples)
				if math.Abs(gradCoef[c][j]) > maxGrad {
					maxGrad = math.Abs(gradCoef[c][j])
				}
			}
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))

		for c := 0; c < nClasses; c++ {
			for j := 0; j < nFeatures; j++ {
				lr.Coef[c][j] -= learningRate * gradCoef[c][j]
			}
			if lr.FitIntercept {
				lr.Intercept[c] -= learningRate * gradIntercept[c]
			}
		}

		if maxGrad < lr.Tol {
			break
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// initializeWeights initializes model weights with small random values
func (lr *LogisticRegression) initializeWeights() {
	lr.Coef = make([][]float64, lr.NClasses)
	for c := range lr.Coef {
		lr.Coef[c] = make([]float64, lr.NFeatures)
		for j := range lr.Coef[c] {
			lr.Coef[c][j] = lr.rand.NormFloat64() * 0.01
		}
	}
	lr.Intercept = make([]float64, lr.NClasses)
}

// softmaxRow computes class probabilities for one sample row.
func (lr *LogisticRegression) softmaxRow(X mat.Matrix, i int) []float64 {
	scores := make([]float64, lr.NClasses)
	maxScore := math.Inf(-1)
	for c := 0; c < lr.NClasses; c++ {
		score := lr.Intercept[c]
		for j := 0; j < lr.NFeatures; j++ {
			score += X.At(i, j) * lr.Coef[c][j]
		}
		scores[c] = score
		if score > maxScore {
			maxScore = score
		}
	}

	sum := 0.0
	for c := range scores {
		scores[c] = math.Exp(scores[c] - maxScore)
		sum += scores[c]
	}
	for c := range scores {
		scores[c] /= sum
	}
	return scores
}

// PredictProba returns probability estimates for each class
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.NFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.NFeatures, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, lr.NClasses, nil)
	for i := 0; i < nSamples; i++ {
		probas.SetRow(i, lr.softmaxRow(X, i))
	}

	return probas, nil
}

// Predict makes class predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := probas.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		row := mat.Row(nil, i, probas)
		predictions.Set(i, 0, float64(argmaxRow(row)))
	}

	return predictions, nil
}

// Restore rebuilds internal state after deserialization.
func (lr *LogisticRegression) Restore() error {
	if len(lr.Coef) == 0 || len(lr.Coef) != lr.NClasses || len(lr.Intercept) != lr.NClasses {
		return errors.NewValueError("LogisticRegression.Restore", "inconsistent fitted parameters")
	}
	for _, row := range lr.Coef {
		if len(row) != lr.NFeatures {
			return errors.NewDimensionError("LogisticRegression.Restore", lr.NFeatures, len(row), 1)
		}
	}
	if lr.state == nil {
		lr.state = model.NewStateManager()
	}
	lr.rand = rand.New(rand.NewSource(lr.RandomState))
	lr.state.SetDimensions(lr.NFeatures, 0)
	lr.state.SetFitted()
	return nil
}

// countClasses returns the number of distinct integer labels in y.
func countClasses(y mat.Matrix) int {
	rows, _ := y.Dims()
	seen := make(map[int]bool)
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = true
	}
	return len(seen)
}
