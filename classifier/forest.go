package classifier

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/celiguard/core/model"
	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// RandomForestClassifier is a bagging ensemble of gini decision trees with
// per-split feature subsampling. Probabilities are the mean of the member
// trees' leaf distributions.
type RandomForestClassifier struct {
	state *model.StateManager

	// Hyperparameters
	NEstimators    int   `json:"n_estimators"`
	MaxDepth       int   `json:"max_depth"`
	MinSamplesLeaf int   `json:"min_samples_leaf"`
	MaxFeatures    int   `json:"max_features"` // 0 means sqrt(n_features)
	RandomState    int64 `json:"random_state"`

	// Fitted parameters
	Trees     []*DecisionTreeClassifier `json:"trees"`
	NClasses  int                       `json:"n_classes"`
	NFeatures int                       `json:"n_features"`
}

// RandomForestOption is a functional option for RandomForestClassifier
type RandomForestOption func(*RandomForestClassifier)

// NewRandomForestClassifier creates a new random forest classifier
func NewRandomForestClassifier(opts ...RandomForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:          model.NewStateManager(),
		NEstimators:    100,
		MaxDepth:       10,
		MinSamplesLeaf: 1,
		MaxFeatures:    0,
		RandomState:    0,
	}

	for _, opt := range opts {
		opt(rf)
	}

	return rf
}

// WithNEstimators sets the number of trees
func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.NEstimators = n
	}
}

// WithForestMaxDepth sets the maximum depth of each tree
func WithForestMaxDepth(depth int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.MaxDepth = depth
	}
}

// WithForestMinSamplesLeaf sets the minimum samples per leaf for each tree
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.MinSamplesLeaf = n
	}
}

// WithForestMaxFeatures sets the features considered per split
func WithForestMaxFeatures(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.MaxFeatures = n
	}
}

// WithForestRandomState sets the random seed
func WithForestRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.RandomState = seed
	}
}

// Kind returns the classifier's tag.
func (rf *RandomForestClassifier) Kind() Kind {
	return KindRandomForest
}

// Fit trains the forest on encoded features X and integer labels y.
// Each tree sees a bootstrap sample drawn from a seed derived from the
// forest's RandomState, so training is deterministic for a fixed seed.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("RandomForestClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("RandomForestClassifier.Fit", "y must be a column vector")
	}
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "RandomForestClassifier.Fit")
	}

	nClasses := countClasses(y)
	if nClasses < 2 {
		return errors.NewValueError("RandomForestClassifier.Fit", "need at least 2 classes")
	}

	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(nFeatures)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	rf.NClasses = nClasses
	rf.NFeatures = nFeatures
	rf.Trees = make([]*DecisionTreeClassifier, rf.NEstimators)

	for t := 0; t < rf.NEstimators; t++ {
		treeSeed := rf.RandomState + int64(t)
		rng := rand.New(rand.NewSource(treeSeed))

		// Bootstrap sample with replacement
		XBoot := mat.NewDense(nSamples, nFeatures, nil)
		yBoot := mat.NewDense(nSamples, 1, nil)
		for i := 0; i < nSamples; i++ {
			src := rng.Intn(nSamples)
			XBoot.SetRow(i, mat.Row(nil, src, X))
			yBoot.Set(i, 0, y.At(src, 0))
		}

		tree := NewDecisionTreeClassifier(
			WithMaxDepth(rf.MaxDepth),
			WithMinSamplesLeaf(rf.MinSamplesLeaf),
			WithMaxFeatures(maxFeatures),
			WithTreeRandomState(treeSeed),
		)
		if err := tree.Fit(XBoot, yBoot); err != nil {
			return errors.Wrapf(err, "fit tree %d", t)
		}
		// Bootstrap draws can miss a class entirely; pad leaf distributions
		// so every tree votes over the full class set.
		if tree.NClasses < nClasses {
			tree.padClasses(nClasses)
		}
		rf.Trees[t] = tree
	}

	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()
	return nil
}

// padClasses widens leaf probability vectors to nClasses entries.
func (dt *DecisionTreeClassifier) padClasses(nClasses int) {
	for i := range dt.Nodes {
		if dt.Nodes[i].Proba != nil {
			padded := make([]float64, nClasses)
			copy(padded, dt.Nodes[i].Proba)
			dt.Nodes[i].Proba = padded
		}
	}
	dt.NClasses = nClasses
}

// PredictProba returns class probabilities averaged over all trees.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !rf.state.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != rf.NFeatures {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", rf.NFeatures, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, rf.NClasses, nil)
	for _, tree := range rf.Trees {
		treeProbas, err := tree.PredictProba(X)
		if err != nil {
			return nil, err
		}
		probas.Add(probas, treeProbas)
	}
	probas.Scale(1/float64(len(rf.Trees)), probas)

	return probas, nil
}

// Predict returns the predicted class per sample.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := rf.PredictProba(X)
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

// FeatureImportances returns the mean impurity-decrease importance per
// feature across trees, normalized to sum to 1.
func (rf *RandomForestClassifier) FeatureImportances() []float64 {
	if !rf.state.IsFitted() {
		return nil
	}

	total := make([]float64, rf.NFeatures)
	counted := 0
	for _, tree := range rf.Trees {
		imp := tree.FeatureImportances()
		if imp == nil {
			continue
		}
		for i, v := range imp {
			total[i] += v
		}
		counted++
	}
	if counted == 0 {
		return total
	}

	var sum float64
	for i := range total {
		total[i] /= float64(counted)
		sum += total[i]
	}
	if sum > 0 {
		for i := range total {
			total[i] /= sum
		}
	}
	return total
}

// Restore rebuilds internal state after deserialization.
func (rf *RandomForestClassifier) Restore() error {
	if len(rf.Trees) == 0 || rf.NClasses < 2 {
		return errors.NewValueError("RandomForestClassifier.Restore", "inconsistent fitted parameters")
	}
	for _, tree := range rf.Trees {
		if err := tree.Restore(); err != nil {
			return err
		}
	}
	if rf.state == nil {
		rf.state = model.NewStateManager()
	}
	rf.state.SetDimensions(rf.NFeatures, 0)
	rf.state.SetFitted()
	return nil
}
