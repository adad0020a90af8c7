package classifier

import (
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/celiguard/core/model"
	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// TreeNode is one node of a fitted decision tree. Leaf nodes carry a class
// probability vector; internal nodes split on Feature <= Threshold.
type TreeNode struct {
	Feature   int       `json:"feature"` // -1 for leaves
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Proba     []float64 `json:"proba,omitempty"`
}

// DecisionTreeClassifier is a CART-style classification tree using gini
// impurity. It is used standalone and as the base learner of the random
// forest (which enables per-split feature subsampling via MaxFeatures).
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	MaxDepth       int   `json:"max_depth"`        // 0 means unlimited
	MinSamplesLeaf int   `json:"min_samples_leaf"` //
	MaxFeatures    int   `json:"max_features"`     // 0 means all features
	RandomState    int64 `json:"random_state"`

	// Fitted parameters
	Nodes     []TreeNode `json:"nodes"`
	NClasses  int        `json:"n_classes"`
	NFeatures int        `json:"n_features"`

	importances []float64
	rand        *rand.Rand
}

// DecisionTreeOption is a functional option for DecisionTreeClassifier
type DecisionTreeOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a new decision tree classifier
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:          model.NewStateManager(),
		MaxDepth:       10,
		MinSamplesLeaf: 1,
		MaxFeatures:    0,
		RandomState:    0,
	}

	for _, opt := range opts {
		opt(dt)
	}

	dt.rand = rand.New(rand.NewSource(dt.RandomState))

	return dt
}

// WithMaxDepth sets the maximum tree depth
func WithMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.MaxDepth = depth
	}
}

// WithMinSamplesLeaf sets the minimum number of samples per leaf
func WithMinSamplesLeaf(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.MinSamplesLeaf = n
	}
}

// WithMaxFeatures sets the number of features considered per split
func WithMaxFeatures(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.MaxFeatures = n
	}
}

// WithTreeRandomState sets the random seed for feature subsampling
func WithTreeRandomState(seed int64) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.RandomState = seed
	}
}

// Fit grows the tree on encoded features X and integer labels y.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "y must be a column vector")
	}
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "DecisionTreeClassifier.Fit")
	}

	nClasses := 0
	labels := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		labels[i] = int(y.At(i, 0))
		if labels[i]+1 > nClasses {
			nClasses = labels[i] + 1
		}
	}

	dt.NClasses = nClasses
	dt.NFeatures = nFeatures
	dt.Nodes = dt.Nodes[:0]
	dt.importances = make([]float64, nFeatures)

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	dt.growNode(X, labels, indices, 0, nSamples)

	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()
	return nil
}

// growNode recursively grows the subtree for the given sample indices and
// returns the node's index in the flattened node array.
func (dt *DecisionTreeClassifier) growNode(X mat.Matrix, labels, indices []int, depth, totalSamples int) int {
	counts := make([]float64, dt.NClasses)
	for _, i := range indices {
		counts[labels[i]]++
	}

	nodeIdx := len(dt.Nodes)
	dt.Nodes = append(dt.Nodes, TreeNode{Feature: -1})

	impurity := giniImpurity(counts, float64(len(indices)))
	if impurity == 0 || (dt.MaxDepth > 0 && depth >= dt.MaxDepth) || len(indices) < 2*dt.MinSamplesLeaf {
		dt.Nodes[nodeIdx].Proba = countsToProba(counts)
		return nodeIdx
	}

	feature, threshold, gain := dt.bestSplit(X, labels, indices, impurity)
	if feature < 0 {
		dt.Nodes[nodeIdx].Proba = countsToProba(counts)
		return nodeIdx
	}

	var left, right []int
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < dt.MinSamplesLeaf || len(right) < dt.MinSamplesLeaf {
		dt.Nodes[nodeIdx].Proba = countsToProba(counts)
		return nodeIdx
	}

	dt.importances[feature] += float64(len(indices)) / float64(totalSamples) * gain

	leftIdx := dt.growNode(X, labels, left, depth+1, totalSamples)
	rightIdx := dt.growNode(X, labels, right, depth+1, totalSamples)

	dt.Nodes[nodeIdx].Feature = feature
	dt.Nodes[nodeIdx].Threshold = threshold
	dt.Nodes[nodeIdx].Left = leftIdx
	dt.Nodes[nodeIdx].Right = rightIdx
	return nodeIdx
}

// bestSplit searches candidate features for the split with the highest gini
// impurity decrease. Returns feature -1 when no split improves impurity.
func (dt *DecisionTreeClassifier) bestSplit(X mat.Matrix, labels, indices []int, parentImpurity float64) (int, float64, float64) {
	features := dt.candidateFeatures()

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0
	n := float64(len(indices))

	values := make([]float64, len(indices))
	order := make([]int, len(indices))

	for _, f := range features {
		for k, i := range indices {
			values[k] = X.At(i, f)
			order[k] = k
		}
		sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

		leftCounts := make([]float64, dt.NClasses)
		rightCounts := make([]float64, dt.NClasses)
		for _, i := range indices {
			rightCounts[labels[i]]++
		}

		// Sweep sorted values, moving samples left one at a time.
		for pos := 0; pos < len(order)-1; pos++ {
			i := indices[order[pos]]
			leftCounts[labels[i]]++
			rightCounts[labels[i]]--

			v := values[order[pos]]
			next := values[order[pos+1]]
			if v == next {
				continue
			}

			nl := float64(pos + 1)
			nr := n - nl
			gain := parentImpurity -
				nl/n*giniImpurity(leftCounts, nl) -
				nr/n*giniImpurity(rightCounts, nr)

			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = (v + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// candidateFeatures returns the feature indices considered for a split,
// subsampled without replacement when MaxFeatures is set.
func (dt *DecisionTreeClassifier) candidateFeatures() []int {
	all := make([]int, dt.NFeatures)
	for i := range all {
		all[i] = i
	}
	if dt.MaxFeatures <= 0 || dt.MaxFeatures >= dt.NFeatures {
		return all
	}
	dt.rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	picked := all[:dt.MaxFeatures]
	sort.Ints(picked)
	return picked
}

// Kind returns the classifier's tag. A standalone tree is not one of the
// artifact kinds; it participates only as a forest member.
func (dt *DecisionTreeClassifier) Kind() Kind {
	return KindRandomForest
}

// PredictProba returns class probabilities for each sample.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !dt.state.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", dt.NFeatures, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, dt.NClasses, nil)
	for i := 0; i < nSamples; i++ {
		probas.SetRow(i, dt.predictRow(X, i))
	}
	return probas, nil
}

// predictRow walks the tree for one sample.
func (dt *DecisionTreeClassifier) predictRow(X mat.Matrix, i int) []float64 {
	node := 0
	for {
		n := dt.Nodes[node]
		if n.Feature < 0 {
			return n.Proba
		}
		if X.At(i, n.Feature) <= n.Threshold {
			node = n.Left
		} else {
			node = n.Right
		}
	}
}

// Predict returns the predicted class per sample.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := dt.PredictProba(X)
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

// FeatureImportances returns the impurity-decrease importance per feature,
// normalized to sum to 1. Nil before fitting.
func (dt *DecisionTreeClassifier) FeatureImportances() []float64 {
	if dt.importances == nil {
		return nil
	}
	out := make([]float64, len(dt.importances))
	copy(out, dt.importances)
	var sum float64
	for _, v := range out {
		sum += v
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// Restore rebuilds internal state after deserialization.
func (dt *DecisionTreeClassifier) Restore() error {
	if len(dt.Nodes) == 0 || dt.NClasses < 2 {
		return errors.NewValueError("DecisionTreeClassifier.Restore", "inconsistent fitted parameters")
	}
	if dt.state == nil {
		dt.state = model.NewStateManager()
	}
	dt.rand = rand.New(rand.NewSource(dt.RandomState))
	dt.state.SetDimensions(dt.NFeatures, 0)
	dt.state.SetFitted()
	return nil
}

// giniImpurity computes 1 - sum(p^2) for the class counts.
func giniImpurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := c / n
		impurity -= p * p
	}
	return impurity
}

// countsToProba normalizes class counts into a probability vector.
func countsToProba(counts []float64) []float64 {
	var sum float64
	for _, c := range counts {
		sum += c
	}
	proba := make([]float64, len(counts))
	if sum == 0 {
		return proba
	}
	for i, c := range counts {
		proba[i] = c / sum
	}
	return proba
}
