// Package classifier implements the candidate classifiers of the risk
// stratification pipeline: a multinomial logistic regression and a random
// forest.
//
// The set of classifier kinds is closed and tagged. Callers never inspect
// concrete types; the inference engine only needs the one capability every
// kind exposes, a probability vector for an encoded feature vector, and the
// artifact store dispatches on the Kind tag when decoding parameters.
package classifier

import (
	"encoding/json"

	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Kind tags one of the supported classifier kinds.
type Kind string

const (
	// KindLogisticRegression is the linear/probabilistic baseline.
	KindLogisticRegression Kind = "logistic_regression"
	// KindRandomForest is the ensemble-tree candidate.
	KindRandomForest Kind = "random_forest"
)

// Valid reports whether k names a supported classifier kind.
func (k Kind) Valid() bool {
	return k == KindLogisticRegression || k == KindRandomForest
}

// Classifier is the capability shared by every classifier kind.
type Classifier interface {
	// Fit trains on encoded features X (n_samples x n_features) and integer
	// class labels y (n_samples x 1).
	Fit(X, y mat.Matrix) error

	// Predict returns the predicted class label per sample (n_samples x 1).
	// Probability ties resolve to the lowest class index.
	Predict(X mat.Matrix) (mat.Matrix, error)

	// PredictProba returns per-class probabilities (n_samples x n_classes),
	// each row non-negative and summing to 1.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Kind returns the classifier's tag.
	Kind() Kind
}

// New constructs an unfitted classifier of the given kind with the default
// hyperparameters used by the trainer.
func New(kind Kind, seed int64) (Classifier, error) {
	switch kind {
	case KindLogisticRegression:
		return NewLogisticRegression(WithLRRandomState(seed)), nil
	case KindRandomForest:
		return NewRandomForestClassifier(WithForestRandomState(seed)), nil
	default:
		return nil, errors.Newf("unknown classifier kind %q", kind)
	}
}

// Unmarshal decodes fitted classifier parameters for the given kind. This is
// the single dispatch point over the closed kind set used by artifact loading.
func Unmarshal(kind Kind, data []byte) (Classifier, error) {
	switch kind {
	case KindLogisticRegression:
		var lr LogisticRegression
		if err := json.Unmarshal(data, &lr); err != nil {
			return nil, errors.Wrap(err, "decode logistic regression parameters")
		}
		if err := lr.Restore(); err != nil {
			return nil, err
		}
		return &lr, nil
	case KindRandomForest:
		var rf RandomForestClassifier
		if err := json.Unmarshal(data, &rf); err != nil {
			return nil, errors.Wrap(err, "decode random forest parameters")
		}
		if err := rf.Restore(); err != nil {
			return nil, err
		}
		return &rf, nil
	default:
		return nil, errors.Newf("unknown classifier kind %q", kind)
	}
}

// argmaxRow returns the index of the largest value, preferring the lowest
// index on exact ties.
func argmaxRow(row []float64) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}
