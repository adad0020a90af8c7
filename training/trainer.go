// Package training fits the candidate classifiers on encoded synthetic data,
// evaluates them on a stratified held-out split, and bundles the winner into
// a publishable artifact.
package training

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/celiguard/artifact"
	"github.com/YuminosukeSato/celiguard/classifier"
	"github.com/YuminosukeSato/celiguard/dataset"
	"github.com/YuminosukeSato/celiguard/metrics"
	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"github.com/YuminosukeSato/celiguard/pkg/log"
	"github.com/YuminosukeSato/celiguard/preprocessing"
	"github.com/YuminosukeSato/celiguard/schema"
)

// Candidate is one evaluated classifier and its held-out metrics.
type Candidate struct {
	Model      classifier.Classifier
	Accuracy   float64
	F1PerClass []float64
}

// Result is the outcome of a training run. The artifact bundles the selected
// candidate; the full candidate list and the forest's feature importances are
// kept for reporting.
type Result struct {
	Artifact     *artifact.Artifact
	Candidates   []Candidate
	FeatureNames []string
	Importances  []float64
	TrainSamples int
	TestSamples  int
}

// Trainer runs the train-evaluate-select procedure described by a Config.
type Trainer struct {
	cfg    Config
	logger *slog.Logger
}

// NewTrainer returns a trainer. A nil logger falls back to slog.Default().
func NewTrainer(cfg Config, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{cfg: cfg, logger: logger}
}

// Train encodes the dataset, splits it, fits both candidates, and selects the
// one with the highest held-out accuracy. An exact accuracy tie resolves to
// the random forest. No artifact is produced unless every step succeeds.
func (t *Trainer) Train(ds *dataset.TrainingDataset) (*Result, error) {
	if ds == nil || len(ds.Samples) == 0 {
		return nil, errors.NewTrainingDataError("empty training dataset", 0, 0)
	}
	start := time.Now()

	counts := ds.ClassCounts()
	t.logger.Info("label distribution",
		slog.Int(log.SamplesKey, len(ds.Samples)),
		slog.Int("class.low", counts[schema.RiskLow]),
		slog.Int("class.moderate", counts[schema.RiskModerate]),
		slog.Int("class.high", counts[schema.RiskHigh]))

	nonEmpty := 0
	for _, c := range counts {
		if c > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return nil, errors.NewTrainingDataError("need at least two risk classes to train",
			len(ds.Samples), nonEmpty)
	}

	enc := preprocessing.NewRecordEncoder(schema.Default())
	X, err := enc.FitTransform(ds.Records())
	if err != nil {
		return nil, err
	}

	split, err := StratifiedSplit(X, ds.Labels(), t.cfg.SplitRatio, t.cfg.SplitSeed)
	if err != nil {
		return nil, err
	}
	trainN, featN := split.XTrain.Dims()
	testN := split.YTest.Len()
	t.logger.Info("dataset split",
		slog.Int(log.TrainSamplesKey, trainN),
		slog.Int(log.TestSamplesKey, testN),
		slog.Int(log.FeaturesKey, featN))

	candidates := []classifier.Classifier{
		classifier.NewLogisticRegression(
			classifier.WithLRC(t.cfg.Logistic.C),
			classifier.WithLRMaxIter(t.cfg.Logistic.MaxIter),
			classifier.WithLRTol(t.cfg.Logistic.Tol),
			classifier.WithLRRandomState(t.cfg.Seed),
		),
		classifier.NewRandomForestClassifier(
			classifier.WithNEstimators(t.cfg.Forest.NEstimators),
			classifier.WithForestMaxDepth(t.cfg.Forest.MaxDepth),
			classifier.WithForestMinSamplesLeaf(t.cfg.Forest.MinSamplesLeaf),
			classifier.WithForestRandomState(t.cfg.Seed),
		),
	}

	result := &Result{
		FeatureNames: enc.FeatureNames(),
		TrainSamples: trainN,
		TestSamples:  testN,
	}
	for _, model := range candidates {
		cand, err := t.evaluate(model, split)
		if err != nil {
			return nil, err
		}
		result.Candidates = append(result.Candidates, cand)
	}

	// highest accuracy wins; on an exact tie the forest (evaluated second)
	// takes it because of the >= comparison
	selected := result.Candidates[0]
	for _, cand := range result.Candidates[1:] {
		if cand.Accuracy >= selected.Accuracy {
			selected = cand
		}
	}
	if rf, ok := selected.Model.(*classifier.RandomForestClassifier); ok {
		result.Importances = rf.FeatureImportances()
	}

	art, err := artifact.New(enc, selected.Model, artifact.Metrics{
		Accuracy:   selected.Accuracy,
		F1PerClass: selected.F1PerClass,
	}, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	result.Artifact = art

	t.logger.Info("model selected",
		slog.String(log.ModelKindKey, string(selected.Model.Kind())),
		slog.String(log.ModelVersionKey, art.Meta.Version),
		slog.Float64(log.AccuracyKey, selected.Accuracy),
		slog.Int64(log.DurationMsKey, time.Since(start).Milliseconds()))
	return result, nil
}

// evaluate fits one candidate on the training split and scores it on the
// held-out split.
func (t *Trainer) evaluate(model classifier.Classifier, split *SplitResult) (Candidate, error) {
	fitStart := time.Now()
	if err := model.Fit(split.XTrain, vecToColumn(split.YTrain)); err != nil {
		return Candidate{}, err
	}
	pred, err := model.Predict(split.XTest)
	if err != nil {
		return Candidate{}, err
	}
	yPred := columnToVec(pred)

	acc, err := metrics.Accuracy(split.YTest, yPred)
	if err != nil {
		return Candidate{}, err
	}
	f1, err := metrics.F1PerClass(split.YTest, yPred, schema.NumClasses)
	if err != nil {
		return Candidate{}, err
	}

	t.logger.Info("candidate evaluated",
		slog.String(log.ModelKindKey, string(model.Kind())),
		slog.Float64(log.AccuracyKey, acc),
		slog.Any(log.F1Key, f1),
		slog.Int64(log.DurationMsKey, time.Since(fitStart).Milliseconds()))
	return Candidate{Model: model, Accuracy: acc, F1PerClass: f1}, nil
}

func vecToColumn(v *mat.VecDense) *mat.Dense {
	out := mat.NewDense(v.Len(), 1, nil)
	for i := 0; i < v.Len(); i++ {
		out.Set(i, 0, v.AtVec(i))
	}
	return out
}

func columnToVec(m mat.Matrix) *mat.VecDense {
	rows, _ := m.Dims()
	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		out.SetVec(i, m.At(i, 0))
	}
	return out
}
