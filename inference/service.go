// Package inference serves per-request risk predictions from a loaded model
// artifact. A PredictionService is constructed once around an immutable
// artifact and passed explicitly to callers; there is no process-wide model
// state.
package inference

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/celiguard/artifact"
	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"github.com/YuminosukeSato/celiguard/pkg/log"
	"github.com/YuminosukeSato/celiguard/schema"
)

// PredictionResult is the response for one prediction request.
type PredictionResult struct {
	PredictedClass int                `json:"predicted_class"`
	RiskLabel      string             `json:"risk_label"`
	Probabilities  map[string]float64 `json:"probabilities"`
	ModelVersion   string             `json:"model_version"`
}

// PredictionService answers prediction requests against one artifact. The
// artifact is never mutated after construction, so a single service value is
// safe for concurrent use.
type PredictionService struct {
	art    *artifact.Artifact
	logger *slog.Logger
}

// NewPredictionService wraps a loaded artifact. The artifact must contain a
// fitted encoder and classifier; Load and training both guarantee that. A nil
// logger falls back to slog.Default().
func NewPredictionService(art *artifact.Artifact, logger *slog.Logger) (*PredictionService, error) {
	if art == nil || art.Model == nil || art.Encoder == nil {
		return nil, errors.NewModelNotLoadedError("NewPredictionService")
	}
	if !art.Encoder.IsFitted() {
		return nil, errors.NewModelNotLoadedError("NewPredictionService")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictionService{art: art, logger: logger}, nil
}

// Metadata returns the served model's metadata snapshot.
func (s *PredictionService) Metadata() artifact.Metadata {
	return s.art.Meta
}

// Predict validates the record against the artifact's schema, applies the
// frozen encoder, and returns the class probabilities. The predicted class is
// the arg-max of the probability vector; exact ties resolve to the lowest
// class index, so Low wins over Moderate wins over High.
func (s *PredictionService) Predict(rec schema.PatientRecord) (PredictionResult, error) {
	if s == nil || s.art == nil {
		return PredictionResult{}, errors.NewModelNotLoadedError("Predict")
	}
	if err := s.art.Encoder.Schema.Validate(rec); err != nil {
		return PredictionResult{}, err
	}

	vec, err := s.art.Encoder.EncodeRecord(rec)
	if err != nil {
		return PredictionResult{}, err
	}
	proba, err := s.art.Model.PredictProba(mat.NewDense(1, len(vec), vec))
	if err != nil {
		return PredictionResult{}, err
	}

	row := mat.Row(nil, 0, proba)
	if len(row) != schema.NumClasses {
		return PredictionResult{}, errors.NewDimensionError("Predict", schema.NumClasses, len(row), 1)
	}
	sum := 0.0
	best := 0
	for i, p := range row {
		sum += p
		if p > row[best] {
			best = i
		}
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return PredictionResult{}, errors.NewValueError("Predict",
			"classifier probabilities do not sum to 1")
	}

	probs := make(map[string]float64, schema.NumClasses)
	for i, p := range row {
		probs[schema.RiskClass(i).Label()] = p
	}
	result := PredictionResult{
		PredictedClass: best,
		RiskLabel:      schema.RiskClass(best).Label(),
		Probabilities:  probs,
		ModelVersion:   s.art.Meta.Version,
	}
	s.logger.Debug("prediction served",
		slog.String(log.ModelVersionKey, result.ModelVersion),
		slog.String("risk_label", result.RiskLabel))
	return result, nil
}

// PredictFromMap builds a record from a decoded request payload and predicts.
// Missing or mistyped fields surface as ValidationError before any encoding.
func (s *PredictionService) PredictFromMap(payload map[string]interface{}) (PredictionResult, error) {
	if s == nil || s.art == nil {
		return PredictionResult{}, errors.NewModelNotLoadedError("PredictFromMap")
	}
	rec, err := schema.RecordFromMap(s.art.Encoder.Schema, payload)
	if err != nil {
		return PredictionResult{}, err
	}
	return s.Predict(rec)
}
