package log

// Attribute keys shared across training and inference logs. Keeping them as
// constants avoids drift between the trainer's and the serving helper's output.

// Model identification.
const (
	// ModelKindKey identifies the selected classifier kind.
	ModelKindKey = "model.kind"

	// ModelVersionKey identifies the artifact version the model came from.
	ModelVersionKey = "model.version"

	// OperationKey names the pipeline operation being performed.
	OperationKey = "ml.operation"
)

// Data characteristics.
const (
	// SamplesKey is the number of samples involved in an operation.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of encoded feature columns.
	FeaturesKey = "data.features"

	// TrainSamplesKey is the size of the training split.
	TrainSamplesKey = "data.train_samples"

	// TestSamplesKey is the size of the held-out split.
	TestSamplesKey = "data.test_samples"
)

// Training metrics.
const (
	// AccuracyKey is the held-out accuracy of a candidate.
	AccuracyKey = "metrics.accuracy"

	// F1Key is a per-class F1 score.
	F1Key = "metrics.f1"

	// DurationMsKey is elapsed wall time in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Configuration.
const (
	// RandomSeedKey is the seed driving data generation or training.
	RandomSeedKey = "config.random_seed"

	// ArtifactPathKey is the publish or load location of an artifact.
	ArtifactPathKey = "artifact.path"
)
