// Package artifact defines the versioned model artifact and its durable
// representation.
//
// An artifact is the frozen {encoder, classifier} pair plus metadata,
// treated as one immutable unit after creation. On disk it is two structured
// JSON records, not a language-native object graph: a params blob holding
// the fitted encoder and classifier parameters, and a metadata blob holding
// the schema snapshot, class mapping, metrics, and version. Both embed the
// artifact schema version and loading fails closed on any mismatch.
package artifact

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/celiguard/classifier"
	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"github.com/YuminosukeSato/celiguard/preprocessing"
	"github.com/YuminosukeSato/celiguard/schema"
)

// SchemaVersion is the artifact format version writers embed and readers
// require.
const SchemaVersion = 1

// Metrics holds the held-out evaluation of the selected classifier.
type Metrics struct {
	Accuracy   float64   `json:"accuracy"`
	F1PerClass []float64 `json:"f1_per_class"`
}

// Metadata describes a published artifact.
type Metadata struct {
	SchemaVersion int                  `json:"schema_version"`
	Version       string               `json:"version"`
	Kind          classifier.Kind      `json:"kind"`
	Schema        schema.FeatureSchema `json:"schema"`
	ClassLabels   []string             `json:"class_labels"`
	Metrics       Metrics              `json:"metrics"`
	TrainedAt     time.Time            `json:"trained_at"`
}

// Artifact is the in-memory form: the frozen encoder, the selected
// classifier, and the metadata. Immutable once constructed; safe for
// concurrent readers.
type Artifact struct {
	Encoder *preprocessing.RecordEncoder
	Model   classifier.Classifier
	Meta    Metadata
}

// New bundles a fitted encoder and classifier into an artifact, assigning a
// fresh version identifier.
func New(enc *preprocessing.RecordEncoder, model classifier.Classifier, metrics Metrics, trainedAt time.Time) (*Artifact, error) {
	if enc == nil || !enc.IsFitted() {
		return nil, errors.NewValueError("artifact.New", "encoder must be fitted")
	}
	if model == nil {
		return nil, errors.NewValueError("artifact.New", "classifier must not be nil")
	}

	return &Artifact{
		Encoder: enc,
		Model:   model,
		Meta: Metadata{
			SchemaVersion: SchemaVersion,
			Version:       uuid.NewString(),
			Kind:          model.Kind(),
			Schema:        enc.Schema,
			ClassLabels:   schema.ClassLabels(),
			Metrics:       metrics,
			TrainedAt:     trainedAt.UTC(),
		},
	}, nil
}

// paramsBlob is the durable form of the fitted parameters.
type paramsBlob struct {
	SchemaVersion int                          `json:"schema_version"`
	Version       string                       `json:"version"`
	Kind          classifier.Kind              `json:"kind"`
	Encoder       *preprocessing.RecordEncoder `json:"encoder"`
	Model         json.RawMessage              `json:"model"`
}

// WriteParams serializes the encoder and classifier parameters to w.
func (a *Artifact) WriteParams(w io.Writer) error {
	modelJSON, err := json.Marshal(a.Model)
	if err != nil {
		return errors.Wrap(err, "encode classifier parameters")
	}
	blob := paramsBlob{
		SchemaVersion: SchemaVersion,
		Version:       a.Meta.Version,
		Kind:          a.Model.Kind(),
		Encoder:       a.Encoder,
		Model:         modelJSON,
	}
	enc := json.NewEncoder(w)
	return errors.Wrap(enc.Encode(blob), "encode params blob")
}

// WriteMetadata serializes the metadata to w.
func (a *Artifact) WriteMetadata(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(a.Meta), "encode metadata blob")
}

// ReadInto reconstructs an Artifact from its two blobs. Every failure mode
// (corrupt bytes, version mismatch, tag mismatch, schema drift) surfaces as
// an ArtifactLoadError; nothing degrades silently.
func ReadInto(params, metadata io.Reader, source string) (*Artifact, error) {
	var blob paramsBlob
	if err := json.NewDecoder(params).Decode(&blob); err != nil {
		return nil, errors.NewArtifactLoadError(source, "corrupt params blob", err)
	}
	var meta Metadata
	if err := json.NewDecoder(metadata).Decode(&meta); err != nil {
		return nil, errors.NewArtifactLoadError(source, "corrupt metadata blob", err)
	}

	if blob.SchemaVersion != SchemaVersion {
		return nil, errors.NewArtifactLoadError(source,
			"params schema version mismatch", errors.Newf("got %d, want %d", blob.SchemaVersion, SchemaVersion))
	}
	if meta.SchemaVersion != SchemaVersion {
		return nil, errors.NewArtifactLoadError(source,
			"metadata schema version mismatch", errors.Newf("got %d, want %d", meta.SchemaVersion, SchemaVersion))
	}
	if blob.Version != meta.Version {
		return nil, errors.NewArtifactLoadError(source,
			"params and metadata belong to different artifact versions", nil)
	}
	if blob.Kind != meta.Kind {
		return nil, errors.NewArtifactLoadError(source, "classifier kind tag mismatch", nil)
	}
	if !blob.Kind.Valid() {
		return nil, errors.NewArtifactLoadError(source, "unknown classifier kind "+string(blob.Kind), nil)
	}

	if blob.Encoder == nil {
		return nil, errors.NewArtifactLoadError(source, "missing encoder parameters", nil)
	}
	if err := blob.Encoder.Restore(); err != nil {
		return nil, errors.NewArtifactLoadError(source, "invalid encoder parameters", err)
	}
	if !blob.Encoder.Schema.Equal(meta.Schema) {
		return nil, errors.NewArtifactLoadError(source, "encoder schema does not match metadata schema", nil)
	}

	model, err := classifier.Unmarshal(blob.Kind, blob.Model)
	if err != nil {
		return nil, errors.NewArtifactLoadError(source, "invalid classifier parameters", err)
	}

	return &Artifact{Encoder: blob.Encoder, Model: model, Meta: meta}, nil
}
