package artifact

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/celiguard/classifier"
	"github.com/YuminosukeSato/celiguard/dataset"
	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"github.com/YuminosukeSato/celiguard/preprocessing"
	"github.com/YuminosukeSato/celiguard/schema"
)

// fittedArtifact trains a tiny logistic model for store tests.
func fittedArtifact(t *testing.T) *Artifact {
	t.Helper()

	ds, err := dataset.Generate(150, 42)
	require.NoError(t, err)

	enc := preprocessing.NewRecordEncoder(schema.Default())
	X, err := enc.FitTransform(ds.Records())
	require.NoError(t, err)

	lr := classifier.NewLogisticRegression(classifier.WithLRRandomState(42), classifier.WithLRMaxIter(50))
	require.NoError(t, lr.Fit(X, ds.Labels()))

	a, err := New(enc, lr, Metrics{Accuracy: 0.8, F1PerClass: []float64{0.8, 0.7, 0.75}}, time.Now())
	require.NoError(t, err)
	return a
}

func TestNew_AssignsVersionAndSchema(t *testing.T) {
	a := fittedArtifact(t)

	assert.NotEmpty(t, a.Meta.Version)
	assert.Equal(t, SchemaVersion, a.Meta.SchemaVersion)
	assert.Equal(t, classifier.KindLogisticRegression, a.Meta.Kind)
	assert.True(t, a.Meta.Schema.Equal(schema.Default()))
	assert.Equal(t, []string{"Low Risk", "Moderate Risk", "High Risk"}, a.Meta.ClassLabels)
}

func TestNew_RejectsUnfittedEncoder(t *testing.T) {
	enc := preprocessing.NewRecordEncoder(schema.Default())
	_, err := New(enc, classifier.NewLogisticRegression(), Metrics{}, time.Now())
	assert.Error(t, err)
}

func TestStore_PublishLoadRoundTrip(t *testing.T) {
	a := fittedArtifact(t)

	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "params.json"), filepath.Join(dir, "metadata.json"))
	require.NoError(t, store.Publish(a))

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, a.Meta.Version, loaded.Meta.Version)
	assert.Equal(t, a.Meta.Kind, loaded.Meta.Kind)
	assert.True(t, loaded.Meta.Schema.Equal(a.Encoder.Schema),
		"metadata schema must equal the schema the encoder was fitted with")

	// the restored pipeline must reproduce training-time transformations
	ds, err := dataset.Generate(5, 7)
	require.NoError(t, err)
	for _, sample := range ds.Samples {
		want, err := a.Encoder.EncodeRecord(sample.Record)
		require.NoError(t, err)
		got, err := loaded.Encoder.EncodeRecord(sample.Record)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		wantProba, err := a.Model.PredictProba(mat.NewDense(1, len(want), want))
		require.NoError(t, err)
		gotProba, err := loaded.Model.PredictProba(mat.NewDense(1, len(got), got))
		require.NoError(t, err)
		assert.Equal(t, wantProba.At(0, 0), gotProba.At(0, 0))
		assert.Equal(t, wantProba.At(0, 1), gotProba.At(0, 1))
		assert.Equal(t, wantProba.At(0, 2), gotProba.At(0, 2))
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "nope.json"), filepath.Join(dir, "nope-meta.json"))

	_, err := store.Load()
	var loadErr *errors.ArtifactLoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestStore_LoadCorruptParams(t *testing.T) {
	a := fittedArtifact(t)
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "params.json"), filepath.Join(dir, "metadata.json"))
	require.NoError(t, store.Publish(a))

	require.NoError(t, os.WriteFile(store.ParamsPath, []byte("{not json"), 0o644))

	_, err := store.Load()
	var loadErr *errors.ArtifactLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Reason, "corrupt")
}

func TestStore_LoadVersionMismatch(t *testing.T) {
	a := fittedArtifact(t)
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "params.json"), filepath.Join(dir, "metadata.json"))
	require.NoError(t, store.Publish(a))

	// bump the embedded schema version in both blobs
	for _, p := range []string{store.ParamsPath, store.MetadataPath} {
		b, err := os.ReadFile(p)
		require.NoError(t, err)
		mutated := strings.Replace(string(b), `"schema_version": 1`, `"schema_version": 99`, 1)
		mutated = strings.Replace(mutated, `"schema_version":1`, `"schema_version":99`, 1)
		require.NoError(t, os.WriteFile(p, []byte(mutated), 0o644))
	}

	_, err := store.Load()
	var loadErr *errors.ArtifactLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Reason, "version mismatch")
}

func TestReadInto_MismatchedArtifactVersions(t *testing.T) {
	a := fittedArtifact(t)
	b := fittedArtifact(t)

	var params, metadata bytes.Buffer
	require.NoError(t, a.WriteParams(&params))
	require.NoError(t, b.WriteMetadata(&metadata))

	_, err := ReadInto(&params, &metadata, "test")
	var loadErr *errors.ArtifactLoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestStore_PublishLeavesNoTempFiles(t *testing.T) {
	a := fittedArtifact(t)
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "params.json"), filepath.Join(dir, "metadata.json"))
	require.NoError(t, store.Publish(a))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
