package artifact

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"github.com/YuminosukeSato/celiguard/pkg/log"
)

// Store reads and writes artifacts at a pair of file paths supplied by the
// caller. Publication is atomic: each blob is written to a temporary file in
// the destination directory and renamed into place, so a concurrently
// loading process observes either the previous artifact or the complete new
// one, never a partial write.
type Store struct {
	ParamsPath   string
	MetadataPath string
}

// NewStore creates a store for the given blob locations.
func NewStore(paramsPath, metadataPath string) *Store {
	return &Store{ParamsPath: paramsPath, MetadataPath: metadataPath}
}

// Publish durably writes the artifact's two blobs.
func (s *Store) Publish(a *Artifact) error {
	if err := writeAtomic(s.ParamsPath, a.WriteParams); err != nil {
		return err
	}
	if err := writeAtomic(s.MetadataPath, a.WriteMetadata); err != nil {
		return err
	}

	slog.Info("artifact published",
		log.ModelVersionKey, a.Meta.Version,
		log.ModelKindKey, string(a.Meta.Kind),
		log.ArtifactPathKey, s.ParamsPath,
	)
	return nil
}

// Load reads and validates the artifact. Any failure is an ArtifactLoadError
// and the caller must not serve traffic with a partially loaded model.
func (s *Store) Load() (*Artifact, error) {
	params, err := os.Open(s.ParamsPath)
	if err != nil {
		return nil, errors.NewArtifactLoadError(s.ParamsPath, "open params blob", err)
	}
	defer params.Close()

	metadata, err := os.Open(s.MetadataPath)
	if err != nil {
		return nil, errors.NewArtifactLoadError(s.MetadataPath, "open metadata blob", err)
	}
	defer metadata.Close()

	return ReadInto(params, metadata, s.ParamsPath)
}

// writeAtomic writes via a temp file in the target directory followed by a
// rename.
func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create artifact directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp artifact file")
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync temp artifact file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp artifact file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "publish artifact to %s", path)
	}
	return nil
}
