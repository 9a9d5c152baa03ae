package model

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"cancer-diagnosis/internal/diagnosis"
)

// artifactNames are the fixed on-disk locations, relative to the model directory.
var artifactNames = map[diagnosis.CancerType]string{
	diagnosis.BreastCancer: "breast_cancer_model.json",
	diagnosis.LungCancer:   "lung_cancer_model.json",
	diagnosis.SkinCancer:   "skin_cancer_model.json",
}

type fileRepository struct {
	dir string
}

// NewFileRepository reads classifier artifacts from dir. Artifacts are read on
// every Load; nothing is cached.
func NewFileRepository(dir string) diagnosis.ModelRepository {
	return &fileRepository{dir: dir}
}

// ArtifactPath returns where the artifact for ct is expected.
func ArtifactPath(dir string, ct diagnosis.CancerType) (string, error) {
	name, ok := artifactNames[ct]
	if !ok {
		return "", fmt.Errorf("%w: %q", diagnosis.ErrUnknownCancerType, ct)
	}
	return filepath.Join(dir, name), nil
}

func (r *fileRepository) Load(ctx context.Context, ct diagnosis.CancerType) (diagnosis.Model, error) {
	path, err := ArtifactPath(r.dir, ct)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", diagnosis.ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}

	a, err := DecodeArtifact(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if a.CancerType != "" && a.CancerType != string(ct) {
		slog.WarnContext(ctx, "model artifact declares a different cancer type", "path", path, "declared", a.CancerType, "expected", string(ct))
	}

	switch a.Estimator {
	case estimatorLogistic:
		return newLogistic(a), nil
	default:
		return nil, fmt.Errorf("%w: %s: unsupported estimator %q", diagnosis.ErrModelCorrupt, path, a.Estimator)
	}
}
