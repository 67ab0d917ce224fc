package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// Persist writes the artifact to dir/name, creating dir when needed.
// It returns the written path.
func Persist(dir, name string, artifact *domain.Artifact) (string, error) {
	if artifact == nil {
		return "", apperrors.NewInternalError("nil artifact")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("create output directory %s", dir), err)
	}

	path := filepath.Join(dir, filepath.Base(name))

	// each writer gets its own temp file; the last rename wins
	tmp, err := os.CreateTemp(dir, filepath.Base(name)+".*.tmp")
	if err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("create temp file for %s", path), err)
	}
	if _, err := tmp.Write(artifact.Content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", apperrors.NewStorageError(fmt.Sprintf("write %s", path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", apperrors.NewStorageError(fmt.Sprintf("write %s", path), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return "", apperrors.NewStorageError(fmt.Sprintf("chmod %s", path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", apperrors.NewStorageError(fmt.Sprintf("rename %s", path), err)
	}
	return path, nil
}
