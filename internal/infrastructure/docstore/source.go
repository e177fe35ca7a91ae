package docstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// Source fetches raw fixture bytes by source-relative path.  Implementations
// return an AppError with ErrCodeResourceNotFound for missing resources.
type Source interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, path string) ([]byte, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// CleanPath normalizes a source-relative path and rejects anything that
// escapes the root.
func CleanPath(p string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", apperrors.New(apperrors.ErrCodeValidation, "empty resource path")
	}
	return clean, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Local directory
// ─────────────────────────────────────────────────────────────────────────────

// DirSource reads fixtures from a local directory.
type DirSource struct {
	root string
}

// NewDirSource returns a Source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

// Root returns the directory.
func (s *DirSource) Root() string {
	return s.root
}

// Fetch reads root/p.
func (s *DirSource) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeFetchTimeout, "fetch cancelled")
	}
	rel, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.New(apperrors.ErrCodeResourceNotFound, "resource not found").WithDetail(rel)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeFetchFailed, "read resource").WithDetail(rel)
	}
	return data, nil
}

//Personal.AI order the ending
