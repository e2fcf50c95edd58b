package compartmap

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// ReadPowers is the read capability resolution consumes. Locations are
// clean, absolute, slash-separated paths.
//
// Both operations take a context because implementations may be
// I/O-bound; resolution suspends only at these boundaries.
type ReadPowers interface {
	// MaybeRead returns the contents of the file at location, or
	// (nil, nil) if no file exists there. Absence is not an error.
	MaybeRead(ctx context.Context, location string) ([]byte, error)

	// Canonicalize maps a nominal location to its canonical form, so two
	// paths aliasing the same physical package (e.g. through symlinks)
	// are treated as one location.
	Canonicalize(ctx context.Context, location string) (string, error)
}

// fsReadPowers adapts an afero filesystem to ReadPowers.
type fsReadPowers struct {
	fs afero.Fs
}

// NewFilesystemReadPowers returns read powers backed by the given
// filesystem. Handy with afero.NewMemMapFs for hermetic tests.
func NewFilesystemReadPowers(fsys afero.Fs) ReadPowers {
	return &fsReadPowers{fs: fsys}
}

// NewOSReadPowers returns read powers backed by the host filesystem,
// with symlink-aware canonicalization.
func NewOSReadPowers() ReadPowers {
	return NewFilesystemReadPowers(afero.NewOsFs())
}

func (p *fsReadPowers) MaybeRead(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(p.fs, location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (p *fsReadPowers) Canonicalize(ctx context.Context, location string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleaned := path.Clean(location)
	// Only the host filesystem has symlinks to resolve; EvalSymlinks on a
	// path that does not exist yet falls back to the cleaned form.
	if _, ok := p.fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(cleaned); err == nil {
			return filepath.ToSlash(resolved), nil
		}
	}
	return cleaned, nil
}
