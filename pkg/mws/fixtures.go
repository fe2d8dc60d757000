package mws

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

//go:embed fixtures/*.xml
var embeddedFixtures embed.FS

// FixtureLoader returns a recorded response body for an operation.
type FixtureLoader interface {
	LoadFixture(name string) ([]byte, error)
}

// FSFixtures loads "<name>.xml" files from a filesystem.
type FSFixtures struct {
	fsys fs.FS
}

// NewFSFixtures creates a loader over fsys.
func NewFSFixtures(fsys fs.FS) *FSFixtures {
	return &FSFixtures{fsys: fsys}
}

// DirFixtures creates a loader over a directory on disk.
func DirFixtures(dir string) *FSFixtures {
	return NewFSFixtures(os.DirFS(dir))
}

// DefaultFixtures returns the fixtures compiled into the binary.
func DefaultFixtures() *FSFixtures {
	sub, err := fs.Sub(embeddedFixtures, "fixtures")
	if err != nil {
		panic(err)
	}
	return NewFSFixtures(sub)
}

// LoadFixture reads the fixture recorded for name.
func (f *FSFixtures) LoadFixture(name string) ([]byte, error) {
	data, err := fs.ReadFile(f.fsys, path.Clean(name)+".xml")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFixtureNotFound, name)
		}
		return nil, fmt.Errorf("reading fixture %s: %w", name, err)
	}
	return data, nil
}

var _ FixtureLoader = (*FSFixtures)(nil)
