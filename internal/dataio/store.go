package dataio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store moves whole objects in and out of a backing location.
type Store interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	// Rename replaces to with the object at from.
	Rename(ctx context.Context, from, to string) error
	// Remove deletes path. A missing path is not an error.
	Remove(ctx context.Context, path string) error
}

// LocalStore reads and writes the local filesystem. Parent directories are
// created on write.
type LocalStore struct{}

// Read returns the file content at path.
func (LocalStore) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StoreError{Op: "read", Path: path, Cause: err}
	}
	return data, nil
}

// Write replaces the file at path with data.
func (LocalStore) Write(_ context.Context, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &StoreError{Op: "write", Path: path, Cause: err}
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &StoreError{Op: "write", Path: path, Cause: err}
	}
	return nil
}

// Rename moves from over to. Both must be on the same filesystem.
func (LocalStore) Rename(_ context.Context, from, to string) error {
	if err := os.Rename(from, to); err != nil {
		return &StoreError{Op: "rename", Path: to, Cause: err}
	}
	return nil
}

func (LocalStore) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StoreError{Op: "remove", Path: path, Cause: err}
	}
	return nil
}

// Mux routes gs:// paths to a remote store and everything else to the local
// filesystem.
type Mux struct {
	Local  Store
	Remote Store
}

// NewMux returns a Mux over the local filesystem. remote may be nil when no
// gs:// paths are used.
func NewMux(remote Store) *Mux {
	return &Mux{Local: LocalStore{}, Remote: remote}
}

func (m *Mux) route(path string) (Store, error) {
	if IsRemote(path) {
		if m.Remote == nil {
			return nil, &StoreError{Op: "open", Path: path, Cause: fmt.Errorf("no cloud storage client configured")}
		}
		return m.Remote, nil
	}
	if m.Local == nil {
		return LocalStore{}, nil
	}
	return m.Local, nil
}

func (m *Mux) Read(ctx context.Context, path string) ([]byte, error) {
	s, err := m.route(path)
	if err != nil {
		return nil, err
	}
	return s.Read(ctx, path)
}

func (m *Mux) Write(ctx context.Context, path string, data []byte) error {
	s, err := m.route(path)
	if err != nil {
		return err
	}
	return s.Write(ctx, path, data)
}

func (m *Mux) Rename(ctx context.Context, from, to string) error {
	if IsRemote(from) != IsRemote(to) {
		return &StoreError{Op: "rename", Path: to, Cause: fmt.Errorf("cannot move %s across stores", from)}
	}
	s, err := m.route(to)
	if err != nil {
		return err
	}
	return s.Rename(ctx, from, to)
}

func (m *Mux) Remove(ctx context.Context, path string) error {
	s, err := m.route(path)
	if err != nil {
		return err
	}
	return s.Remove(ctx, path)
}

// StagingPath returns a sibling of path for writing before a Rename. The
// extension is kept so the format is still detected from the name.
func StagingPath(path, token string) string {
	i := strings.LastIndex(path, "/")
	return path[:i+1] + ".staging-" + token + "-" + path[i+1:]
}

// IsRemote reports whether path names a Cloud Storage object.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, gcsScheme)
}
