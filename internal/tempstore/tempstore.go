// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tempstore owns the temporary files that hold decoded attachment
// payloads for the duration of one import run.
//
// A Store is created once per run. Every payload written during parsing
// becomes a Handle owned by that Store, and Store.Release removes all of
// them at once. Release is meant to sit in a defer that wraps the whole
// transform-and-publish phase.
package tempstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/afero"
)

const dirPrefix = "enex2onenote-"

// ErrReleased is returned when writing to a store that was already released.
var ErrReleased = errors.New("tempstore: store already released")

// Store is the single owner of every Handle created during a run.
type Store struct {
	fs  afero.Fs
	dir string

	mu       sync.Mutex
	handles  []*Handle
	released bool
}

// New creates a store backed by the OS filesystem. Payload files go into a
// fresh directory under parent; an empty parent means the OS temp directory.
func New(parent string) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), parent)
}

// NewWithFs is New over an arbitrary afero filesystem.
func NewWithFs(fs afero.Fs, parent string) (*Store, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	if err := fs.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp parent %s: %w", parent, err)
	}
	dir, err := afero.TempDir(fs, parent, dirPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Dir returns the directory holding this store's payload files.
func (s *Store) Dir() string { return s.dir }

// Len returns the number of live handles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Write copies r into a newly allocated file and returns its handle.
func (s *Store) Write(r io.Reader) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrReleased
	}

	f, err := afero.TempFile(s.fs, s.dir, "payload-*")
	if err != nil {
		return nil, fmt.Errorf("creating payload file: %w", err)
	}
	path := f.Name()

	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		s.fs.Remove(path)
		return nil, fmt.Errorf("writing payload: %w", copyErr)
	}
	if closeErr != nil {
		s.fs.Remove(path)
		return nil, fmt.Errorf("closing payload file: %w", closeErr)
	}

	h := &Handle{store: s, path: path}
	s.handles = append(s.handles, h)
	return h, nil
}

// Release deletes every payload file and the store directory. It runs at
// most once; later calls return nil. Removal keeps going past individual
// failures and reports them joined.
func (s *Store) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	s.released = true

	var errs []error
	for _, h := range s.handles {
		if err := h.release(); err != nil {
			errs = append(errs, err)
		}
	}
	s.handles = nil

	if err := s.fs.RemoveAll(s.dir); err != nil {
		errs = append(errs, fmt.Errorf("removing %s: %w", s.dir, err))
	}
	return errors.Join(errs...)
}

// Handle is one payload file. It implements types.Payload.
type Handle struct {
	store    *Store
	path     string
	released bool
}

// Path returns the payload file location.
func (h *Handle) Path() string { return h.path }

// Open returns a reader over the payload bytes.
func (h *Handle) Open() (io.ReadCloser, error) {
	if h.released {
		return nil, fmt.Errorf("opening %s: %w", h.path, ErrReleased)
	}
	f, err := h.store.fs.Open(h.path)
	if err != nil {
		return nil, fmt.Errorf("opening payload: %w", err)
	}
	return f, nil
}

// release is only reachable through Store.Release, which holds the lock.
func (h *Handle) release() error {
	if h.released {
		return nil
	}
	h.released = true
	if err := h.store.fs.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", h.path, err)
	}
	return nil
}
