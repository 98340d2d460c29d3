// Package files stores uploaded images below the public directory.
// Paths handed to Store are relative to its root; Remove and RemoveDir treat
// an already-absent target as success so they can be replayed during rollback.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

var (
	ErrOutsideRoot = errors.New("path escapes storage root")
	ErrRootMissing = errors.New("storage root is missing")
)

type Store struct {
	root string
}

func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: abs}, nil
}

func (s *Store) Root() string { return s.root }

// Abs resolves rel below the root.
func (s *Store) Abs(rel string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(rel))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return p, nil
}

// EnsureDir creates rel and any missing parents.
func (s *Store) EnsureDir(rel string) error {
	p, err := s.Abs(rel)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

// Move places the file at src (an absolute staging path) at destRel.
// Rename is tried first; across filesystems it falls back to copy then
// delete of the source.
func (s *Store) Move(src, destRel string) error {
	dest, err := s.Abs(destRel)
	if err != nil {
		return err
	}

	err = os.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := copyFile(src, dest); err != nil {
		_ = os.Remove(dest)
		return err
	}
	return os.Remove(src)
}

// Remove deletes the file at rel; a missing file is not an error.
func (s *Store) Remove(rel string) error {
	p, err := s.Abs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveDir deletes rel and everything below it.
func (s *Store) RemoveDir(rel string) error {
	p, err := s.Abs(rel)
	if err != nil {
		return err
	}
	if p == s.root {
		return ErrOutsideRoot
	}
	return os.RemoveAll(p)
}

// Exists reports whether rel is present.
func (s *Store) Exists(rel string) bool {
	p, err := s.Abs(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Check reports whether the root directory is still present. It backs the
// health endpoint.
func (s *Store) Check(context.Context) error {
	if !s.Exists("") {
		return fmt.Errorf("%w: %s", ErrRootMissing, s.root)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
