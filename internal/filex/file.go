// Package filex holds small filesystem helpers shared by the CLI.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) when missing and returns its absolute
// path.
func EnsureDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// EnsureParentDir creates the directory that will hold file.
func EnsureParentDir(file string) error {
	dir := filepath.Dir(file)
	if dir == "." || dir == "" {
		return nil
	}
	_, err := EnsureDir(dir)
	return err
}

// PendingFile is written under a temporary name and only appears at its
// final path after Commit.
type PendingFile struct {
	*os.File
	final string
	done  bool
}

// CreatePending opens "<path>.part" for writing.
func CreatePending(path string) (*PendingFile, error) {
	if err := EnsureParentDir(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path+".part", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o660)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &PendingFile{File: f, final: path}, nil
}

// Commit closes the file and renames it into place.
func (p *PendingFile) Commit() error {
	if p.done {
		return errors.New("pending file already finished")
	}
	p.done = true
	if err := p.File.Close(); err != nil {
		_ = os.Remove(p.File.Name())
		return fmt.Errorf("close %s: %w", p.final, err)
	}
	if err := os.Rename(p.File.Name(), p.final); err != nil {
		_ = os.Remove(p.File.Name())
		return fmt.Errorf("rename %s: %w", p.final, err)
	}
	return nil
}

// Discard closes and removes the temporary file. It is a no-op after Commit.
func (p *PendingFile) Discard() {
	if p.done {
		return
	}
	p.done = true
	_ = p.File.Close()
	_ = os.Remove(p.File.Name())
}
