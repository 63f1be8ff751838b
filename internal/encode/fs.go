// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package encode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/renameio/v2"
)

// FS abstracts filesystem operations for testability.
type FS interface {
	// Publish moves a finished file to its final path. Readers of newpath
	// observe either nothing or the complete file.
	Publish(oldpath, newpath string) error
	RemoveAll(path string) error
	MkdirAll(path string, perm os.FileMode) error
}

// RealFS uses actual os operations.
type RealFS struct{}

// Publish renames oldpath to newpath. When the two live on different
// filesystems the file is copied into a pending file next to newpath and
// atomically moved into place, then the source is removed.
func (RealFS) Publish(oldpath, newpath string) error {
	err := os.Rename(oldpath, newpath)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyAtomic(oldpath, newpath); err != nil {
		return fmt.Errorf("cross-device publish: %w", err)
	}
	return os.Remove(oldpath)
}

func (RealFS) RemoveAll(path string) error { return os.RemoveAll(path) }

func (RealFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func copyAtomic(src, dst string) error {
	// #nosec G304 -- src is a temp file inside our own work directory
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	pf, err := renameio.NewPendingFile(dst, renameio.WithTempDir(filepath.Dir(dst)), renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	defer func() { _ = pf.Cleanup() }()

	if _, err := io.Copy(pf, in); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}
