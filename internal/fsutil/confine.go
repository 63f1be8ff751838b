// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsutil resolves client supplied names inside service directories.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a name resolves outside its root, either
// lexically or through a symlink.
var ErrOutsideRoot = errors.New("path escapes root")

// OpenRegular resolves rel under root with ConfineRelPath and opens it. The
// file must be a regular file.
func OpenRegular(root, rel string) (*os.File, os.FileInfo, error) {
	resolved, err := ConfineRelPath(root, rel)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(resolved) // #nosec G304 -- confined to root above
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("not a regular file: %s", filepath.Base(resolved))
	}
	return f, fi, nil
}

// ConfineRelPath joins root and the relative name rel and returns the real
// path, guaranteed to lie under the real root. Backslashes and absolute
// names are refused.
func ConfineRelPath(root, rel string) (string, error) {
	if strings.Contains(rel, `\`) {
		return "", fmt.Errorf("path contains backslash: %q", rel)
	}
	clean := filepath.Clean(rel)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("path must be relative: %q", rel)
	}
	if escapes(clean) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", err
	}

	full := filepath.Join(realRoot, clean)
	real, err := filepath.EvalSymlinks(full)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		// Missing leaf: confine its parent instead.
		parent, perr := filepath.EvalSymlinks(filepath.Dir(full))
		if perr != nil {
			return "", err
		}
		real = filepath.Join(parent, filepath.Base(full))
	}

	relToRoot, err := filepath.Rel(realRoot, real)
	if err != nil || escapes(relToRoot) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	return real, nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
