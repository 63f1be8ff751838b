// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// EnsureDirs creates the upload, output and work directories and returns
// every directory this call created, missing parents included, outermost
// first. If any of them cannot be created, the ones created so far are
// removed again and nil is returned.
func EnsureDirs(p PathsConfig) ([]string, error) {
	var created []string
	for _, dir := range []string{p.UploadDir, p.OutputDir, p.WorkDir} {
		missing, err := missingDirs(dir)
		if err == nil {
			err = os.MkdirAll(dir, 0o750)
		}
		if err != nil {
			RemoveCreated(created)
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
		created = append(created, missing...)
	}
	return created, nil
}

// RemoveCreated removes directories returned by EnsureDirs, innermost first.
func RemoveCreated(dirs []string) {
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.RemoveAll(dirs[i])
	}
}

// missingDirs lists dir and each of its ancestors that does not exist yet,
// outermost first.
func missingDirs(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	var missing []string
	for cur := abs; ; {
		_, err := os.Stat(cur)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		missing = append([]string{cur}, missing...)
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return missing, nil
}
