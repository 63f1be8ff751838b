// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfineRelPath(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.mp4"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("s"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret"), filepath.Join(root, "link.mp4")))

	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)

	got, err := ConfineRelPath(root, "a.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(realRoot, "a.mp4"), got)

	got, err = ConfineRelPath(root, "missing.mp4")
	require.NoError(t, err, "missing leaf is resolved through its parent")
	assert.Equal(t, filepath.Join(realRoot, "missing.mp4"), got)

	for _, rel := range []string{"../x", "..", "a/../../x", `a\b`, "/etc/passwd"} {
		_, err := ConfineRelPath(root, rel)
		assert.Error(t, err, rel)
	}

	_, err = ConfineRelPath(root, "link.mp4")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestOpenRegular(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "v.mp4"), []byte("data"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	f, fi, err := OpenRegular(root, "v.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(4), fi.Size())
	require.NoError(t, f.Close())

	_, _, err = OpenRegular(root, "dir")
	assert.Error(t, err)

	_, _, err = OpenRegular(root, "nope.mp4")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
