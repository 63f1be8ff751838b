// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upload

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/disintegration/imaging"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the largest width or height passed to the encoder;
	// bigger stills are downscaled.
	MaxImageDimension = 4096
	// MaxImagePixels rejects images whose decoded size would exhaust memory.
	MaxImagePixels = 100_000_000
)

// ImageNormalizer prepares the still of an image+audio job by writing a
// normalized PNG copy next to the uploads.
type ImageNormalizer struct {
	dir   string
	newID func() string
}

func NewImageNormalizer(dir string) *ImageNormalizer {
	return &ImageNormalizer{dir: dir, newID: uuid.NewString}
}

// PrepareImage normalizes img. The original file is left untouched; release
// removes the copy. Stills that cannot be decoded fail with ErrInvalidImage.
func (n *ImageNormalizer) PrepareImage(ctx context.Context, img compose.FileRef) (compose.FileRef, func(), error) {
	normalized, err := NormalizeImage(img.Path, n.dir, n.newID())
	if err != nil {
		return compose.FileRef{}, nil, err
	}
	release := func() {
		if err := os.Remove(normalized); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger := log.WithComponentFromContext(ctx, "upload")
			logger.Warn().Err(err).Str(log.FieldPath, normalized).Msg("failed to remove normalized image")
		}
	}
	return compose.FileRef{Path: normalized, OriginalName: img.OriginalName}, release, nil
}

// NormalizeImage decodes the still at path, applies its EXIF orientation,
// bounds its size and crops it to even dimensions (yuv420p requires them).
// The result is written as PNG to dir/<id>.png and its path returned.
func NormalizeImage(path, dir, id string) (string, error) {
	cfg, err := decodeConfig(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return "", fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrInvalidImage, cfg.Width, cfg.Height)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() > MaxImageDimension || b.Dy() > MaxImageDimension {
		img = imaging.Fit(img, MaxImageDimension, MaxImageDimension, imaging.Lanczos)
		b = img.Bounds()
	}
	w, h := b.Dx()&^1, b.Dy()&^1
	if w == 0 || h == 0 {
		return "", fmt.Errorf("%w: %dx%d is too small", ErrInvalidImage, b.Dx(), b.Dy())
	}
	if w != b.Dx() || h != b.Dy() {
		img = imaging.CropAnchor(img, w, h, imaging.TopLeft)
	}

	dest := filepath.Join(dir, id+".png")
	pf, err := renameio.NewPendingFile(dest, renameio.WithTempDir(dir), renameio.WithPermissions(0o640))
	if err != nil {
		return "", fmt.Errorf("%w: create normalized image: %w", ErrStorage, err)
	}
	defer func() { _ = pf.Cleanup() }()

	if err := imaging.Encode(pf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("%w: encode normalized image: %w", ErrStorage, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("%w: commit normalized image: %w", ErrStorage, err)
	}
	return dest, nil
}

func decodeConfig(path string) (image.Config, error) {
	// #nosec G304 -- path is an upload we just wrote
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	return cfg, err
}
