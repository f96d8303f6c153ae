// Package photo provides the captured or derived photo artifact.
package photo

import (
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for logos and snapshots
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// Artifact is a photo as an (image, file path) pair.
// Artifacts are values: replacing one never changes a copy held elsewhere.
type Artifact struct {
	Image image.Image
	Path  string
}

// IsZero reports whether the artifact holds no photo.
func (a Artifact) IsZero() bool {
	return a.Image == nil && a.Path == ""
}

// Load decodes the image file at path into an artifact.
func Load(path string) (Artifact, error) {
	img, err := Decode(path)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Image: img, Path: path}, nil
}

// Decode reads and decodes an image file.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %s", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %s", path)
	}
	return img, nil
}

// SaveJPEG encodes img as JPEG to path.
// The file is written under a temporary name and renamed into place.
func SaveJPEG(img image.Image, path string, quality int) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", tmp)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to close %s", tmp)
	}
	return errors.Wrap(os.Rename(tmp, path), "failed to move image into place")
}

// Fit scales img to fit inside size, keeping the aspect ratio.
func Fit(img image.Image, size image.Point) *image.RGBA {
	return Scale(img, FitRect(img.Bounds().Size(), size).Size())
}

// Scale resizes img to exactly size.
func Scale(img image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// FitRect returns the largest rectangle with src's aspect ratio that is
// centered inside a box of size dst.
func FitRect(src, dst image.Point) image.Rectangle {
	if src.X <= 0 || src.Y <= 0 || dst.X <= 0 || dst.Y <= 0 {
		return image.Rectangle{Max: dst}
	}
	w, h := dst.X, src.Y*dst.X/src.X
	if h > dst.Y {
		w, h = src.X*dst.Y/src.Y, dst.Y
	}
	off := image.Pt((dst.X-w)/2, (dst.Y-h)/2)
	return image.Rect(off.X, off.Y, off.X+w, off.Y+h)
}

// NewPath returns a fresh capture file name inside dir.
func NewPath(dir string, now time.Time) string {
	name := now.Format("20060102-150405") + "_" + uuid.New().String()[:8] + ".jpg"
	return filepath.Join(dir, name)
}

// DerivedPath returns the path for a copy of path processed by the named step,
// e.g. "snap.jpg" + "gotham" -> "snap_gotham.jpg".
func DerivedPath(path, suffix string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if ext == "" {
		ext = ".jpg"
	}
	return base + "_" + suffix + ext
}
