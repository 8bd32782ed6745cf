package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/stashapp/stash/pkg/plugin/common/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// PrepareSourceImage normalises a source portrait before it reaches the
// engine: EXIF orientation is applied, the long side is capped at maxDim and
// both sides are trimmed to a multiple of division. The result is stored as
// a new JPEG and its handle returned.
func (s *Store) PrepareSourceImage(handle string, maxDim, division int) (string, error) {
	path, err := s.Resolve(handle)
	if err != nil {
		return "", err
	}

	img, err := loadImage(path)
	if err != nil {
		return "", err
	}

	orientation := readOrientation(path)
	img = applyOrientation(img, orientation)
	img = limitSize(img, maxDim, division)

	out := NewHandle(".jpg")
	outPath, err := s.Path(out)
	if err != nil {
		return "", err
	}
	if err := imaging.Save(img, outPath, imaging.JPEGQuality(95)); err != nil {
		return "", fmt.Errorf("failed to save prepared image: %w", err)
	}

	b := img.Bounds()
	log.Debugf("Prepared source %s -> %s (%dx%d, orientation %d)", handle, out, b.Dx(), b.Dy(), orientation)
	return out, nil
}

// loadImage decodes any registered format, webp included
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	log.Tracef("Decoded %s image %s", format, path)
	return img, nil
}

// readOrientation returns the EXIF orientation tag, or 1 when the file has
// no usable EXIF data
func readOrientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 1
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// applyOrientation maps the eight EXIF orientations onto upright pixels
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// limitSize caps the long side at maxDim and trims both sides down to a
// multiple of division
func limitSize(img image.Image, maxDim, division int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if maxDim > 0 && (w > maxDim || h > maxDim) {
		if w >= h {
			img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
		b = img.Bounds()
		w, h = b.Dx(), b.Dy()
	}

	if division > 1 {
		tw, th := w-w%division, h-h%division
		if tw > 0 && th > 0 && (tw != w || th != h) {
			img = imaging.CropAnchor(img, tw, th, imaging.TopLeft)
		}
	}
	return img
}
