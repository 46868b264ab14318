// CLAUDE:SUMMARY Raster passthrough: decode any supported format, enhance, and save canonical JPEG atomically.
package convert

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	// Decoders for the accepted raster formats beyond jpeg/png.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/electrovision/planforge/plan"
)

// contrastBoost and sharpenSigma tune the enhancement applied before
// training. Contrast +20% matches the data-prep pipeline the annotators
// calibrated against; the mild unsharp mask makes thin plan lines survive
// JPEG compression.
const (
	contrastBoost = 20.0
	sharpenSigma  = 0.5
)

// convertImage normalizes one raster file into the canonical JPEG form.
func (c *Converter) convertImage(path string) ([]string, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}

	out := c.enhance(img, true, true)
	dst := filepath.Join(c.cfg.OutputDir, plan.KindImage.Prefix()+stem(path)+".jpg")
	if err := c.saveJPEG(out, dst); err != nil {
		return nil, err
	}
	return []string{dst}, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// enhance produces the training-ready version of img: any transparency is
// composited onto white (grayscale expands to RGB in the same step), the
// contrast boost is applied, optionally a mild sharpen, and, when fit is
// set, oversized images are downscaled to MaxDimension preserving aspect
// ratio. Rendered pages skip the fit since their DPI already bounds them.
func (c *Converter) enhance(img image.Image, sharpen, fit bool) image.Image {
	flat := flattenOnWhite(img)

	out := imaging.AdjustContrast(flat, contrastBoost)
	if sharpen {
		out = imaging.Sharpen(out, sharpenSigma)
	}

	b := out.Bounds()
	if fit && (b.Dx() > c.cfg.MaxDimension || b.Dy() > c.cfg.MaxDimension) {
		out = imaging.Fit(out, c.cfg.MaxDimension, c.cfg.MaxDimension, imaging.Lanczos)
	}
	return out
}

// flattenOnWhite draws img over a white background, normalizing every
// color mode (RGBA, grayscale, paletted) to NRGBA.
func flattenOnWhite(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// saveJPEG writes img to dst at the configured quality via a temp file in
// the same directory, then renames it into place.
func (c *Converter) saveJPEG(img image.Image, dst string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".convert-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(c.cfg.JPEGQuality)); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
