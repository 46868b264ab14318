// CLAUDE:SUMMARY Converter engine that turns PDF/DWG/DXF/raster plans into training JPEGs, batch driver included.
// Package convert turns electrical-plan source files into canonical
// training JPEGs.
//
// Conversion paths:
//   - .pdf  — rasterized per page at 300 DPI via pdftoppm, page count
//     validated with pdfcpu first
//   - .dwg  — converted to DXF by external tools (best effort), then
//     rendered like a native DXF
//   - .dxf  — entities drawn onto a white vector canvas and rasterized
//   - images — decoded, composited onto white, enhanced, saved as JPEG
//
// A failure on one file never aborts the batch: it is logged, counted,
// and the remaining files are processed. Every output is written to a
// temp path and renamed into place, so no partial file is ever visible.
package convert

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/electrovision/planforge/plan"
)

// Config configures a Converter.
type Config struct {
	// OutputDir receives converted JPEGs (default: "extracted_images").
	OutputDir string

	// DPI for PDF page rasterization (default: 300).
	DPI int

	// MaxDimension caps raster passthrough images; larger images are
	// downscaled preserving aspect ratio (default: 4096).
	MaxDimension int

	// JPEGQuality for all outputs (default: 95).
	JPEGQuality int

	// CommandTimeout bounds each external tool invocation (default: 30s).
	CommandTimeout time.Duration

	// Logger for progress and per-file warnings.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.OutputDir == "" {
		c.OutputDir = "extracted_images"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.MaxDimension <= 0 {
		c.MaxDimension = 4096
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = 95
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Converter is the format-conversion engine.
type Converter struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Converter with the given configuration.
func New(cfg Config) *Converter {
	cfg.defaults()
	return &Converter{cfg: cfg, logger: cfg.Logger}
}

// Summary reports the outcome of a batch conversion.
type Summary struct {
	Found     map[plan.Kind]int `json:"found"`
	Converted int               `json:"converted"`
	Failed    int               `json:"failed"`
	Images    []string          `json:"images"`
	Warnings  []string          `json:"warnings"`
}

// File converts a single source file and returns the output image paths.
func (c *Converter) File(ctx context.Context, path string) ([]string, error) {
	kind, err := plan.Classify(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	switch kind {
	case plan.KindPDF:
		return c.convertPDF(ctx, path)
	case plan.KindDWG:
		return c.convertDWG(ctx, path)
	case plan.KindDXF:
		return c.convertDXF(path, plan.KindDXF.Prefix())
	default:
		return c.convertImage(path)
	}
}

// Batch scans sourceDir recursively for plan files and converts them all,
// PDFs first, then DWG, DXF, and raster images. Individual failures are
// recorded in the summary; the returned error covers only setup problems
// (unreadable source dir, uncreatable output dir).
func (c *Converter) Batch(ctx context.Context, sourceDir string) (*Summary, error) {
	byKind, err := scanSources(sourceDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	sum := &Summary{Found: map[plan.Kind]int{}}
	for _, k := range plan.Kinds() {
		sum.Found[k] = len(byKind[k])
	}
	c.logger.Info("scanned source files",
		"pdf", sum.Found[plan.KindPDF],
		"dwg", sum.Found[plan.KindDWG],
		"dxf", sum.Found[plan.KindDXF],
		"images", sum.Found[plan.KindImage])

	for _, k := range plan.Kinds() {
		for _, src := range byKind[k] {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			images, err := c.File(ctx, src)
			if err != nil {
				msg := fmt.Sprintf("%s: %v", src, err)
				sum.Failed++
				sum.Warnings = append(sum.Warnings, msg)
				c.logger.Warn("conversion failed, skipping", "file", src, "error", err)
				continue
			}
			sum.Converted++
			sum.Images = append(sum.Images, images...)
			c.logger.Info("converted", "file", src, "outputs", len(images))
		}
	}

	c.logger.Info("batch complete",
		"converted", sum.Converted, "failed", sum.Failed, "images", len(sum.Images))
	return sum, nil
}

// scanSources walks dir and groups every recognized file by kind.
// Unrecognized files are ignored, not errors — source trees carry
// sidecars and notes.
func scanSources(dir string) (map[plan.Kind][]string, error) {
	byKind := map[plan.Kind][]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if k, ok := plan.KindForPath(path); ok {
			byKind[k] = append(byKind[k], path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return byKind, nil
}

// stem returns the file name without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
