// CLAUDE:SUMMARY PDF pages to JPEGs via pdftoppm, page count validated with pdfcpu first.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/electrovision/planforge/extrun"
)

// convertPDF rasterizes every page of a PDF at the configured DPI.
// Output files are named <stem>_page_NNN.jpg with the pdf_ prefix and a
// 1-based zero-padded page number.
func (c *Converter) convertPDF(ctx context.Context, path string) ([]string, error) {
	// pdfcpu both validates the file and gives the expected page count, so
	// a corrupt PDF fails here before any subprocess runs.
	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", path, err)
	}
	if pages == 0 {
		return nil, fmt.Errorf("pdf %s has no pages", path)
	}

	// Render into a scratch dir under the output dir so the final rename
	// stays on one filesystem.
	tmpDir, err := os.MkdirTemp(c.cfg.OutputDir, ".pdf-")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	res, err := extrun.Run(ctx, c.cfg.CommandTimeout, "pdftoppm",
		"-jpeg", "-r", fmt.Sprintf("%d", c.cfg.DPI), path, prefix)
	if err != nil {
		if errors.Is(err, extrun.ErrNotFound) {
			return nil, fmt.Errorf("pdftoppm not installed: %w", err)
		}
		return nil, fmt.Errorf("pdftoppm %s: %w (stderr: %s)", path, err, res.Stderr)
	}

	rendered, err := collectRenderedPages(tmpDir)
	if err != nil {
		return nil, err
	}
	if len(rendered) != pages {
		return nil, fmt.Errorf("pdf %s: rendered %d of %d pages", path, len(rendered), pages)
	}

	name := stem(path)
	var outputs []string
	for i, page := range rendered {
		// Pages are kept exactly as rendered: contrast/sharpen enhancement
		// is scoped to the raster passthrough path, and the render DPI
		// already controls page size.
		dst := filepath.Join(c.cfg.OutputDir, fmt.Sprintf("pdf_%s_page_%03d.jpg", name, i+1))
		if err := installPage(page, dst); err != nil {
			return nil, err
		}
		outputs = append(outputs, dst)
	}
	return outputs, nil
}

// installPage moves one rendered page into its final name. The scratch
// dir lives under the output dir, so the rename stays on one filesystem
// and the installed file is byte-identical to pdftoppm's output.
func installPage(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("install %s: %w", dst, err)
	}
	return nil
}

// collectRenderedPages lists pdftoppm output ("page-1.jpg", "page-01.jpg",
// ... depending on page count) in page order.
func collectRenderedPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list render dir: %w", err)
	}

	type page struct {
		num  int
		path string
	}
	var pages []page
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(e.Name(), "page-%d.jpg", &n); err != nil {
			continue
		}
		pages = append(pages, page{num: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.path
	}
	return out, nil
}
