// CLAUDE:SUMMARY Routes incoming plan files into per-kind source directories with collision-safe copies.
// Package router places incoming plan files into the per-kind source tree
// (pdf/, dwg/, dxf/, images/). Files are copied, never moved, so the
// original upload path stays valid for immediate analysis. A same-named
// file at the destination is never overwritten: the copy gets a numeric
// suffix (_1, _2, ...) instead.
package router

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/electrovision/planforge/plan"
)

// ErrUnsafeName is returned when a stored filename would escape the
// destination directory.
var ErrUnsafeName = errors.New("router: unsafe file name")

// Config configures a Router.
type Config struct {
	// BaseDir is the root of the source tree (default: "source_files").
	BaseDir string

	// Logger for placement messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.BaseDir == "" {
		c.BaseDir = "source_files"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Router classifies and stores source files.
type Router struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Router with the given configuration.
func New(cfg Config) *Router {
	cfg.defaults()
	return &Router{cfg: cfg, logger: cfg.Logger}
}

// Placement describes where a file ended up.
type Placement struct {
	Kind plan.Kind `json:"kind"`
	Path string    `json:"path"`
}

// Place copies srcPath into the source subdirectory matching its
// extension. Unrecognized extensions are rejected before anything is
// written. Returns the destination placement.
func (r *Router) Place(srcPath string) (*Placement, error) {
	kind, err := plan.Classify(srcPath)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(srcPath)
	if err := checkName(name); err != nil {
		return nil, err
	}

	destDir := filepath.Join(r.cfg.BaseDir, kind.Dir())
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", destDir, err)
	}

	destPath, err := uniquePath(destDir, name)
	if err != nil {
		return nil, err
	}

	if err := copyFile(srcPath, destPath); err != nil {
		return nil, err
	}

	r.logger.Info("routed source file", "kind", kind, "dest", destPath)
	return &Placement{Kind: kind, Path: destPath}, nil
}

// checkName rejects names that could traverse out of the destination.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ErrUnsafeName
	}
	return nil
}

// uniquePath returns dir/name, or dir/base_N.ext for the first free N when
// the plain path is taken.
func uniquePath(dir, name string) (string, error) {
	p := filepath.Join(dir, name)
	if !exists(p) {
		return p, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; i < 10000; i++ {
		p = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if !exists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyFile writes dst via a temp file in the same directory and renames it
// into place, so a crash never leaves a partial destination.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".route-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
