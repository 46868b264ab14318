// CLAUDE:SUMMARY Best-effort DWG→DXF conversion chain: ODAFileConverter, dwg2dxf, then a DXF-compatible probe.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/electrovision/planforge/dxf"
	"github.com/electrovision/planforge/extrun"
	"github.com/electrovision/planforge/plan"
)

// convertDWG converts a DWG to DXF with whatever tool is available, then
// renders the DXF. If no conversion method succeeds the file is skipped
// by the batch with a warning; this returns the error for that.
func (c *Converter) convertDWG(ctx context.Context, path string) ([]string, error) {
	tmpDir, err := os.MkdirTemp("", "planforge-dwg-")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dxfPath, err := c.dwgToDXF(ctx, path, tmpDir)
	if err != nil {
		return nil, err
	}

	// Render like a native DXF but keep the dwg_ prefix and the original
	// DWG stem so outputs from the two kinds cannot collide.
	return c.renderDXFFile(dxfPath, plan.KindDWG.Prefix()+stem(path))
}

// dwgToDXF tries each conversion method in order and returns the path of
// the produced DXF inside destDir.
func (c *Converter) dwgToDXF(ctx context.Context, dwgPath, destDir string) (string, error) {
	dxfPath := filepath.Join(destDir, stem(dwgPath)+".dxf")

	// Method 1: ODA File Converter (batch mode: src dir, dest dir, output
	// version/format, recurse=0, audit=1, filename filter).
	res, err := extrun.Run(ctx, c.cfg.CommandTimeout, "ODAFileConverter",
		filepath.Dir(dwgPath), destDir, "ACAD2018", "DXF", "0", "1", filepath.Base(dwgPath))
	if err == nil && fileExists(dxfPath) {
		c.logger.Info("converted dwg via ODAFileConverter", "file", dwgPath)
		return dxfPath, nil
	}
	if err != nil && !errors.Is(err, extrun.ErrNotFound) {
		c.logger.Warn("ODAFileConverter failed", "file", dwgPath, "error", err, "stderr", string(res.Stderr))
	}

	// Method 2: dwg2dxf (LibreDWG).
	res, err = extrun.Run(ctx, c.cfg.CommandTimeout, "dwg2dxf", "-o", dxfPath, dwgPath)
	if err == nil && fileExists(dxfPath) {
		c.logger.Info("converted dwg via dwg2dxf", "file", dwgPath)
		return dxfPath, nil
	}
	if err != nil && !errors.Is(err, extrun.ErrNotFound) {
		c.logger.Warn("dwg2dxf failed", "file", dwgPath, "error", err, "stderr", string(res.Stderr))
	}

	// Method 3: some "DWG" files are DXF content with the wrong extension.
	// Copy and probe; discard on parse failure.
	if err := plainCopy(dwgPath, dxfPath); err == nil {
		if d, err := dxf.Open(dxfPath); err == nil && !d.Empty() {
			c.logger.Info("dwg file is dxf-compatible", "file", dwgPath)
			return dxfPath, nil
		}
		os.Remove(dxfPath)
	}

	return "", fmt.Errorf("no working dwg converter for %s (tried ODAFileConverter, dwg2dxf, dxf probe)", dwgPath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func plainCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
