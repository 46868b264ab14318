// CLAUDE:SUMMARY Shared domain model: source-file kinds and the canonical extension table.
// Package plan defines the shared vocabulary of the planforge toolchain:
// which file kinds exist, which extensions map to them, and where each kind
// lives inside a source tree.
//
// Every other package (router, convert, server) resolves extensions through
// this single table so the accepted-format list cannot drift between the
// upload endpoint and the batch converter.
package plan

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies a source-file category.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindDWG   Kind = "dwg"
	KindDXF   Kind = "dxf"
	KindImage Kind = "image"
)

// extTable maps a lowercase extension (with dot) to its kind.
var extTable = map[string]Kind{
	".pdf":  KindPDF,
	".dwg":  KindDWG,
	".dxf":  KindDXF,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".tiff": KindImage,
	".tif":  KindImage,
	".bmp":  KindImage,
	".gif":  KindImage,
	".webp": KindImage,
}

// KindForPath returns the kind for a file path based on its extension,
// case-insensitively. The second return is false for unrecognized
// extensions.
func KindForPath(path string) (Kind, bool) {
	k, ok := extTable[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// Classify is KindForPath with an error instead of a bool, for call sites
// that reject unsupported files.
func Classify(path string) (Kind, error) {
	k, ok := KindForPath(path)
	if !ok {
		return "", fmt.Errorf("unsupported file type: %q", filepath.Ext(path))
	}
	return k, nil
}

// Dir returns the subdirectory name a kind occupies inside a source tree.
// Raster images share one directory regardless of format.
func (k Kind) Dir() string {
	if k == KindImage {
		return "images"
	}
	return string(k)
}

// Prefix returns the filename prefix stamped onto converted output so that
// files originating from different source kinds cannot collide.
func (k Kind) Prefix() string {
	if k == KindImage {
		return "img_"
	}
	return string(k) + "_"
}

// Kinds lists every kind in source-tree order.
func Kinds() []Kind {
	return []Kind{KindPDF, KindDWG, KindDXF, KindImage}
}

// AcceptedExtensions returns the full set of recognized extensions
// (lowercase, with dot) in stable order.
func AcceptedExtensions() []string {
	return []string{".pdf", ".dwg", ".dxf", ".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp", ".gif", ".webp"}
}
