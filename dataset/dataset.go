// CLAUDE:SUMMARY Shuffles extracted images and copies them into train/val directories at a fixed ratio.
// Package dataset organizes extracted images into training and validation
// splits. Images are copied, never moved, so the extracted set stays
// intact for re-splits. No label files are produced here; annotation
// happens later with an external tool.
package dataset

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// Config configures an organize run.
type Config struct {
	// DatasetDir is the root the images/{train,val} tree is built under
	// (default: "dataset").
	DatasetDir string

	// SplitRatio is the training fraction (default: 0.8).
	SplitRatio float64

	// Logger for progress messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.DatasetDir == "" {
		c.DatasetDir = "dataset"
	}
	if c.SplitRatio <= 0 || c.SplitRatio >= 1 {
		c.SplitRatio = 0.8
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Result reports the outcome of a split.
type Result struct {
	Train int `json:"train"`
	Val   int `json:"val"`
}

// Organize shuffles images and copies the first SplitRatio share into
// images/train and the rest into images/val, renaming them
// train_img_NNN.jpg / val_img_NNN.jpg. The shuffle is intentionally
// non-deterministic; reproducibility is not part of the contract.
func Organize(images []string, cfg Config) (*Result, error) {
	cfg.defaults()

	trainDir := filepath.Join(cfg.DatasetDir, "images", "train")
	valDir := filepath.Join(cfg.DatasetDir, "images", "val")
	for _, d := range []string{trainDir, valDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}

	shuffled := make([]string, len(images))
	copy(shuffled, images)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	split := int(float64(len(shuffled)) * cfg.SplitRatio)
	res := &Result{}

	for i, src := range shuffled[:split] {
		dst := filepath.Join(trainDir, fmt.Sprintf("train_img_%03d.jpg", i+1))
		if err := copyFile(src, dst); err != nil {
			return nil, err
		}
		res.Train++
	}
	for i, src := range shuffled[split:] {
		dst := filepath.Join(valDir, fmt.Sprintf("val_img_%03d.jpg", i+1))
		if err := copyFile(src, dst); err != nil {
			return nil, err
		}
		res.Val++
	}

	cfg.Logger.Info("dataset organized", "train", res.Train, "val", res.Val)
	return res, nil
}

// CollectImages lists the JPEGs under an extraction directory, for the CLI
// path where organize runs separately from convert.
func CollectImages(dir string) ([]string, error) {
	var images []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".jpg" || ext == ".jpeg" {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", dir, err)
	}
	return images, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".split-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
