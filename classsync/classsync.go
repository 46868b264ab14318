// CLAUDE:SUMMARY Projects the YAML class map into every plain-text sidecar and verifies the result.
// Package classsync keeps the plain-text class-list sidecars consumed by
// the annotation tool and the training pipeline in lockstep with the one
// authoritative YAML config.
//
// The sync is a one-directional projection: YAML → ordered name list →
// overwrite every target. Sidecars are derived artifacts and are never
// read to decide what to write, only re-read afterwards to verify. If the
// YAML cannot be parsed, the run aborts before any sidecar is touched.
package classsync

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Class is one id→name entry of the class map.
type Class struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ClassConfig is the subset of the training YAML this tool consumes. The
// file also carries training hyperparameters; they pass through untouched.
type ClassConfig struct {
	NC    int            `yaml:"nc"`
	Names map[int]string `yaml:"names"`
}

// Load reads and validates the YAML class config. Inline comments
// (including non-ASCII descriptions) are handled by the YAML parser and
// never reach the id→name extraction.
func Load(path string) (*ClassConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class config %s: %w", path, err)
	}
	var cfg ClassConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse class config %s: %w", path, err)
	}
	if len(cfg.Names) == 0 {
		return nil, fmt.Errorf("class config %s: no names section", path)
	}
	for id := range cfg.Names {
		if id < 0 {
			return nil, fmt.Errorf("class config %s: negative class id %d", path, id)
		}
	}
	return &cfg, nil
}

// Ordered returns the classes sorted by ascending id. Ids need not be
// contiguous; gaps simply do not appear in the output.
func (c *ClassConfig) Ordered() []Class {
	out := make([]Class, 0, len(c.Names))
	for id, name := range c.Names {
		out = append(out, Class{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Gaps returns the missing ids in [0, max(id)], reported as warnings so a
// renumbering mistake in the YAML is visible.
func (c *ClassConfig) Gaps() []int {
	if len(c.Names) == 0 {
		return nil
	}
	max := 0
	for id := range c.Names {
		if id > max {
			max = id
		}
	}
	var gaps []int
	for id := 0; id <= max; id++ {
		if _, ok := c.Names[id]; !ok {
			gaps = append(gaps, id)
		}
	}
	return gaps
}

// sidecarContent renders the projection: one name per line in ascending-id
// order, trailing newline.
func sidecarContent(classes []Class) string {
	var sb strings.Builder
	for _, cl := range classes {
		sb.WriteString(cl.Name)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// TargetStatus is the per-sidecar verification result.
type TargetStatus struct {
	Path   string `json:"path"`
	InSync bool   `json:"in_sync"`
	Error  string `json:"error,omitempty"`
}

// Report is the outcome of one sync run.
type Report struct {
	Classes []Class        `json:"classes"`
	Gaps    []int          `json:"gaps,omitempty"`
	Targets []TargetStatus `json:"targets"`
}

// AllInSync reports whether every target verified clean.
func (r *Report) AllInSync() bool {
	for _, t := range r.Targets {
		if !t.InSync {
			return false
		}
	}
	return true
}

// Sync projects configPath onto every target sidecar and verifies each
// one afterwards. Targets are written in two phases (all temp files
// first, then all renames) so a failure in phase one leaves every
// sidecar untouched.
func Sync(configPath string, targets []string, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}

	classes := cfg.Ordered()
	content := sidecarContent(classes)
	rep := &Report{Classes: classes, Gaps: cfg.Gaps()}

	if len(rep.Gaps) > 0 {
		logger.Warn("class id gaps in config", "config", configPath, "missing_ids", rep.Gaps)
	}
	if cfg.NC != 0 && cfg.NC != len(classes) {
		logger.Warn("nc does not match names count", "nc", cfg.NC, "names", len(classes))
	}

	// Phase one: stage every target next to its destination.
	type staged struct {
		tmp, dst string
	}
	var stage []staged
	cleanup := func() {
		for _, s := range stage {
			os.Remove(s.tmp)
		}
	}
	for _, dst := range targets {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			cleanup()
			return nil, fmt.Errorf("create dir for %s: %w", dst, err)
		}
		tmp, err := os.CreateTemp(filepath.Dir(dst), ".classes-*")
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("stage %s: %w", dst, err)
		}
		if _, err := tmp.WriteString(content); err != nil {
			tmp.Close()
			cleanup()
			return nil, fmt.Errorf("stage %s: %w", dst, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return nil, fmt.Errorf("stage %s: %w", dst, err)
		}
		stage = append(stage, staged{tmp: tmp.Name(), dst: dst})
	}

	// Phase two: rename into place.
	for _, s := range stage {
		if err := os.Rename(s.tmp, s.dst); err != nil {
			cleanup()
			return nil, fmt.Errorf("install %s: %w", s.dst, err)
		}
		logger.Info("sidecar updated", "path", s.dst, "classes", len(classes))
	}

	rep.Targets = Verify(targets, classes)
	return rep, nil
}

// Verify re-reads each target and compares it line-for-line against the
// expected projection.
func Verify(targets []string, classes []Class) []TargetStatus {
	want := sidecarContent(classes)
	out := make([]TargetStatus, 0, len(targets))
	for _, dst := range targets {
		data, err := os.ReadFile(dst)
		if err != nil {
			out = append(out, TargetStatus{Path: dst, Error: err.Error()})
			continue
		}
		out = append(out, TargetStatus{Path: dst, InSync: string(data) == want})
	}
	return out
}

// DefaultTargets are the sidecar locations the annotation tool and the
// training pipeline read, relative to the model directory.
func DefaultTargets(baseDir string) []string {
	return []string{
		filepath.Join(baseDir, "classes.txt"),
		filepath.Join(baseDir, "dataset", "classes.txt"),
	}
}
