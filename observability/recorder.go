// CLAUDE:SUMMARY Recorder writes run-history rows; failures are logged, never propagated.
// Package observability records planforge run history (conversion batches,
// class syncs, upload analyses) in SQLite. Recording is strictly
// best-effort: a failing history store must never break the pipeline, so
// every write logs its error via slog instead of returning it.
package observability

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/electrovision/planforge/idgen"
)

// ConversionRun summarizes one batch conversion for the history store.
type ConversionRun struct {
	StartedAt  time.Time
	FinishedAt time.Time
	SourceDir  string
	OutputDir  string
	PDFFound   int
	DWGFound   int
	DXFFound   int
	ImgFound   int
	Converted  int
	Failed     int
	ImagesOut  int
	Warnings   []string
}

// SyncRun summarizes one class-sync run.
type SyncRun struct {
	ConfigPath    string
	ClassCount    int
	TargetsTotal  int
	TargetsInSync int
	GapCount      int
}

// UploadAnalysis summarizes one HTTP-triggered analysis.
type UploadAnalysis struct {
	OriginalName string
	StoredName   string
	Kind         string
	SizeBytes    int64
	Duration     time.Duration
	Status       string // "ok" or "error"
	ErrorCode    string
}

// Recorder writes run history rows.
type Recorder struct {
	db    *sql.DB
	newID idgen.Generator
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithIDGenerator sets a custom ID generator for row IDs.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(r *Recorder) { r.newID = gen }
}

// NewRecorder creates a Recorder backed by the given history database.
func NewRecorder(db *sql.DB, opts ...Option) *Recorder {
	r := &Recorder{
		db:    db,
		newID: idgen.Prefixed("run_", idgen.Default),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RecordConversion stores a batch conversion summary.
func (r *Recorder) RecordConversion(ctx context.Context, run ConversionRun) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversion_runs (
			run_id, started_at, finished_at, source_dir, output_dir,
			pdf_found, dwg_found, dxf_found, img_found,
			converted, failed, images_out, warnings
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.newID(), run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.SourceDir, run.OutputDir,
		run.PDFFound, run.DWGFound, run.DXFFound, run.ImgFound,
		run.Converted, run.Failed, run.ImagesOut,
		strings.Join(run.Warnings, "\n"))
	if err != nil {
		slog.Error("record conversion run failed", "error", err)
	}
}

// RecordSync stores a class-sync summary.
func (r *Recorder) RecordSync(ctx context.Context, run SyncRun) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs (
			run_id, config_path, class_count, targets_total, targets_in_sync, gap_count
		) VALUES (?,?,?,?,?,?)`,
		r.newID(), run.ConfigPath, run.ClassCount,
		run.TargetsTotal, run.TargetsInSync, run.GapCount)
	if err != nil {
		slog.Error("record sync run failed", "error", err)
	}
}

// RecordAnalysis stores one upload analysis outcome.
func (r *Recorder) RecordAnalysis(ctx context.Context, a UploadAnalysis) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO upload_analyses (
			analysis_id, original_name, stored_name, kind,
			size_bytes, duration_ms, status, error_code
		) VALUES (?,?,?,?,?,?,?,?)`,
		r.newID(), a.OriginalName, a.StoredName, a.Kind,
		a.SizeBytes, a.Duration.Milliseconds(), a.Status, a.ErrorCode)
	if err != nil {
		slog.Error("record upload analysis failed", "error", err)
	}
}
