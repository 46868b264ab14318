// CLAUDE:SUMMARY DDL for the planforge run-history tables (conversion runs, sync runs, upload analyses).
package observability

import "database/sql"

// Schema contains the complete DDL for the run-history tables.
// Call Init(db) to apply it, or pass it to dbopen.WithSchema.
const Schema = `
-- Batch conversion runs
CREATE TABLE IF NOT EXISTS conversion_runs (
    run_id TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    source_dir TEXT NOT NULL,
    output_dir TEXT NOT NULL,
    pdf_found INTEGER NOT NULL DEFAULT 0,
    dwg_found INTEGER NOT NULL DEFAULT 0,
    dxf_found INTEGER NOT NULL DEFAULT 0,
    img_found INTEGER NOT NULL DEFAULT 0,
    converted INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    images_out INTEGER NOT NULL DEFAULT 0,
    warnings TEXT,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_conversion_runs_time ON conversion_runs(started_at DESC);

-- Class sync runs
CREATE TABLE IF NOT EXISTS sync_runs (
    run_id TEXT PRIMARY KEY,
    config_path TEXT NOT NULL,
    class_count INTEGER NOT NULL,
    targets_total INTEGER NOT NULL,
    targets_in_sync INTEGER NOT NULL,
    gap_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_time ON sync_runs(created_at DESC);

-- Upload analyses served over HTTP
CREATE TABLE IF NOT EXISTS upload_analyses (
    analysis_id TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    stored_name TEXT NOT NULL,
    kind TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    duration_ms INTEGER,
    status TEXT NOT NULL,
    error_code TEXT,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_upload_analyses_time ON upload_analyses(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_upload_analyses_status ON upload_analyses(status);
`

// Init applies the run-history schema to the given database.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
