package observability

import (
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/electrovision/planforge/dbopen"
)

func TestRecordConversion(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	rec := NewRecorder(db)

	start := time.Now().Add(-3 * time.Second)
	rec.RecordConversion(context.Background(), ConversionRun{
		StartedAt:  start,
		FinishedAt: time.Now(),
		SourceDir:  "source_files",
		OutputDir:  "extracted_images",
		PDFFound:   2,
		ImgFound:   5,
		Converted:  6,
		Failed:     1,
		ImagesOut:  9,
		Warnings:   []string{"skipping broken.pdf"},
	})

	var converted, failed int
	var warnings string
	err := db.QueryRow(
		`SELECT converted, failed, warnings FROM conversion_runs`,
	).Scan(&converted, &failed, &warnings)
	if err != nil {
		t.Fatal(err)
	}
	if converted != 6 || failed != 1 {
		t.Fatalf("converted=%d failed=%d", converted, failed)
	}
	if warnings != "skipping broken.pdf" {
		t.Fatalf("warnings = %q", warnings)
	}
}

func TestRecordSyncAndAnalysis(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	rec := NewRecorder(db, WithIDGenerator(func() string { return "fixed_id" }))
	ctx := context.Background()

	rec.RecordSync(ctx, SyncRun{
		ConfigPath:    "config.yaml",
		ClassCount:    3,
		TargetsTotal:  2,
		TargetsInSync: 2,
	})
	rec.RecordAnalysis(ctx, UploadAnalysis{
		OriginalName: "plan.pdf",
		StoredName:   "up_0191.pdf",
		Kind:         "pdf",
		SizeBytes:    1024,
		Duration:     250 * time.Millisecond,
		Status:       "ok",
	})

	var id string
	if err := db.QueryRow(`SELECT run_id FROM sync_runs`).Scan(&id); err != nil {
		t.Fatal(err)
	}
	if id != "fixed_id" {
		t.Fatalf("run_id = %q", id)
	}

	var ms int64
	var status string
	if err := db.QueryRow(`SELECT duration_ms, status FROM upload_analyses`).Scan(&ms, &status); err != nil {
		t.Fatal(err)
	}
	if ms != 250 || status != "ok" {
		t.Fatalf("duration_ms=%d status=%q", ms, status)
	}
}

func TestRecorderSwallowsErrors(t *testing.T) {
	// No schema applied: every insert fails, but recording must not panic
	// or propagate anything.
	db := dbopen.OpenMemory(t)
	rec := NewRecorder(db)
	rec.RecordConversion(context.Background(), ConversionRun{})
	rec.RecordSync(context.Background(), SyncRun{})
	rec.RecordAnalysis(context.Background(), UploadAnalysis{})
}
