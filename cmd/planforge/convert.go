// CLAUDE:SUMMARY convert subcommand: batch-convert a source tree, optionally split into train/val, record the run.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/electrovision/planforge/convert"
	"github.com/electrovision/planforge/dataset"
	"github.com/electrovision/planforge/dbopen"
	"github.com/electrovision/planforge/observability"
)

func convertCmd() *cobra.Command {
	var (
		source  string
		output  string
		split   float64
		noSplit bool
		dpi     int
		dbPath  string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert every source plan to JPEG and build the train/val split",
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()

			conv := convert.New(convert.Config{OutputDir: output, DPI: dpi})
			summary, err := conv.Batch(cmd.Context(), source)
			if err != nil {
				return err
			}

			out := map[string]any{"conversion": summary}
			if !noSplit {
				images, err := dataset.CollectImages(output)
				if err != nil {
					return err
				}
				res, err := dataset.Organize(images, dataset.Config{SplitRatio: split})
				if err != nil {
					return err
				}
				out["split"] = res
			}

			recordConversion(cmd, dbPath, started, source, output, summary)

			// Per-file failures are already reported in the summary; the
			// batch itself succeeded.
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "source_files", "source tree with pdf/, dwg/, dxf/, images/ subdirectories")
	cmd.Flags().StringVarP(&output, "output", "o", "extracted_images", "directory for converted JPEGs")
	cmd.Flags().Float64Var(&split, "split", 0.8, "training fraction of the train/val split")
	cmd.Flags().BoolVar(&noSplit, "no-split", false, "skip the dataset split after conversion")
	cmd.Flags().IntVar(&dpi, "dpi", 300, "rasterization DPI for PDF pages")
	cmd.Flags().StringVar(&dbPath, "db", env("PLANFORGE_DB", ""), "run-history SQLite database (empty disables recording)")
	return cmd
}

// recordConversion stores the run summary when a history database is
// configured. Best-effort only.
func recordConversion(cmd *cobra.Command, dbPath string, started time.Time, source, output string, s *convert.Summary) {
	if dbPath == "" {
		return
	}
	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll(), dbopen.WithSchema(observability.Schema))
	if err != nil {
		slog.Warn("run history unavailable", "db", dbPath, "error", err)
		return
	}
	defer db.Close()

	observability.NewRecorder(db).RecordConversion(cmd.Context(), observability.ConversionRun{
		StartedAt:  started,
		FinishedAt: time.Now(),
		SourceDir:  source,
		OutputDir:  output,
		PDFFound:   s.Found["pdf"],
		DWGFound:   s.Found["dwg"],
		DXFFound:   s.Found["dxf"],
		ImgFound:   s.Found["image"],
		Converted:  s.Converted,
		Failed:     s.Failed,
		ImagesOut:  len(s.Images),
		Warnings:   s.Warnings,
	})
}
