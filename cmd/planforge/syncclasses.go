// CLAUDE:SUMMARY sync-classes subcommand: propagate YAML class names to the sidecar files, record the run.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/electrovision/planforge/classsync"
	"github.com/electrovision/planforge/dbopen"
	"github.com/electrovision/planforge/observability"
)

func syncClassesCmd() *cobra.Command {
	var (
		config  string
		baseDir string
		dbPath  string
		verify  bool
	)

	cmd := &cobra.Command{
		Use:   "sync-classes [targets...]",
		Short: "Sync class names from the YAML config to the sidecar files",
		Long: "Reads nc/names from the training YAML and rewrites every sidecar\n" +
			"class file with one name per line in ascending id order. Without\n" +
			"explicit targets, classes.txt and dataset/classes.txt under the base\n" +
			"directory are synced. With --verify, nothing is written; drift is\n" +
			"reported instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := args
			if len(targets) == 0 {
				targets = classsync.DefaultTargets(baseDir)
			}

			if verify {
				cfg, err := classsync.Load(config)
				if err != nil {
					return err
				}
				statuses := classsync.Verify(targets, cfg.Ordered())
				b, _ := json.MarshalIndent(statuses, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				for _, st := range statuses {
					if !st.InSync {
						return fmt.Errorf("sidecars out of sync with %s", config)
					}
				}
				return nil
			}

			rep, err := classsync.Sync(config, targets, slog.Default())
			if err != nil {
				return err
			}

			recordSync(cmd, dbPath, config, rep)

			b, _ := json.MarshalIndent(rep, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}

	cmd.Flags().StringVarP(&config, "config", "c", "config.yaml", "training YAML with nc and names")
	cmd.Flags().StringVar(&baseDir, "base", ".", "base directory for the default sidecar targets")
	cmd.Flags().StringVar(&dbPath, "db", env("PLANFORGE_DB", ""), "run-history SQLite database (empty disables recording)")
	cmd.Flags().BoolVar(&verify, "verify", false, "report drift without writing")
	return cmd
}

// recordSync stores the sync report when a history database is configured.
// Best-effort only.
func recordSync(cmd *cobra.Command, dbPath, configPath string, rep *classsync.Report) {
	if dbPath == "" {
		return
	}
	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll(), dbopen.WithSchema(observability.Schema))
	if err != nil {
		slog.Warn("run history unavailable", "db", dbPath, "error", err)
		return
	}
	defer db.Close()

	inSync := 0
	for _, t := range rep.Targets {
		if t.InSync {
			inSync++
		}
	}
	observability.NewRecorder(db).RecordSync(cmd.Context(), observability.SyncRun{
		ConfigPath:    configPath,
		ClassCount:    len(rep.Classes),
		TargetsTotal:  len(rep.Targets),
		TargetsInSync: inSync,
		GapCount:      len(rep.Gaps),
	})
}
