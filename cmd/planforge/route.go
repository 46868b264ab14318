// CLAUDE:SUMMARY route subcommand: copy loose plan files into the per-kind source tree.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/electrovision/planforge/router"
)

func routeCmd() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "route <files...>",
		Short: "Copy plan files into the per-kind source tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := router.New(router.Config{BaseDir: dest})

			var placements []*router.Placement
			var failed int
			for _, path := range args {
				p, err := rt.Place(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", path, err)
					failed++
					continue
				}
				placements = append(placements, p)
			}

			b, _ := json.MarshalIndent(placements, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			if failed > 0 {
				return fmt.Errorf("%d file(s) not routed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "source_files", "source tree root")
	return cmd
}
