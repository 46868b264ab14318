// CLAUDE:SUMMARY organize subcommand: shuffle converted images into the dataset/images/{train,val} tree.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/electrovision/planforge/dataset"
)

func organizeCmd() *cobra.Command {
	var (
		images     string
		datasetDir string
		split      float64
	)

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Split converted images into train/val sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := dataset.CollectImages(images)
			if err != nil {
				return err
			}
			res, err := dataset.Organize(paths, dataset.Config{
				DatasetDir: datasetDir,
				SplitRatio: split,
			})
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(res, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}

	cmd.Flags().StringVar(&images, "images", "extracted_images", "directory of converted JPEGs")
	cmd.Flags().StringVar(&datasetDir, "dataset", "dataset", "dataset root directory")
	cmd.Flags().Float64Var(&split, "split", 0.8, "training fraction")
	return cmd
}
