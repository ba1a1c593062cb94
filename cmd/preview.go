package main

import (
	"github.com/fornellas/slogxt/log"
	"github.com/spf13/cobra"

	previewMod "github.com/fornellas/robowriter/preview"
)

var PreviewCmd = &cobra.Command{
	Use:   "preview [path]",
	Short: "Solve a Cartesian toolpath and browse the joint angles in a terminal table.",
	Args:  cobra.ExactArgs(1),
	Run: GetRunFn(func(cmd *cobra.Command, args []string) error {
		path := args[0]

		ctx, _ := log.MustWithAttrs(cmd.Context(), "path", path)
		cmd.SetContext(ctx)

		c, err := LoadConfig(ctx)
		if err != nil {
			return err
		}

		points, solutions, err := solvePointsFile(ctx, c, path)
		if err != nil {
			return err
		}
		rows, err := previewMod.Rows(points, solutions, c.Geometry)
		if err != nil {
			return err
		}

		preview := previewMod.NewPreview(rows, &previewMod.Options{
			AppLogger: logDebugFileLogger,
		})
		return preview.Run(ctx)
	}),
}

func init() {
	RootCmd.AddCommand(PreviewCmd)
}
