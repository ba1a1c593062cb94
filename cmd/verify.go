package main

import (
	"fmt"

	"github.com/fornellas/slogxt/log"
	"github.com/spf13/cobra"

	"github.com/fornellas/robowriter/ik"
	fmtMod "github.com/fornellas/robowriter/internal/fmt"
	"github.com/fornellas/robowriter/preview"
	"github.com/fornellas/robowriter/toolpath"
)

var tolerance float64
var defaultTolerance = 1e-3

var VerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Solve a Cartesian toolpath and check the solved angles reproduce it.",
	Long:  "Runs forward kinematics over every solved point and reports how far the pen tip lands from the target. Fails when the maximum deviation exceeds --tolerance, which happens when joints are clamped.",
	Args:  cobra.ExactArgs(1),
	Run: GetRunFn(func(cmd *cobra.Command, args []string) error {
		path := args[0]

		ctx, logger := log.MustWithAttrs(
			cmd.Context(),
			"path", path,
			"tolerance", tolerance,
		)
		cmd.SetContext(ctx)
		logger.Info("Running")

		c, err := LoadConfig(ctx)
		if err != nil {
			return err
		}

		points, solutions, err := solvePointsFile(ctx, c, path)
		if err != nil {
			return err
		}
		rows, err := preview.Rows(points, solutions, c.Geometry)
		if err != nil {
			return err
		}
		summary := preview.Summarize(rows)

		var mean float64
		worst := -1
		for i, row := range rows {
			mean += row.Deviation
			if row.Deviation > tolerance && (worst < 0 || row.Deviation > rows[worst].Deviation) {
				worst = i
			}
		}
		if len(rows) > 0 {
			mean /= float64(len(rows))
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"points %d\nclamped %d\nmax deviation %s mm\nmean deviation %s mm\n",
			summary.Points,
			summary.Clamped,
			fmtMod.SprintFloat(summary.MaxDeviation, toolpath.Decimals),
			fmtMod.SprintFloat(mean, toolpath.Decimals),
		); err != nil {
			return err
		}

		if worst >= 0 {
			row := rows[worst]
			return &ik.PointError{
				Index: row.Index,
				Err: fmt.Errorf(
					"deviation %s mm above tolerance %s mm: %s",
					fmtMod.SprintFloat(row.Deviation, toolpath.Decimals),
					fmtMod.SprintFloat(tolerance, toolpath.Decimals),
					row.Target,
				),
			}
		}
		return nil
	}),
}

func init() {
	VerifyCmd.Flags().Float64Var(&tolerance, "tolerance", defaultTolerance, "Maximum accepted deviation in mm")
	RootCmd.AddCommand(VerifyCmd)

	resetFlagsFns = append(resetFlagsFns, func() {
		tolerance = defaultTolerance
	})
}
