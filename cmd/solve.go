package main

import (
	"fmt"
	"strconv"

	"github.com/fornellas/slogxt/log"
	"github.com/spf13/cobra"

	"github.com/fornellas/robowriter/ik"
	fmtMod "github.com/fornellas/robowriter/internal/fmt"
	"github.com/fornellas/robowriter/toolpath"
)

var SolveCmd = &cobra.Command{
	Use:   "solve X Y Z",
	Short: "Solve the joint angles for a single pen tip point.",
	Long:  "Prints θ1 θ2 θ3 θ4 in degrees, followed by any joint clamped into its limits. Negative coordinates need a preceding \"--\", eg: robowriter solve -- -100 50 0",
	Args:  cobra.ExactArgs(3),
	Run: GetRunFn(func(cmd *cobra.Command, args []string) error {
		var coordinates [3]float64
		for i, arg := range args {
			var err error
			coordinates[i], err = strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("invalid coordinate: %q: %w", arg, err)
			}
		}
		point := ik.Point{X: coordinates[0], Y: coordinates[1], Z: coordinates[2]}

		ctx, logger := log.MustWithAttrs(cmd.Context(), "point", point)
		cmd.SetContext(ctx)

		c, err := LoadConfig(ctx)
		if err != nil {
			return err
		}

		solution, err := ik.Solve(point, c.Geometry, c.SolverOptions()...)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if _, err := fmt.Fprintln(w, fmtMod.SprintFloats(solution.Angles[:], toolpath.Decimals, " ")); err != nil {
			return err
		}
		for _, clamp := range solution.Clamps {
			logger.Warn("Joint clamped", "clamp", clamp)
			if _, err := fmt.Fprintf(w, "clamped %s\n", clamp); err != nil {
				return err
			}
		}
		if solution.Clamped() {
			deviation := ik.Deviation(point, solution.Angles, c.Geometry)
			if _, err := fmt.Fprintf(w, "deviation %s mm\n", fmtMod.SprintFloat(deviation, toolpath.Decimals)); err != nil {
				return err
			}
		}
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(SolveCmd)
}
