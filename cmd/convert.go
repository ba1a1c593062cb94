package main

import (
	"errors"

	"github.com/fornellas/slogxt/log"
	"github.com/spf13/cobra"

	"github.com/fornellas/robowriter/ik"
	"github.com/fornellas/robowriter/toolpath"
)

var ConvertCmd = &cobra.Command{
	Use:   "convert [path]",
	Short: "Read a Cartesian toolpath from path and write its angular toolpath.",
	Long:  "Each output line holds θ1 θ2 θ3 θ4 in degrees for the point at the same position of the input. Any unreachable point fails the whole conversion.",
	Args:  cobra.ExactArgs(1),
	Run: GetRunFn(func(cmd *cobra.Command, args []string) (err error) {
		path := args[0]

		ctx, logger := log.MustWithAttrs(
			cmd.Context(),
			"path", path,
			"output", outputValue,
		)
		cmd.SetContext(ctx)
		logger.Info("Running")

		c, err := LoadConfig(ctx)
		if err != nil {
			return err
		}

		_, solutions, err := solvePointsFile(ctx, c, path)
		if err != nil {
			return err
		}

		w, err := outputValue.WriterCloser(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, w.Close()) }()

		return toolpath.WriteAngles(w, ik.Angles(solutions))
	}),
}

func init() {
	AddOutputFlags(ConvertCmd)
	RootCmd.AddCommand(ConvertCmd)
}
