package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fornellas/slogxt/log"
	"github.com/spf13/cobra"

	"github.com/fornellas/robowriter/ik"
	"github.com/fornellas/robowriter/toolpath"
)

// PointsValue is a repeatable X,Y,Z flag.
type PointsValue struct {
	points []ik.Point
}

func (p *PointsValue) String() string {
	strs := make([]string, len(p.points))
	for i, point := range p.points {
		strs[i] = point.String()
	}
	return strings.Join(strs, " ")
}

func (p *PointsValue) Set(value string) error {
	fields := strings.Split(value, ",")
	if len(fields) != 3 {
		return fmt.Errorf("expected X,Y,Z: %q", value)
	}
	var coordinates [3]float64
	for i, field := range fields {
		var err error
		coordinates[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return fmt.Errorf("invalid coordinate: %q: %w", field, err)
		}
	}
	p.points = append(p.points, ik.Point{X: coordinates[0], Y: coordinates[1], Z: coordinates[2]})
	return nil
}

func (p *PointsValue) Reset() {
	p.points = nil
}

func (p *PointsValue) Type() string {
	return "X,Y,Z"
}

var linePoints = &PointsValue{}

var lineSteps int
var defaultLineSteps = 40

func writePoints(cmd *cobra.Command, points []ik.Point) (err error) {
	w, err := outputValue.WriterCloser(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, w.Close()) }()
	return toolpath.WritePoints(w, points)
}

var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate Cartesian toolpaths.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cmd.Help(); err != nil {
			logger := log.MustLogger(cmd.Context())
			logger.Error("Failed to display help", "err", err)
		}
		Exit(1)
	},
}

var GenerateLineCmd = &cobra.Command{
	Use:   "line",
	Short: "Generate straight segments through each --point.",
	Long:  "Each pair of consecutive --point values becomes a segment of --steps evenly spaced points, both ends included; segments are concatenated in order.",
	Args:  cobra.NoArgs,
	Run: GetRunFn(func(cmd *cobra.Command, args []string) error {
		ctx, logger := log.MustWithAttrs(
			cmd.Context(),
			"point", linePoints,
			"steps", lineSteps,
			"output", outputValue,
		)
		cmd.SetContext(ctx)
		logger.Info("Running")

		if len(linePoints.points) < 2 {
			return fmt.Errorf("at least 2 --point values are required, got %d", len(linePoints.points))
		}
		segments := make([][]ik.Point, 0, len(linePoints.points)-1)
		for i := 1; i < len(linePoints.points); i++ {
			segment, err := toolpath.Line(linePoints.points[i-1], linePoints.points[i], lineSteps)
			if err != nil {
				return err
			}
			segments = append(segments, segment)
		}

		return writePoints(cmd, toolpath.Join(segments...))
	}),
}

var GenerateScriptCmd = &cobra.Command{
	Use:   "script [path]",
	Short: "Generate a toolpath by running a Go script.",
	Long:  "The script is interpreted, has the standard library available and must be:\n\n\tpackage script\n\n\tfunc Points() [][]float64 {\n\t\treturn [][]float64{{100, 0, 0}, {100, 200, 0}}\n\t}",
	Args:  cobra.ExactArgs(1),
	Run: GetRunFn(func(cmd *cobra.Command, args []string) error {
		path := args[0]

		ctx, logger := log.MustWithAttrs(
			cmd.Context(),
			"path", path,
			"output", outputValue,
		)
		cmd.SetContext(ctx)
		logger.Info("Running")

		points, err := toolpath.Script(ctx, path)
		if err != nil {
			return err
		}
		return writePoints(cmd, points)
	}),
}

func init() {
	AddOutputFlags(GenerateCmd)

	GenerateLineCmd.Flags().Var(linePoints, "point", "Segment end point, repeat for a polyline")
	GenerateLineCmd.Flags().IntVar(&lineSteps, "steps", defaultLineSteps, "Points per segment, both ends included")
	GenerateCmd.AddCommand(GenerateLineCmd)

	GenerateCmd.AddCommand(GenerateScriptCmd)

	RootCmd.AddCommand(GenerateCmd)

	resetFlagsFns = append(resetFlagsFns, func() {
		linePoints.Reset()
		lineSteps = defaultLineSteps
	})
}
