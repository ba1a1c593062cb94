package main

import (
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/fornellas/slogxt/log"
	"github.com/spf13/cobra"

	"github.com/fornellas/robowriter/ik"
	"github.com/fornellas/robowriter/motor"
	"github.com/fornellas/robowriter/toolpath"
)

var recordPath string
var defaultRecordPath = ""

var stride int
var defaultStride = motor.DefaultStreamerOptions.Stride

var period time.Duration
var defaultPeriod = motor.DefaultStreamerOptions.Period

var readback bool
var defaultReadback = motor.DefaultStreamerOptions.Readback

var anglesInput bool
var defaultAnglesInput = false

func writeRecord(path string, recorded []ik.Point) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(0644))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	return toolpath.WritePoints(f, recorded)
}

var DrawCmd = &cobra.Command{
	Use:   "draw [path]",
	Short: "Solve a Cartesian toolpath and move the arm along it.",
	Long:  "The whole path is solved and converted to motor positions before the motors are touched: a single unreachable point aborts without moving. With --angles, path is an angular toolpath as written by convert and is checked against the joint limits instead of solved. Torque is disabled when drawing ends, including on errors and interrupts.",
	Args:  cobra.ExactArgs(1),
	Run: GetRunFn(func(cmd *cobra.Command, args []string) (err error) {
		path := args[0]

		ctx, logger := log.MustWithAttrs(
			cmd.Context(),
			"path", path,
			"port-name", portName,
			"address", address,
			"record", recordPath,
			"angles", anglesInput,
		)
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		cmd.SetContext(ctx)

		c, err := LoadConfig(ctx)
		if err != nil {
			return err
		}
		options := c.Stream
		if cmd.Flags().Changed("stride") {
			options.Stride = stride
		}
		if cmd.Flags().Changed("period") {
			options.Period = period
		}
		if cmd.Flags().Changed("readback") {
			options.Readback = readback
		}
		if recordPath != "" {
			options.Readback = true
		}

		var solutions []ik.Solution
		if anglesInput {
			solutions, err = readAnglesFile(c, path)
		} else {
			_, solutions, err = solvePointsFile(ctx, c, path)
		}
		if err != nil {
			return err
		}

		openPortFn, err := GetOpenPortFn()
		if err != nil {
			return err
		}
		controller := motor.NewController(openPortFn, c.Motors.IDs, &c.Motors.Controller)
		streamer := motor.NewStreamer(controller, c.Geometry, c.Motors.Transform, &options)

		// Fail before opening the port.
		if _, err := streamer.Commands(solutions); err != nil {
			return err
		}

		if err := controller.Connect(ctx); err != nil {
			return err
		}
		defer func() { err = errors.Join(err, controller.Disconnect(ctx)) }()

		for _, id := range c.Motors.IDs {
			if err := controller.Ping(ctx, id); err != nil {
				return err
			}
		}

		recorded, err := streamer.Run(ctx, solutions)
		if recordPath != "" && len(recorded) > 0 {
			logger.Info("Recording measured toolpath", "points", len(recorded))
			err = errors.Join(err, writeRecord(recordPath, recorded))
		}
		return err
	}),
}

func init() {
	AddPortFlags(DrawCmd)

	DrawCmd.Flags().StringVar(&recordPath, "record", defaultRecordPath, "Write the measured pen tip toolpath to this path (implies --readback)")
	DrawCmd.Flags().IntVar(&stride, "stride", defaultStride, "Send every n-th point only; overrides stream.stride")
	DrawCmd.Flags().DurationVar(&period, "period", defaultPeriod, "Wait between commands; overrides stream.period")
	DrawCmd.Flags().BoolVar(&anglesInput, "angles", defaultAnglesInput, "Read path as θ1 θ2 θ3 θ4 lines, eg: the output of convert")
	DrawCmd.Flags().BoolVar(&readback, "readback", defaultReadback, "Read present positions after each command; overrides stream.readback")

	RootCmd.AddCommand(DrawCmd)

	resetFlagsFns = append(resetFlagsFns, func() {
		recordPath = defaultRecordPath
		stride = defaultStride
		period = defaultPeriod
		readback = defaultReadback
		anglesInput = defaultAnglesInput
	})
}
