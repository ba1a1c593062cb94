package motor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fornellas/slogxt/log"

	"github.com/fornellas/robowriter/ik"
)

type StreamerOptions struct {
	// Stride sends every Stride-th command, skipping the ones between.
	Stride int
	// Period is the wait after each command.
	Period time.Duration
	// Readback reads present positions after each command and records where the pen tip is.
	Readback bool
}

var DefaultStreamerOptions = StreamerOptions{
	Stride: 1,
	Period: 100 * time.Millisecond,
}

// Streamer moves the arm along a solved path.
type Streamer struct {
	bus       Bus
	geometry  ik.Geometry
	transform Transform
	options   StreamerOptions
}

func NewStreamer(bus Bus, geometry ik.Geometry, transform Transform, options *StreamerOptions) *Streamer {
	if options == nil {
		options = &DefaultStreamerOptions
	}
	return &Streamer{
		bus:       bus,
		geometry:  geometry,
		transform: transform,
		options:   *options,
	}
}

// Commands converts every solution to goal positions. It fails on the first position the motors
// can't reach, naming its index.
func (s *Streamer) Commands(solutions []ik.Solution) ([][4]uint32, error) {
	if err := s.transform.Validate(); err != nil {
		return nil, err
	}
	commands := make([][4]uint32, len(solutions))
	for i, solution := range solutions {
		var err error
		commands[i], err = s.transform.Ticks(solution.Angles)
		if err != nil {
			return nil, &ik.PointError{Index: i, Err: err}
		}
	}
	return commands, nil
}

func (s *Streamer) wait(ctx context.Context) error {
	if s.options.Period <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("stream: %w", ctx.Err())
	case <-time.After(s.options.Period):
		return nil
	}
}

// Run streams solutions to the motors. Every solution is converted before the bus is touched,
// so a path with any unreachable motor position never starts moving. Torque is enabled before
// the first command and disabled when Run returns. With Readback, it returns the pen tip
// position measured once torque is on, followed by the one measured after each command sent.
//
//gocyclo:ignore
func (s *Streamer) Run(ctx context.Context, solutions []ik.Solution) (recorded []ik.Point, err error) {
	ctx, logger := log.MustWithGroupAttrs(ctx, "Streamer",
		"points", len(solutions),
		"stride", s.options.Stride,
		"period", s.options.Period,
	)

	stride := s.options.Stride
	if stride < 1 {
		return nil, fmt.Errorf("stream: stride must be at least 1, got %d", stride)
	}

	commands, err := s.Commands(solutions)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	logger.Info("Enabling torque")
	if err := s.bus.EnableTorque(ctx); err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	defer func() {
		logger.Info("Disabling torque")
		// Also on a cancelled ctx.
		disableCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if disableErr := s.bus.DisableTorque(disableCtx); disableErr != nil {
			err = errors.Join(err, fmt.Errorf("stream: %w", disableErr))
		}
	}()

	readback := func(i int) error {
		positions, err := s.bus.ReadPositions(ctx)
		if err != nil {
			if i < 0 {
				return fmt.Errorf("stream: start: %w", err)
			}
			return fmt.Errorf("stream: point %d: %w", i, err)
		}
		recorded = append(recorded, ik.Forward(s.transform.Angles(positions), s.geometry))
		return nil
	}
	if s.options.Readback {
		recorded = []ik.Point{}
		if err := readback(-1); err != nil {
			return recorded, err
		}
	}
	logger.Info("Streaming")
	for i, command := range commands {
		if i%stride != 0 {
			continue
		}
		if err := s.bus.WritePositions(ctx, command); err != nil {
			return recorded, fmt.Errorf("stream: point %d: %w", i, err)
		}
		logger.Debug("Sent", "index", i, "angles", solutions[i].Angles, "ticks", command)

		if err := s.wait(ctx); err != nil {
			return recorded, err
		}

		if s.options.Readback {
			if err := readback(i); err != nil {
				return recorded, err
			}
		}
	}
	logger.Info("Stream finished")
	return recorded, nil
}
