package toolpath

import (
	"context"
	"fmt"
	"reflect"

	"github.com/fornellas/slogxt/log"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/fornellas/robowriter/ik"
)

// Line returns steps evenly spaced points from "from" to "to", both included.
func Line(from, to ik.Point, steps int) ([]ik.Point, error) {
	if steps < 2 {
		return nil, fmt.Errorf("line needs at least 2 steps, got %d", steps)
	}
	points := make([]ik.Point, steps)
	last := float64(steps - 1)
	for i := range steps {
		f := float64(i) / last
		points[i] = ik.Point{
			X: from.X + (to.X-from.X)*f,
			Y: from.Y + (to.Y-from.Y)*f,
			Z: from.Z + (to.Z-from.Z)*f,
		}
	}
	// Avoid rounding drift on the final point.
	points[steps-1] = to
	return points, nil
}

// Join concatenates segments in order.
func Join(segments ...[]ik.Point) []ik.Point {
	points := []ik.Point{}
	for _, segment := range segments {
		points = append(points, segment...)
	}
	return points
}

// ScriptSymbol is the function a toolpath script must define.
const ScriptSymbol = "script.Points"

// Script evaluates the Go source at path and returns the points built by its Points function:
//
//	package script
//
//	func Points() [][]float64 {
//		return [][]float64{{100, 0, 0}, {100, 200, 0}}
//	}
//
// The standard library is available to scripts.
func Script(ctx context.Context, path string) ([]ik.Point, error) {
	ctx, logger := log.MustWithGroupAttrs(ctx, "Script", "path", path)

	interpreter := interp.New(interp.Options{})
	if err := interpreter.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}

	logger.Debug("Evaluating")
	if _, err := interpreter.EvalPathWithContext(ctx, path); err != nil {
		return nil, fmt.Errorf("script: %s: %w", path, err)
	}

	value, err := interpreter.EvalWithContext(ctx, ScriptSymbol)
	if err != nil {
		return nil, fmt.Errorf("script: %s: %s not defined: %w", path, ScriptSymbol, err)
	}
	if value.Kind() != reflect.Func {
		return nil, fmt.Errorf("script: %s: %s is not a function", path, ScriptSymbol)
	}
	pointsFn, ok := value.Interface().(func() [][]float64)
	if !ok {
		return nil, fmt.Errorf("script: %s: %s must be func() [][]float64, got %s", path, ScriptSymbol, value.Type())
	}

	rows := pointsFn()
	points := make([]ik.Point, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("script: %s: point %d: expected 3 values, got %d", path, i, len(row))
		}
		points[i] = ik.Point{X: row[0], Y: row[1], Z: row[2]}
	}
	logger.Debug("Generated", "points", len(points))
	return points, nil
}
