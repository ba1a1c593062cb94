package ik

import (
	"context"
	"runtime"

	"github.com/fornellas/slogxt/log"
	"golang.org/x/sync/errgroup"
)

// Convert solves every point of path. The result has the same length and order as path, element
// i being Solve(path[i]).
//
// It is all or nothing: if any point fails, no solutions are returned and the error is a
// *PointError for the lowest failing index, so a path is never partially commanded. Points are
// solved concurrently.
func Convert(ctx context.Context, path []Point, geometry Geometry, opts ...Option) ([]Solution, error) {
	ctx, logger := log.MustWithGroupAttrs(ctx, "Convert", "points", len(path))

	if err := geometry.Validate(); err != nil {
		return nil, err
	}

	solutions := make([]Solution, len(path))
	errs := make([]error, len(path))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, point := range path {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			solutions[i], errs[i] = Solve(point, geometry, opts...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var clamped int
	for i, err := range errs {
		if err != nil {
			logger.Debug("Unreachable", "index", i, "point", path[i], "err", err)
			return nil, &PointError{Index: i, Err: err}
		}
		if solutions[i].Clamped() {
			clamped++
			logger.Debug("Clamped", "index", i, "point", path[i], "clamps", solutions[i].Clamps)
		}
	}
	if clamped > 0 {
		logger.Warn("Joint limits clamped, some points will not be reached exactly", "clamped", clamped)
	}

	return solutions, nil
}
