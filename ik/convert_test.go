package ik

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"testing"

	"github.com/fornellas/slogxt/log"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	return log.WithLogger(t.Context(), slog.New(slog.DiscardHandler))
}

func linePath(n int) []Point {
	path := make([]Point, n)
	for i := range n {
		path[i] = Point{X: 100, Y: 200 * float64(i) / float64(n-1), Z: 0}
	}
	return path
}

func TestConvertPreservesOrder(t *testing.T) {
	path := append(linePath(40), Point{X: -100, Y: 50, Z: 0})
	solutions, err := Convert(testContext(t), path, DefaultGeometry)
	require.NoError(t, err)
	require.Len(t, solutions, len(path))
	for i, point := range path {
		expected, err := Solve(point, DefaultGeometry)
		require.NoError(t, err)
		require.Equalf(t, expected, solutions[i], "index %d", i)
	}
	require.Equal(t, solutions[len(path)-1].Angles, Angles(solutions)[len(path)-1])
}

func TestConvertEmpty(t *testing.T) {
	solutions, err := Convert(testContext(t), nil, DefaultGeometry)
	require.NoError(t, err)
	require.NotNil(t, solutions)
	require.Empty(t, solutions)
}

func TestConvertFailsWholeBatch(t *testing.T) {
	unreachable := Point{X: 400, Y: 0, Z: 0}
	for _, index := range []int{0, 17, 39} {
		t.Run(fmt.Sprintf("index %d", index), func(t *testing.T) {
			path := linePath(40)
			path[index] = unreachable

			solutions, err := Convert(testContext(t), path, DefaultGeometry)
			require.Nil(t, solutions)
			require.ErrorIs(t, err, ErrUnreachableTarget)
			var pointErr *PointError
			require.ErrorAs(t, err, &pointErr)
			require.Equal(t, index, pointErr.Index)
		})
	}
}

func TestConvertReportsLowestIndex(t *testing.T) {
	path := linePath(100)
	path[80] = Point{X: 400, Y: 0, Z: 0}
	path[20] = Point{X: 0, Y: 400, Z: 0}

	_, err := Convert(testContext(t), path, DefaultGeometry)
	var pointErr *PointError
	require.ErrorAs(t, err, &pointErr)
	require.Equal(t, 20, pointErr.Index)
}

func TestConvertAzimuthPolicy(t *testing.T) {
	path := append(linePath(10), Point{X: -100, Y: 50, Z: 0})
	_, err := Convert(testContext(t), path, DefaultGeometry, WithAzimuthPolicy(AzimuthReject))
	var unreachableErr *UnreachableTargetError
	require.ErrorAs(t, err, &unreachableErr)
	require.Equal(t, ReasonAzimuth, unreachableErr.Reason)
}

func TestConvertInvalidGeometry(t *testing.T) {
	geometry := DefaultGeometry
	geometry.Limits[1] = Limit{Min: 10, Max: -10}
	_, err := Convert(testContext(t), linePath(3), geometry)
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestConvertCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()
	solutions, err := Convert(ctx, linePath(10), DefaultGeometry)
	require.Nil(t, solutions)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFromAngles(t *testing.T) {
	angles := []JointAngles{{0, 7.0912, 132.8766, 40.0321}, {90, -45, 0, 135}}
	solutions, err := FromAngles(angles, DefaultGeometry)
	require.NoError(t, err)
	require.Equal(t, angles, Angles(solutions))
	for _, solution := range solutions {
		require.False(t, solution.Clamped())
	}

	t.Run("outside limit", func(t *testing.T) {
		_, err := FromAngles(append(angles, JointAngles{0, 0, 170, 0}), DefaultGeometry)
		require.ErrorIs(t, err, ErrJointLimit)
		var pointErr *PointError
		require.ErrorAs(t, err, &pointErr)
		require.Equal(t, 2, pointErr.Index)
		require.ErrorContains(t, err, "θ3")
	})

	t.Run("not finite", func(t *testing.T) {
		_, err := FromAngles([]JointAngles{{math.NaN(), 0, 0, 0}}, DefaultGeometry)
		require.ErrorIs(t, err, ErrJointLimit)
	})
}
