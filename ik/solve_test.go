package ik

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolveHomePosition(t *testing.T) {
	solution, err := Solve(Point{X: 115, Y: 0, Z: 54}, DefaultGeometry)
	require.NoError(t, err)

	require.Equal(t, 0.0, solution.Angles[0])
	require.InDelta(t, 7.0912, solution.Angles[1], 1e-3)
	require.InDelta(t, 132.8766, solution.Angles[2], 1e-3)
	require.InDelta(t, 40.0321, solution.Angles[3], 1e-3)
	require.False(t, solution.Clamped())
	for i, angle := range solution.Angles {
		require.Truef(t, DefaultGeometry.Limits[i].Contains(angle), "θ%d=%g outside %s", i+1, angle, DefaultGeometry.Limits[i])
	}
}

func TestSolveReachabilityBoundary(t *testing.T) {
	// With Theta5=0 the wrist point is (x, y, z+L5+L4): z=20 puts it at shoulder height, so the
	// wrist distance is x.
	reach := DefaultGeometry.Reach()

	t.Run("at reach", func(t *testing.T) {
		point := Point{X: reach, Y: 0, Z: 20}
		_, err := Solve(point, DefaultGeometry)
		require.ErrorIs(t, err, ErrUnreachableTarget)
		var unreachableErr *UnreachableTargetError
		require.ErrorAs(t, err, &unreachableErr)
		require.Equal(t, ReasonRadial, unreachableErr.Reason)
		require.Equal(t, point, unreachableErr.Point)
		require.Equal(t, reach, unreachableErr.Reach)
	})

	t.Run("beyond reach", func(t *testing.T) {
		_, err := Solve(Point{X: 400, Y: 300, Z: 0}, DefaultGeometry)
		require.ErrorIs(t, err, ErrUnreachableTarget)
	})

	t.Run("just inside reach", func(t *testing.T) {
		solution, err := Solve(Point{X: reach - 1e-6, Y: 0, Z: 20}, DefaultGeometry)
		require.NoError(t, err)
		for _, angle := range solution.Angles {
			require.False(t, math.IsNaN(angle))
		}
		require.InDelta(t, 0, solution.Angles[2], 0.1)
		require.InDelta(t, 90, solution.Angles[1], 0.1)
	})
}

func TestSolveInnerEnvelope(t *testing.T) {
	geometry := DefaultGeometry
	geometry.L2 = 150
	geometry.L3 = 50

	for _, point := range []Point{
		{X: 0, Y: 0, Z: 20},
		{X: 50, Y: 0, Z: 20},
	} {
		t.Run(point.String(), func(t *testing.T) {
			_, err := Solve(point, geometry)
			var unreachableErr *UnreachableTargetError
			require.ErrorAs(t, err, &unreachableErr)
			require.Equal(t, ReasonInner, unreachableErr.Reason)
		})
	}
}

func TestSolveClamping(t *testing.T) {
	t.Run("azimuth", func(t *testing.T) {
		point := Point{X: -100, Y: 50, Z: 0}
		solution, err := Solve(point, DefaultGeometry)
		require.NoError(t, err)

		require.Equal(t, 90.0, solution.Angles[0])
		require.InDelta(t, 153.4349, solution.Raw[0], 1e-3)
		require.Len(t, solution.Clamps, 1)
		require.Equal(t, 1, solution.Clamps[0].Joint)
		require.Equal(t, 90.0, solution.Clamps[0].Limit)
		require.InDelta(t, 90-153.4349, solution.Clamps[0].Delta(), 1e-3)

		again, err := Solve(point, DefaultGeometry)
		require.NoError(t, err)
		require.Equal(t, solution, again)
	})

	t.Run("wrist", func(t *testing.T) {
		geometry := DefaultGeometry
		geometry.Limits[3] = Limit{Min: -90, Max: 0}
		solution, err := Solve(Point{X: 115, Y: 0, Z: 54}, geometry)
		require.NoError(t, err)

		require.Equal(t, 0.0, solution.Angles[3])
		require.InDelta(t, 40.0321, solution.Raw[3], 1e-3)
		require.Len(t, solution.Clamps, 1)
		require.Equal(t, 4, solution.Clamps[0].Joint)
	})

	t.Run("elbow propagates to wrist", func(t *testing.T) {
		geometry := DefaultGeometry
		geometry.Limits[2] = Limit{Min: 0, Max: 120}
		solution, err := Solve(Point{X: 115, Y: 0, Z: 54}, geometry)
		require.NoError(t, err)

		require.Equal(t, 120.0, solution.Angles[2])
		require.InDelta(t, 180-(solution.Angles[1]+120), solution.Angles[3], 1e-9)
		require.Len(t, solution.Clamps, 1)
		require.Equal(t, 3, solution.Clamps[0].Joint)
	})

	t.Run("every joint lands on a bound", func(t *testing.T) {
		geometry := DefaultGeometry
		geometry.Limits = [4]Limit{
			{Min: 10, Max: 10},
			{Min: 50, Max: 60},
			{Min: 0, Max: 20},
			{Min: -5, Max: 5},
		}
		solution, err := Solve(Point{X: 115, Y: 0, Z: 54}, geometry)
		require.NoError(t, err)
		require.Equal(t, JointAngles{10, 50, 20, 5}, solution.Angles)
		require.Len(t, solution.Clamps, 4)
		for i, clamp := range solution.Clamps {
			require.Equal(t, i+1, clamp.Joint)
		}
	})
}

func TestSolveAzimuthReject(t *testing.T) {
	_, err := Solve(Point{X: -100, Y: 50, Z: 0}, DefaultGeometry, WithAzimuthPolicy(AzimuthReject))
	require.ErrorIs(t, err, ErrUnreachableTarget)
	var unreachableErr *UnreachableTargetError
	require.ErrorAs(t, err, &unreachableErr)
	require.Equal(t, ReasonAzimuth, unreachableErr.Reason)
	require.Equal(t, 90.0, unreachableErr.Reach)

	solution, err := Solve(Point{X: 115, Y: 0, Z: 54}, DefaultGeometry, WithAzimuthPolicy(AzimuthReject))
	require.NoError(t, err)
	require.False(t, solution.Clamped())
}

func TestSolveRoundTrip(t *testing.T) {
	points := []Point{
		{X: 115, Y: 0, Z: 54},
		{X: 150, Y: 80, Z: 10},
		{X: 200, Y: -50, Z: 0},
		{X: 120, Y: 100, Z: 30},
		{X: 100, Y: 0, Z: 0},
		{X: 180, Y: 150, Z: 0},
		{X: 250, Y: 0, Z: 0},
	}
	for _, theta5 := range []float64{0, 10, -15} {
		geometry := DefaultGeometry
		geometry.Theta5 = theta5
		for _, point := range points {
			t.Run(fmt.Sprintf("theta5=%g %s", theta5, point), func(t *testing.T) {
				solution, err := Solve(point, geometry)
				require.NoError(t, err)
				require.False(t, solution.Clamped(), "clamps: %v", solution.Clamps)
				require.InDelta(t, 0, Deviation(point, solution.Angles, geometry), 1e-6)
			})
		}
	}
}

func TestSolveInvalidInput(t *testing.T) {
	_, err := Solve(Point{X: math.NaN(), Y: 0, Z: 0}, DefaultGeometry)
	require.ErrorIs(t, err, ErrInvalidPoint)

	_, err = Solve(Point{X: math.Inf(1), Y: 0, Z: 0}, DefaultGeometry)
	require.ErrorIs(t, err, ErrInvalidPoint)

	geometry := DefaultGeometry
	geometry.L3 = 0
	_, err = Solve(Point{X: 115, Y: 0, Z: 54}, geometry)
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestClampCosine(t *testing.T) {
	testCases := []struct {
		c        float64
		expected float64
		ok       bool
	}{
		{0.5, 0.5, true},
		{1, 1, true},
		{1 + 1e-12, 1, true},
		{-1 - 1e-12, -1, true},
		{1.1, 0, false},
		{-1.5, 0, false},
		{math.NaN(), 0, false},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%g", tc.c), func(t *testing.T) {
			c, ok := clampCosine(tc.c)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.expected, c)
		})
	}
}

func TestParseAzimuthPolicy(t *testing.T) {
	for _, policy := range []AzimuthPolicy{AzimuthClamp, AzimuthReject} {
		parsed, err := ParseAzimuthPolicy(policy.String())
		require.NoError(t, err)
		require.Equal(t, policy, parsed)
	}
	_, err := ParseAzimuthPolicy("fail")
	require.Error(t, err)
}

func TestUnreachableTargetErrorMessage(t *testing.T) {
	err := &UnreachableTargetError{Point: Point{X: 1, Y: 2, Z: 3}, Reason: ReasonRadial, Distance: 310, Reach: 300}
	require.Equal(t, "unreachable target: (1, 2, 3): beyond reach envelope: wrist distance 310 mm, reach 300 mm", err.Error())
	require.True(t, errors.Is(err, ErrUnreachableTarget))
}
