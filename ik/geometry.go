// Package ik solves the inverse kinematics of a 4 joint pen arm: a base rotation (θ1), a
// shoulder (θ2) and elbow (θ3) forming a planar two link chain, and a wrist (θ4) that keeps the
// tool at a fixed angle.
//
// All angles are in degrees and all lengths in millimeters.
package ik

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidGeometry = errors.New("invalid geometry")

// Limit is the mechanical range of a joint, in degrees.
type Limit struct {
	Min float64
	Max float64
}

func (l Limit) Contains(degrees float64) bool {
	return degrees >= l.Min && degrees <= l.Max
}

// Clamp returns degrees if it is within the limit, or the nearest bound otherwise.
func (l Limit) Clamp(degrees float64) float64 {
	if degrees < l.Min {
		return l.Min
	}
	if degrees > l.Max {
		return l.Max
	}
	return degrees
}

func (l Limit) String() string {
	return fmt.Sprintf("[%g, %g]", l.Min, l.Max)
}

// Geometry describes a physical arm. It is read only: solving never mutates it, so the same
// value can be shared by concurrent solves.
type Geometry struct {
	// L0 is the vertical offset from the base to the shoulder.
	L0 float64
	// L2 and L3 are the upper and lower arm links.
	L2 float64
	L3 float64
	// L4 and L5 are the wrist to tool offsets: L4 at Theta5 from vertical, L5 vertical.
	L4 float64
	L5 float64
	// Theta5 is the fixed tool angle relative to link 4.
	Theta5 float64
	// Limits for joints 1 to 4.
	Limits [4]Limit
}

// DefaultGeometry is the reference pen arm.
var DefaultGeometry = Geometry{
	L0:     100,
	L2:     150,
	L3:     150,
	L4:     50,
	L5:     30,
	Theta5: 0,
	Limits: [4]Limit{
		{Min: -90, Max: 90},
		{Min: -45, Max: 90},
		{Min: 0, Max: 150},
		{Min: -90, Max: 135},
	},
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks that lengths are finite and non negative, that both triangle links are non
// zero and that every limit is finite with Min <= Max. L0 is an offset and may be negative, eg:
// a shoulder below the drawing surface.
func (g Geometry) Validate() error {
	if !isFinite(g.L0) {
		return fmt.Errorf("%w: L0 must be finite: %v", ErrInvalidGeometry, g.L0)
	}
	for _, length := range []struct {
		name  string
		value float64
	}{
		{"L2", g.L2},
		{"L3", g.L3},
		{"L4", g.L4},
		{"L5", g.L5},
	} {
		if !isFinite(length.value) || length.value < 0 {
			return fmt.Errorf("%w: %s must be a finite non negative length: %v", ErrInvalidGeometry, length.name, length.value)
		}
	}
	if g.L2 == 0 || g.L3 == 0 {
		return fmt.Errorf("%w: L2 and L3 must be non zero", ErrInvalidGeometry)
	}
	if !isFinite(g.Theta5) {
		return fmt.Errorf("%w: Theta5 must be finite: %v", ErrInvalidGeometry, g.Theta5)
	}
	for i, limit := range g.Limits {
		if !isFinite(limit.Min) || !isFinite(limit.Max) {
			return fmt.Errorf("%w: joint %d limit %s must be finite", ErrInvalidGeometry, i+1, limit)
		}
		if limit.Min > limit.Max {
			return fmt.Errorf("%w: joint %d limit %s has min above max", ErrInvalidGeometry, i+1, limit)
		}
	}
	return nil
}

// Reach is the radius of the reach envelope of the shoulder/elbow sub chain.
func (g Geometry) Reach() float64 {
	return g.L2 + g.L3
}
