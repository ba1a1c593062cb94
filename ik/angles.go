package ik

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidPoint = errors.New("invalid point")

var ErrJointLimit = errors.New("joint angle outside limit")

// Point is a pen tip position in the base frame.
type Point struct {
	X float64
	Y float64
	Z float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Distance returns the Euclidean distance between p and o.
func (p Point) Distance(o Point) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (p Point) validate() error {
	if !isFinite(p.X) || !isFinite(p.Y) || !isFinite(p.Z) {
		return fmt.Errorf("%w: %s: coordinates must be finite", ErrInvalidPoint, p)
	}
	return nil
}

// JointAngles holds θ1 to θ4 at indexes 0 to 3.
type JointAngles [4]float64

func (a JointAngles) String() string {
	return fmt.Sprintf("θ1=%g θ2=%g θ3=%g θ4=%g", a[0], a[1], a[2], a[3])
}

// Clamp records a joint angle replaced by its nearest limit bound.
type Clamp struct {
	// Joint is 1 based.
	Joint int
	Raw   float64
	Limit float64
}

// Delta is how far, in degrees, the raw angle was moved to reach the limit.
func (c Clamp) Delta() float64 {
	return c.Limit - c.Raw
}

func (c Clamp) String() string {
	return fmt.Sprintf("θ%d %g→%g", c.Joint, c.Raw, c.Limit)
}

// Solution is the result of solving one point.
type Solution struct {
	// Angles are within the joint limits and safe to command.
	Angles JointAngles
	// Raw are the angles before clamping. A joint computed after an upstream clamp derives from
	// the clamped upstream value.
	Raw JointAngles
	// Clamps lists every joint whose raw angle was outside its limit, in joint order.
	Clamps []Clamp
}

// Clamped tells whether Angles may not reproduce the requested point.
func (s Solution) Clamped() bool {
	return len(s.Clamps) > 0
}

// Angles extracts the commandable angles of each solution.
func Angles(solutions []Solution) []JointAngles {
	angles := make([]JointAngles, len(solutions))
	for i, solution := range solutions {
		angles[i] = solution.Angles
	}
	return angles
}

// FromAngles turns an already solved angular toolpath, eg: one written by convert, into
// solutions. It is all or nothing like Convert: an angle that is not finite or is outside its
// joint limit fails with a *PointError wrapping ErrJointLimit.
func FromAngles(angles []JointAngles, geometry Geometry) ([]Solution, error) {
	if err := geometry.Validate(); err != nil {
		return nil, err
	}
	solutions := make([]Solution, len(angles))
	for i, a := range angles {
		for joint, angle := range a {
			if limit := geometry.Limits[joint]; !limit.Contains(angle) {
				return nil, &PointError{
					Index: i,
					Err:   fmt.Errorf("%w: θ%d %g not in %s", ErrJointLimit, joint+1, angle, limit),
				}
			}
		}
		solutions[i] = Solution{Angles: a, Raw: a}
	}
	return solutions, nil
}
