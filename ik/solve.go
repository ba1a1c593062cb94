package ik

import (
	"fmt"
	"math"
)

// cosineEpsilon is how far outside [-1, 1] a law of cosines result may land from rounding
// before it is treated as a geometric impossibility.
const cosineEpsilon = 1e-9

// AzimuthPolicy selects what happens when the base rotation needed to face the target is
// outside joint 1 limits.
type AzimuthPolicy int

const (
	// AzimuthClamp clamps θ1 and solves the rest of the chain for the clamped azimuth, so the pen
	// lands on the boundary azimuth instead of the requested point.
	AzimuthClamp AzimuthPolicy = iota
	// AzimuthReject fails with an *UnreachableTargetError.
	AzimuthReject
)

var azimuthPolicyNames = map[AzimuthPolicy]string{
	AzimuthClamp:  "clamp",
	AzimuthReject: "reject",
}

func (p AzimuthPolicy) String() string {
	if name, ok := azimuthPolicyNames[p]; ok {
		return name
	}
	panic(fmt.Sprintf("unexpected AzimuthPolicy: %d", p))
}

// ParseAzimuthPolicy parses the String representation of an AzimuthPolicy.
func ParseAzimuthPolicy(s string) (AzimuthPolicy, error) {
	for policy, name := range azimuthPolicyNames {
		if name == s {
			return policy, nil
		}
	}
	return 0, fmt.Errorf("unknown azimuth policy %q: must be clamp or reject", s)
}

type options struct {
	azimuthPolicy AzimuthPolicy
}

type Option func(*options)

func WithAzimuthPolicy(policy AzimuthPolicy) Option {
	return func(o *options) {
		o.azimuthPolicy = policy
	}
}

func newOptions(opts []Option) options {
	o := options{azimuthPolicy: AzimuthClamp}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func degrees(radians float64) float64 {
	return radians * 180 / math.Pi
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// clampCosine guards a law of cosines result against rounding at the envelope boundaries.
func clampCosine(c float64) (float64, bool) {
	if c < -1-cosineEpsilon || c > 1+cosineEpsilon || math.IsNaN(c) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, c)), true
}

// solver carries one solve through its stages.
type solver struct {
	geometry Geometry
	solution Solution
}

func (s *solver) limit(joint int, raw float64) float64 {
	s.solution.Raw[joint-1] = raw
	s.solution.Angles[joint-1] = s.geometry.Limits[joint-1].Clamp(raw)
	return s.solution.Angles[joint-1]
}

func (s *solver) done() Solution {
	for i, raw := range s.solution.Raw {
		if angle := s.solution.Angles[i]; angle != raw {
			s.solution.Clamps = append(s.solution.Clamps, Clamp{Joint: i + 1, Raw: raw, Limit: angle})
		}
	}
	return s.solution
}

// Solve computes the joint angles that place the pen tip at point.
//
// Only the elbow up configuration (the L2/L3 triangle with its obtuse side up) is considered;
// the arm limits are tuned around it. Angles outside a joint limit are replaced by the nearest
// bound and recorded in Solution.Clamps; this is never an error. Solve fails with an
// *UnreachableTargetError when the wrist point is at or beyond L2+L3 from the shoulder, when it
// is too close for the links to meet, or when the azimuth is out of range under
// AzimuthReject.
//
//gocyclo:ignore
func Solve(point Point, geometry Geometry, opts ...Option) (Solution, error) {
	o := newOptions(opts)
	if err := geometry.Validate(); err != nil {
		return Solution{}, err
	}
	if err := point.validate(); err != nil {
		return Solution{}, err
	}

	s := &solver{geometry: geometry}
	g := geometry

	// Base rotation
	theta1 := degrees(math.Atan2(point.Y, point.X))
	if o.azimuthPolicy == AzimuthReject && !g.Limits[0].Contains(theta1) {
		return Solution{}, &UnreachableTargetError{
			Point:    point,
			Reason:   ReasonAzimuth,
			Distance: theta1,
			Reach:    g.Limits[0].Clamp(theta1),
		}
	}
	theta1 = s.limit(1, theta1)

	// Wrist offset: the tool hangs L5 below joint 5, which sits L4 from joint 4 at Theta5 from
	// vertical, in the vertical plane at azimuth θ1.
	x5, y5, z5 := point.X, point.Y, point.Z+g.L5
	sinTheta5, cosTheta5 := math.Sincos(radians(-g.Theta5))
	sinTheta1, cosTheta1 := math.Sincos(radians(theta1))
	x4 := x5 + cosTheta1*sinTheta5*g.L4
	y4 := y5 + sinTheta1*sinTheta5*g.L4
	z4 := z5 + cosTheta5*g.L4

	// Elbow
	horizontal := math.Sqrt(x4*x4 + y4*y4)
	vertical := z4 - g.L0
	r2 := math.Sqrt(horizontal*horizontal + vertical*vertical)
	if r2 >= g.Reach() {
		return Solution{}, &UnreachableTargetError{Point: point, Reason: ReasonRadial, Distance: r2, Reach: g.Reach()}
	}
	inner := func() error {
		return &UnreachableTargetError{Point: point, Reason: ReasonInner, Distance: r2, Reach: g.Reach()}
	}
	if r2 == 0 {
		return Solution{}, inner()
	}
	c3, ok := clampCosine((r2*r2 - g.L2*g.L2 - g.L3*g.L3) / (2 * g.L2 * g.L3))
	if !ok {
		return Solution{}, inner()
	}
	s3 := math.Sqrt(1 - c3*c3)
	theta3 := s.limit(3, degrees(math.Atan2(s3, c3)))

	// Shoulder
	alpha := degrees(math.Atan2(vertical, horizontal))
	cBeta, ok := clampCosine((g.L2*g.L2 + r2*r2 - g.L3*g.L3) / (2 * g.L2 * r2))
	if !ok {
		return Solution{}, inner()
	}
	sBeta := math.Sqrt(1 - cBeta*cBeta)
	beta := degrees(math.Atan2(sBeta, cBeta))
	theta2 := s.limit(2, 90-alpha-beta)

	// Wrist
	s.limit(4, 180-(theta2+theta3+g.Theta5))

	return s.done(), nil
}
