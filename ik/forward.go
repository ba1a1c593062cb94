package ik

import "math"

// Forward returns the pen tip position for the given joint angles. It is the inverse of Solve
// for unclamped solutions and is only used to verify or display results.
func Forward(angles JointAngles, geometry Geometry) Point {
	theta2 := radians(angles[1])
	theta23 := theta2 + radians(angles[2])
	theta234 := theta23 + radians(angles[3])

	rho := geometry.L2*math.Sin(theta2) + geometry.L3*math.Sin(theta23) + geometry.L4*math.Sin(theta234)
	z := geometry.L0 + geometry.L2*math.Cos(theta2) + geometry.L3*math.Cos(theta23) + geometry.L4*math.Cos(theta234) - geometry.L5

	sinTheta1, cosTheta1 := math.Sincos(radians(angles[0]))
	return Point{
		X: rho * cosTheta1,
		Y: rho * sinTheta1,
		Z: z,
	}
}

// Deviation is the distance between point and where angles actually put the pen tip.
func Deviation(point Point, angles JointAngles, geometry Geometry) float64 {
	return point.Distance(Forward(angles, geometry))
}
