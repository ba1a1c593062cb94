package ik

import (
	"errors"
	"fmt"
)

// ErrUnreachableTarget matches every *UnreachableTargetError with errors.Is.
var ErrUnreachableTarget = errors.New("unreachable target")

type Reason int

const (
	// ReasonRadial is a wrist point at or beyond the L2+L3 envelope.
	ReasonRadial Reason = iota
	// ReasonInner is a wrist point too close to the shoulder for the two links to meet.
	ReasonInner
	// ReasonAzimuth is a base rotation outside joint 1 limits under AzimuthReject.
	ReasonAzimuth
)

var reasonNames = map[Reason]string{
	ReasonRadial:  "beyond reach envelope",
	ReasonInner:   "inside inner envelope",
	ReasonAzimuth: "azimuth outside joint 1 limits",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	panic(fmt.Sprintf("unexpected Reason: %d", r))
}

// UnreachableTargetError means no joint configuration places the tool at Point under the fixed
// wrist angle. It is definitive: retrying the same point fails the same way.
type UnreachableTargetError struct {
	Point  Point
	Reason Reason
	// Distance is the shoulder to wrist point distance for radial reasons, or the azimuth in
	// degrees for ReasonAzimuth.
	Distance float64
	// Reach is L2+L3 for radial reasons, or the violated joint 1 bound for ReasonAzimuth.
	Reach float64
}

func (e *UnreachableTargetError) Error() string {
	switch e.Reason {
	case ReasonAzimuth:
		return fmt.Sprintf("%s: %s: %s: %g° not in bound %g°", ErrUnreachableTarget, e.Point, e.Reason, e.Distance, e.Reach)
	default:
		return fmt.Sprintf("%s: %s: %s: wrist distance %g mm, reach %g mm", ErrUnreachableTarget, e.Point, e.Reason, e.Distance, e.Reach)
	}
}

func (e *UnreachableTargetError) Is(target error) bool {
	return target == ErrUnreachableTarget
}

// PointError ties a failure to the index of the path point that caused it.
type PointError struct {
	Index int
	Err   error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("point %d: %s", e.Index, e.Err)
}

func (e *PointError) Unwrap() error {
	return e.Err
}
