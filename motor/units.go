package motor

import (
	"errors"
	"fmt"
	"math"

	"github.com/fornellas/robowriter/ik"
)

const (
	TicksPerRevolution = 4096
	MaxTicks           = TicksPerRevolution - 1
)

var ErrPositionOutOfRange = errors.New("position out of range")

// DegreesToTicks converts a physical motor angle to encoder ticks, 0° being tick 0.
func DegreesToTicks(degrees float64) (uint32, error) {
	ticks := math.Round(degrees * TicksPerRevolution / 360)
	if math.IsNaN(ticks) || ticks < 0 || ticks > MaxTicks {
		return 0, fmt.Errorf("%w: %g° is not within [0, %d] ticks", ErrPositionOutOfRange, degrees, MaxTicks)
	}
	return uint32(ticks), nil
}

func TicksToDegrees(ticks uint32) float64 {
	return float64(ticks) * 360 / TicksPerRevolution
}

// Transform maps model joint angles to physical motor angles, per joint:
//
//	physical = model * Scaling + Offset
//
// Scaling accounts for motors mounted reversed or geared; Offset for where the motor zero sits
// relative to the model zero.
type Transform struct {
	Scaling [4]float64
	Offset  [4]float64
}

// DefaultTransform centers model 0° at the middle of the encoder range.
var DefaultTransform = Transform{
	Scaling: [4]float64{1, 1, 1, 1},
	Offset:  [4]float64{180, 180, 180, 180},
}

func (t Transform) Validate() error {
	for i := range 4 {
		if t.Scaling[i] == 0 || math.IsNaN(t.Scaling[i]) || math.IsInf(t.Scaling[i], 0) {
			return fmt.Errorf("joint %d: scaling must be finite and non zero: %v", i+1, t.Scaling[i])
		}
		if math.IsNaN(t.Offset[i]) || math.IsInf(t.Offset[i], 0) {
			return fmt.Errorf("joint %d: offset must be finite: %v", i+1, t.Offset[i])
		}
	}
	return nil
}

func (t Transform) ToPhysical(angles ik.JointAngles) [4]float64 {
	var physical [4]float64
	for i, angle := range angles {
		physical[i] = angle*t.Scaling[i] + t.Offset[i]
	}
	return physical
}

func (t Transform) ToModel(physical [4]float64) ik.JointAngles {
	var angles ik.JointAngles
	for i, p := range physical {
		angles[i] = (p - t.Offset[i]) / t.Scaling[i]
	}
	return angles
}

// Ticks converts model angles straight to goal positions.
func (t Transform) Ticks(angles ik.JointAngles) ([4]uint32, error) {
	var ticks [4]uint32
	for i, p := range t.ToPhysical(angles) {
		var err error
		ticks[i], err = DegreesToTicks(p)
		if err != nil {
			return ticks, fmt.Errorf("joint %d: %w", i+1, err)
		}
	}
	return ticks, nil
}

// Angles converts present positions back to model angles.
func (t Transform) Angles(ticks [4]uint32) ik.JointAngles {
	var physical [4]float64
	for i, tick := range ticks {
		physical[i] = TicksToDegrees(tick)
	}
	return t.ToModel(physical)
}
