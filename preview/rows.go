package preview

import (
	"fmt"
	"math"

	"github.com/fornellas/robowriter/ik"
)

// Row is one solved toolpath point as displayed.
type Row struct {
	Index    int
	Target   ik.Point
	Solution ik.Solution
	// Deviation is the distance between the target and the pen tip reached by the solved angles.
	Deviation float64
}

// Clamp returns the clamp applied to joint (1 based), if any.
func (r Row) Clamp(joint int) (ik.Clamp, bool) {
	for _, clamp := range r.Solution.Clamps {
		if clamp.Joint == joint {
			return clamp, true
		}
	}
	return ik.Clamp{}, false
}

func Rows(points []ik.Point, solutions []ik.Solution, geometry ik.Geometry) ([]Row, error) {
	if len(points) != len(solutions) {
		return nil, fmt.Errorf("%d points but %d solutions", len(points), len(solutions))
	}
	rows := make([]Row, len(points))
	for i, point := range points {
		rows[i] = Row{
			Index:     i,
			Target:    point,
			Solution:  solutions[i],
			Deviation: ik.Deviation(point, solutions[i].Angles, geometry),
		}
	}
	return rows, nil
}

type Summary struct {
	Points       int
	Clamped      int
	MaxDeviation float64
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"%d points, %d clamped, max deviation %.3f mm",
		s.Points, s.Clamped, s.MaxDeviation,
	)
}

func Summarize(rows []Row) Summary {
	summary := Summary{Points: len(rows)}
	for _, row := range rows {
		if row.Solution.Clamped() {
			summary.Clamped++
		}
		summary.MaxDeviation = math.Max(summary.MaxDeviation, row.Deviation)
	}
	return summary
}
