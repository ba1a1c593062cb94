// Package toolpath reads, writes and generates ordered sequences of pen tip positions and the
// joint angles solved for them.
package toolpath

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/fornellas/robowriter/ik"
	fmtMod "github.com/fornellas/robowriter/internal/fmt"
)

// Decimals written for each value.
const Decimals = 6

func isSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

// readRows parses lines of exactly columns floats. Blank lines and text after '#' are ignored.
func readRows(r io.Reader, columns int) ([][]float64, error) {
	rows := [][]float64{}
	scanner := bufio.NewScanner(r)
	var line int
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.FieldsFunc(text, isSeparator)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != columns {
			return nil, fmt.Errorf("line %d: expected %d values, got %d: %q", line, columns, len(fields), scanner.Text())
		}
		row := make([]float64, columns)
		for i, field := range fields {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad number %q: %w", line, field, err)
			}
			row[i] = value
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line, err)
	}
	return rows, nil
}

func writeRow(w io.Writer, values []float64) error {
	line := fmtMod.SprintFloats(values, Decimals, " ")
	n, err := fmt.Fprintln(w, line)
	if err != nil {
		return err
	}
	if n != len(line)+1 {
		return fmt.Errorf("short write")
	}
	return nil
}

// ReadPoints reads a Cartesian toolpath: one "x y z" point per line, in millimeters.
func ReadPoints(r io.Reader) ([]ik.Point, error) {
	rows, err := readRows(r, 3)
	if err != nil {
		return nil, err
	}
	points := make([]ik.Point, len(rows))
	for i, row := range rows {
		points[i] = ik.Point{X: row[0], Y: row[1], Z: row[2]}
	}
	return points, nil
}

func WritePoints(w io.Writer, points []ik.Point) error {
	for _, point := range points {
		if err := writeRow(w, []float64{point.X, point.Y, point.Z}); err != nil {
			return err
		}
	}
	return nil
}

// ReadAngles reads an angular toolpath: one "θ1 θ2 θ3 θ4" line per point, in degrees.
func ReadAngles(r io.Reader) ([]ik.JointAngles, error) {
	rows, err := readRows(r, 4)
	if err != nil {
		return nil, err
	}
	angles := make([]ik.JointAngles, len(rows))
	for i, row := range rows {
		copy(angles[i][:], row)
	}
	return angles, nil
}

func WriteAngles(w io.Writer, angles []ik.JointAngles) error {
	for _, a := range angles {
		if err := writeRow(w, a[:]); err != nil {
			return err
		}
	}
	return nil
}
