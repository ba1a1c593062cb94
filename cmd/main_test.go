package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/fornellas/robowriter/ik"
	"github.com/fornellas/robowriter/toolpath"
)

func resetCommand(cmd *cobra.Command) {
	cmd.SetContext(nil)
	unchange := func(f *pflag.Flag) { f.Changed = false }
	cmd.Flags().VisitAll(unchange)
	cmd.PersistentFlags().VisitAll(unchange)
	for _, child := range cmd.Commands() {
		resetCommand(child)
	}
}

// run executes the CLI with args, returning stdout and the exit code.
func run(t *testing.T, args ...string) (string, int) {
	ResetFlags()
	resetCommand(RootCmd)

	exitCode := 0
	Exit = func(code int) { exitCode = code }
	t.Cleanup(func() { Exit = os.Exit })

	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(args)
	require.NoError(t, RootCmd.ExecuteContext(t.Context()))
	if exitCode != 0 {
		t.Logf("%s: exit %d:\n%s", strings.Join(args, " "), exitCode, stderr.String())
	}
	return stdout.String(), exitCode
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func parseFloats(t *testing.T, line string) []float64 {
	fields := strings.Fields(line)
	values := make([]float64, len(fields))
	for i, field := range fields {
		var err error
		values[i], err = strconv.ParseFloat(field, 64)
		require.NoError(t, err)
	}
	return values
}

func TestSolve(t *testing.T) {
	t.Run("home", func(t *testing.T) {
		stdout, code := run(t, "solve", "115", "0", "54")
		require.Equal(t, 0, code)
		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 1)
		angles := parseFloats(t, lines[0])
		require.Len(t, angles, 4)
		for i, expected := range []float64{0, 7.0912, 132.8766, 40.0321} {
			require.InDelta(t, expected, angles[i], 1e-4)
		}
	})

	t.Run("clamped", func(t *testing.T) {
		stdout, code := run(t, "solve", "--", "-100", "50", "0")
		require.Equal(t, 0, code)
		require.True(t, strings.HasPrefix(stdout, "90 "), stdout)
		require.Contains(t, stdout, "clamped θ1 ")
		require.Contains(t, stdout, "deviation ")
	})

	t.Run("reject", func(t *testing.T) {
		_, code := run(t, "--azimuth-policy", "reject", "solve", "--", "-100", "50", "0")
		require.Equal(t, 1, code)
	})

	t.Run("reject from environment", func(t *testing.T) {
		t.Setenv("ROBOWRITER_AZIMUTH_POLICY", "reject")
		_, code := run(t, "solve", "--", "-100", "50", "0")
		require.Equal(t, 1, code)
	})

	t.Run("unreachable", func(t *testing.T) {
		_, code := run(t, "solve", "300", "0", "20")
		require.Equal(t, 1, code)
	})

	t.Run("config", func(t *testing.T) {
		path := writeFile(t, "arm.yaml", "geometry:\n  l2: 50\n  l3: 50\n")
		_, code := run(t, "--config", path, "solve", "115", "0", "54")
		require.Equal(t, 1, code)
	})

	t.Run("invalid coordinate", func(t *testing.T) {
		_, code := run(t, "solve", "1", "two", "3")
		require.Equal(t, 1, code)
	})
}

const squarePath = `# x y z
115 0 54
150, 80, 10
200 -50 0
`

func TestConvert(t *testing.T) {
	input := writeFile(t, "square.txt", squarePath)
	output := filepath.Join(t.TempDir(), "angles.txt")

	_, code := run(t, "convert", input, "--output", output)
	require.Equal(t, 0, code)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	angles, err := toolpath.ReadAngles(f)
	require.NoError(t, err)
	require.Len(t, angles, 3)
	require.InDelta(t, 132.8766, angles[0][2], 1e-4)

	points := []ik.Point{{X: 115, Y: 0, Z: 54}, {X: 150, Y: 80, Z: 10}, {X: 200, Y: -50, Z: 0}}
	for i, point := range points {
		require.Less(t, ik.Deviation(point, angles[i], ik.DefaultGeometry), 1e-5)
	}

	t.Run("stdout", func(t *testing.T) {
		stdout, code := run(t, "convert", input)
		require.Equal(t, 0, code)
		require.Len(t, strings.Split(strings.TrimSpace(stdout), "\n"), 3)
	})

	t.Run("unreachable", func(t *testing.T) {
		input := writeFile(t, "far.txt", "115 0 54\n300 0 20\n")
		stdout, code := run(t, "convert", input)
		require.Equal(t, 1, code)
		require.Empty(t, stdout)
	})

	t.Run("missing", func(t *testing.T) {
		_, code := run(t, "convert", filepath.Join(t.TempDir(), "missing.txt"))
		require.Equal(t, 1, code)
	})
}

func TestVerify(t *testing.T) {
	stdout, code := run(t, "verify", writeFile(t, "square.txt", squarePath))
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "points 3\nclamped 0\n")

	stdout, code = run(t, "verify", writeFile(t, "clamped.txt", squarePath+"-100 50 0\n"))
	require.Equal(t, 1, code)
	require.Contains(t, stdout, "points 4\nclamped 1\n")

	_, code = run(t, "verify", "--tolerance", "1000", writeFile(t, "clamped.txt", squarePath+"-100 50 0\n"))
	require.Equal(t, 0, code)
}

func TestGenerateLine(t *testing.T) {
	stdout, code := run(t, "generate", "line", "--point", "100,0,0", "--point", "100,200,0", "--point", "200,200,0", "--steps", "5")
	require.Equal(t, 0, code)

	points, err := toolpath.ReadPoints(strings.NewReader(stdout))
	require.NoError(t, err)
	require.Len(t, points, 10)
	require.Equal(t, ik.Point{X: 100, Y: 0, Z: 0}, points[0])
	require.Equal(t, ik.Point{X: 100, Y: 50, Z: 0}, points[1])
	require.Equal(t, ik.Point{X: 100, Y: 200, Z: 0}, points[4])
	require.Equal(t, ik.Point{X: 100, Y: 200, Z: 0}, points[5])
	require.Equal(t, ik.Point{X: 200, Y: 200, Z: 0}, points[9])

	_, code = run(t, "generate", "line", "--point", "100,0,0")
	require.Equal(t, 1, code)
}

func TestGenerateScript(t *testing.T) {
	script := writeFile(t, "points.go", `package script

func Points() [][]float64 {
	points := [][]float64{}
	for i := 0; i < 3; i++ {
		points = append(points, []float64{100, float64(i * 10), 0})
	}
	return points
}
`)
	output := filepath.Join(t.TempDir(), "points.txt")
	_, code := run(t, "generate", "script", script, "-o", output)
	require.Equal(t, 0, code)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, "100 0 0\n100 10 0\n100 20 0\n", string(data))
}

func TestDrawRequiresPort(t *testing.T) {
	_, code := run(t, "draw", writeFile(t, "square.txt", squarePath))
	require.Equal(t, 1, code)
}
