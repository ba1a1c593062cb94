package preview

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fornellas/slogxt/log"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"

	"github.com/fornellas/robowriter/ik"
)

func testRows(t *testing.T) []Row {
	ctx := log.WithLogger(t.Context(), slog.New(slog.DiscardHandler))
	points := []ik.Point{
		{X: 115, Y: 0, Z: 54},
		{X: -100, Y: 50, Z: 0},
	}
	solutions, err := ik.Convert(ctx, points, ik.DefaultGeometry)
	require.NoError(t, err)
	rows, err := Rows(points, solutions, ik.DefaultGeometry)
	require.NoError(t, err)
	return rows
}

func TestRows(t *testing.T) {
	rows := testRows(t)
	require.Len(t, rows, 2)

	require.Equal(t, 0, rows[0].Index)
	require.InDelta(t, 0, rows[0].Deviation, 1e-9)
	_, ok := rows[0].Clamp(1)
	require.False(t, ok)

	require.Equal(t, 1, rows[1].Index)
	clamp, ok := rows[1].Clamp(1)
	require.True(t, ok)
	require.Equal(t, 90.0, clamp.Limit)
	require.Greater(t, rows[1].Deviation, 1.0)

	_, err := Rows([]ik.Point{{}}, nil, ik.DefaultGeometry)
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	rows := testRows(t)
	summary := Summarize(rows)
	require.Equal(t, 2, summary.Points)
	require.Equal(t, 1, summary.Clamped)
	require.Equal(t, rows[1].Deviation, summary.MaxDeviation)
	require.Contains(t, summary.String(), "2 points, 1 clamped, max deviation ")

	require.Equal(t, Summary{}, Summarize(nil))
}

func TestNewPreviewTable(t *testing.T) {
	p := NewPreview(testRows(t), nil)
	require.Equal(t, 3, p.table.GetRowCount())
	require.Equal(t, len(header), p.table.GetColumnCount())

	require.Equal(t, "θ1", p.table.GetCell(0, 4).Text)
	require.Equal(t, "115", p.table.GetCell(1, 1).Text)
	require.Equal(t, "7.091", p.table.GetCell(1, 5).Text)
	require.Equal(t, "90 (153.435)", p.table.GetCell(2, 4).Text)
}

func TestDeviationColor(t *testing.T) {
	require.Equal(t, tcell.NewRGBColor(0, 255, 0), deviationColor(0, 0))
	require.Equal(t, tcell.NewRGBColor(0, 255, 0), deviationColor(10, 0))
	require.Equal(t, tcell.NewRGBColor(255, 255, 0), deviationColor(10, 5))
	require.Equal(t, tcell.NewRGBColor(255, 0, 0), deviationColor(10, 10))
}

func TestScreenHandler(t *testing.T) {
	var pane, console bytes.Buffer
	handler := newScreenHandler(
		slog.NewTextHandler(&pane, nil),
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(handler).WithGroup("g").With("k", "v")

	logger.Info("hidden")
	logger.Warn("shown")
	require.NotContains(t, pane.String(), "hidden")
	require.Contains(t, pane.String(), "shown")
	require.Contains(t, pane.String(), "g.k=v")
	require.Empty(t, console.String())

	handler.detach()
	require.False(t, logger.Handler().Enabled(context.Background(), slog.LevelError))
	require.NoError(t, logger.Handler().Handle(context.Background(), slog.Record{}))
	logger.Error("gone")
	require.NotContains(t, pane.String(), "gone")
}
