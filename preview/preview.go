// Package preview shows a solved toolpath as a full screen terminal table.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fornellas/slogxt/log"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	fmtMod "github.com/fornellas/robowriter/internal/fmt"
)

const decimals = 3

var header = []string{"#", "X", "Y", "Z", "θ1", "θ2", "θ3", "θ4", "Deviation"}

type Options struct {
	// AppLogger also receives the records shown in the logs pane, eg: a debug file.
	AppLogger *slog.Logger
	// Screen overrides the terminal screen.
	Screen tcell.Screen
}

type Preview struct {
	rows     []Row
	options  *Options
	app      *tview.Application
	summary  *tview.TextView
	table    *tview.Table
	logs     *tview.TextView
	rootFlex *tview.Flex
}

func NewPreview(rows []Row, options *Options) *Preview {
	if options == nil {
		options = &Options{}
	}
	p := &Preview{
		rows:    rows,
		options: options,
		app:     tview.NewApplication(),
	}

	p.summary = tview.NewTextView()
	p.summary.SetDynamicColors(true)
	p.summary.SetTextAlign(tview.AlignCenter)
	p.summary.SetBorder(true)
	p.summary.SetTitle("Toolpath")
	p.summary.SetText(fmt.Sprintf("%s\n[%s]clamped joints[-] show the raw angle in parenthesis; q or Esc quits", tview.Escape(Summarize(rows).String()), tcell.ColorRed))

	p.newTable()

	p.logs = tview.NewTextView()
	p.logs.SetBorder(true)
	p.logs.SetTitle("Logs")
	p.logs.SetDynamicColors(true)
	p.logs.SetScrollable(true)
	p.logs.SetWrap(true)
	p.logs.SetChangedFunc(func() {
		p.logs.ScrollToEnd()
	})

	p.rootFlex = tview.NewFlex()
	p.rootFlex.SetDirection(tview.FlexRow)
	p.rootFlex.AddItem(p.summary, 4, 0, false)
	p.rootFlex.AddItem(p.table, 0, 1, true)
	p.rootFlex.AddItem(p.logs, 6, 0, false)

	return p
}

func (p *Preview) newTable() {
	p.table = tview.NewTable()
	p.table.SetBorder(true)
	p.table.SetTitle("Joint Angles")
	p.table.SetFixed(1, 0)
	p.table.SetSelectable(true, false)

	for column, title := range header {
		tableCell := tview.NewTableCell(title)
		tableCell.SetAlign(tview.AlignCenter)
		tableCell.SetTextColor(tcell.ColorYellow)
		tableCell.SetSelectable(false)
		tableCell.SetExpansion(1)
		p.table.SetCell(0, column, tableCell)
	}

	var maxDeviation float64
	for _, row := range p.rows {
		maxDeviation = max(maxDeviation, row.Deviation)
	}

	for i, row := range p.rows {
		cells := []*tview.TableCell{
			tview.NewTableCell(fmt.Sprintf("%d", row.Index)),
			tview.NewTableCell(fmtMod.SprintFloat(row.Target.X, decimals)),
			tview.NewTableCell(fmtMod.SprintFloat(row.Target.Y, decimals)),
			tview.NewTableCell(fmtMod.SprintFloat(row.Target.Z, decimals)),
		}
		for joint, angle := range row.Solution.Angles {
			text := fmtMod.SprintFloat(angle, decimals)
			tableCell := tview.NewTableCell(text)
			if clamp, ok := row.Clamp(joint + 1); ok {
				tableCell.SetText(fmt.Sprintf("%s (%s)", text, fmtMod.SprintFloat(clamp.Raw, decimals)))
				tableCell.SetTextColor(tcell.ColorRed)
			}
			cells = append(cells, tableCell)
		}
		deviationCell := tview.NewTableCell(fmtMod.SprintFloat(row.Deviation, decimals))
		deviationCell.SetTextColor(deviationColor(maxDeviation, row.Deviation))
		cells = append(cells, deviationCell)

		for column, tableCell := range cells {
			tableCell.SetAlign(tview.AlignRight)
			tableCell.SetExpansion(1)
			p.table.SetCell(i+1, column, tableCell)
		}
	}
}

// deviationColor goes from green at zero to red at maxValue.
func deviationColor(maxValue, value float64) tcell.Color {
	if maxValue <= 0 {
		return tcell.NewRGBColor(0, 255, 0)
	}
	t := max(0.0, min(1.0, value/maxValue))
	const maxChannelValue = float64(255)
	if t <= 0.5 {
		// green -> yellow
		return tcell.NewRGBColor(int32(2*t*maxChannelValue), 255, 0)
	}
	// yellow -> red
	return tcell.NewRGBColor(255, int32((2-2*t)*maxChannelValue), 0)
}

// Run shows the preview until the user quits or ctx is done.
func (p *Preview) Run(ctx context.Context) (err error) {
	consoleCtx, consoleLogger := log.MustWithGroup(ctx, "Preview")

	handler := newScreenHandler(
		log.NewTerminalTreeHandler(
			tview.ANSIWriter(p.logs),
			&log.TerminalHandlerOptions{
				// tview.TextView does not handle emojis correctly: drawing is corrupted.
				DisableGroupEmoji: true,
				ForceColor:        true,
			},
		),
		consoleLogger.Handler(),
	)
	defer handler.detach()
	handlers := []slog.Handler{handler}
	if p.options.AppLogger != nil {
		handlers = append(handlers, p.options.AppLogger.Handler())
	}
	appLogger := slog.New(log.NewMultiHandler(handlers...))
	appCtx := log.WithLogger(consoleCtx, appLogger)

	summary := Summarize(p.rows)
	appLogger.Info("Previewing", "points", summary.Points, "clamped", summary.Clamped)
	if summary.Clamped > 0 {
		appLogger.Warn("Some points were clamped into joint limits", "max_deviation", summary.MaxDeviation)
	}

	if p.options.Screen != nil {
		p.app.SetScreen(p.options.Screen)
	}
	p.app.SetRoot(p.rootFlex, true)
	p.app.SetFocus(p.table)
	p.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			p.app.Stop()
			return nil
		}
		return event
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-appCtx.Done():
			p.app.Stop()
		case <-done:
		}
	}()

	if runErr := p.app.Run(); runErr != nil {
		consoleLogger.Error("Application failed", "err", runErr)
		err = errors.Join(err, runErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.Join(err, ctxErr)
	}
	return err
}
