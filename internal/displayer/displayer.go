package displayer

import (
	"fmt"

	"elmdiag/internal/pid"
	"elmdiag/internal/scan"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Displayer renders a completed sweep as a terminal table.
type Displayer struct {
	app *tview.Application
}

func New() *Displayer {
	return &Displayer{
		app: tview.NewApplication(),
	}
}

// Run shows the readings until the user quits.
func (d *Displayer) Run(catalog pid.Catalog, readings []scan.Reading) error {
	defs := make(map[string]pid.Definition)
	for _, def := range catalog.Active() {
		defs[def.Name] = def
	}

	table := tview.NewTable().SetBorders(false)
	headers := []string{"Parameter", "Value", "Unit", "Range"}
	for col, h := range headers {
		table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}
	for i, r := range readings {
		def := defs[r.Name]
		table.SetCell(i+1, 0, tview.NewTableCell(r.Name))
		table.SetCell(i+1, 1, tview.NewTableCell(fmt.Sprintf("%.2f", r.Value)))
		table.SetCell(i+1, 2, tview.NewTableCell(def.Unit.String()))
		table.SetCell(i+1, 3, tview.NewTableCell(fmt.Sprintf("%g to %g", def.Min, def.Max)))
	}

	title := tview.NewTextView().SetTextAlign(tview.AlignCenter).
		SetText("elmdiag - ELM327 diagnostics")
	help := tview.NewTextView().SetTextAlign(tview.AlignCenter).
		SetText("Keys: q Quit")

	flex := tview.NewFlex().SetDirection(tview.FlexRow)
	flex.AddItem(title, 1, 0, false)
	flex.AddItem(table, 0, 1, true)
	flex.AddItem(help, 1, 0, false)

	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q', 'Q':
			d.app.Stop()
			return nil
		}
		return event
	})

	return d.app.SetRoot(flex, true).Run()
}
