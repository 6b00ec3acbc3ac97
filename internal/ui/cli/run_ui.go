package cli

import (
	"context"
	coreapp "docgen/internal/core/app"
	"docgen/internal/data/history"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

func toUpdateMsg(update coreapp.Update) updateMsg {
	msg := updateMsg{graph: update.Graph, cycles: update.Cycles, err: update.Err}
	if update.Routes != nil {
		msg.routeCount = len(update.Routes.Routes)
	}
	return msg
}

func runUI(ctx context.Context, app *coreapp.App, report *history.TrendReport) error {
	m := initialModel(report)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(toUpdateMsg(update))
	})

	go func() {
		p.Send(toUpdateMsg(app.CurrentUpdate()))
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
