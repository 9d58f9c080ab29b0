// Package walker is an interactive terminal UI that steps through a menu
// script while showing the live menu and the bus traffic it causes.
package walker

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"menuscript/pkg/bus"
)

// Run blocks until the user quits or ctx ends. events may be nil.
func Run(ctx context.Context, driver Driver, events <-chan bus.Event) error {
	program := tea.NewProgram(newModel(ctx, driver, events), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
