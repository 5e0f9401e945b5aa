package tui

import (
	"context"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/realtime"
	tea "github.com/charmbracelet/bubbletea"
)

// Run blocks until the user quits or ctx is done. A nil changes stream
// leaves the catalogue as loaded until the user reloads.
func Run(ctx context.Context, catalogue Catalogue, cart Cart, changes <-chan realtime.Change, pageSize int, delay time.Duration) error {
	m := New(ctx, catalogue, cart, pageSize, delay).Follow(changes)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
