package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/tachat/pkg/events"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Run starts the event router and the terminal program. Completion events
// published on topic reach the program through the router. Run returns when
// the program exits.
func Run(ctx context.Context, m Model, router *events.EventRouter, topic string, options ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	options = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, options...)
	p := tea.NewProgram(m, options...)
	router.AddHandler("ui-forward", topic, ForwardFunc(p))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()
		<-router.Running()
		_, err := p.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return errors.Wrap(err, "terminal UI failed")
		}
		return nil
	})

	err := eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Debug().Msg("terminal UI exited")
	return nil
}
