package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/tachat/pkg/chat"
	"github.com/go-go-golems/tachat/pkg/completion"
	"github.com/go-go-golems/tachat/pkg/events"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const replTopic = "repl"

// maxREPLLine is the longest input line accepted. A longer line ends the
// session with an error.
const maxREPLLine = 1024 * 1024

func newReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Minimal line based chat with gpt-3.5-turbo and the default persona",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := isatty.IsTerminal(os.Stdin.Fd())
			return runREPL(cmd.Context(), clientConfigFromViper(), cmd.InOrStdin(), cmd.OutOrStdout(), interactive)
		},
	}
}

// runREPL reads one user message per line and prints the streamed replies.
func runREPL(ctx context.Context, cfg clientConfig, in io.Reader, out io.Writer, interactive bool) error {
	router, err := events.NewEventRouter(routerOptions()...)
	if err != nil {
		return err
	}
	router.AddHandler("repl-printer", replTopic, events.PrinterFunc(out))

	client, err := cfg.build(router.Sink(replTopic))
	if err != nil {
		_ = router.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()
		defer func() {
			_ = router.Close()
		}()
		<-router.Running()
		session := chat.NewSession(client, settings.NewMinimalChatSettings())
		return replLoop(ctx, session, in, out, interactive)
	})

	return eg.Wait()
}

func replLoop(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer, interactive bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxREPLLine)

	for {
		if interactive {
			if _, err := fmt.Fprint(out, "> "); err != nil {
				return err
			}
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return errors.Wrapf(err, "input lines are limited to %d bytes", maxREPLLine)
			}
			return nil
		}
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		res := session.Submit(ctx, text, nil)
		var ce *completion.CallError
		switch {
		case res.Err == nil:
		case errors.As(res.Err, &ce):
			// already printed from the error event
			log.Debug().Err(res.Err).Str("session_id", session.ID).Msg("turn failed")
		default:
			if _, err := fmt.Fprintf(out, "error: %s\n", res.Err); err != nil {
				return err
			}
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}
