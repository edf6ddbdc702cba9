package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-go-golems/tachat/pkg/chat"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/go-go-golems/tachat/pkg/web"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server, err := buildServer()
			if err != nil {
				return err
			}
			return server.Run(ctx, viper.GetString("address"))
		},
	}
	cmd.Flags().String("address", "localhost:8501", "Address to listen on")
	cmd.Flags().Duration("shutdown-timeout", 0, "How long to wait for running requests on shutdown (default 10s)")
	cmd.Flags().Duration("session-idle-timeout", time.Hour, "Forget web sessions unused for this long (0 keeps them)")
	addChatSettingsFlags(cmd)
	return cmd
}

// buildServer keeps serving when the API key is missing, so the page can
// tell the user how to fix it.
func buildServer() (*web.Server, error) {
	var options []web.ServerOption
	if d := viper.GetDuration("shutdown-timeout"); d > 0 {
		options = append(options, web.WithShutdownTimeout(d))
	}
	options = append(options, web.WithSessionIdleTimeout(viper.GetDuration("session-idle-timeout")))

	defaults, err := chatSettingsFromViper()
	if err != nil {
		return nil, err
	}

	client, err := clientConfigFromViper().build()
	if err != nil {
		if !settings.IsConfigurationError(err) {
			return nil, err
		}
		log.Error().Err(err).Msg("configuration error, the assistant is disabled")
		return web.NewServer(nil, append(options, web.WithConfigurationError(err))...), nil
	}

	registry := chat.NewRegistry(client, defaults.Clone)
	return web.NewServer(registry, options...), nil
}
