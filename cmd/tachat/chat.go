package main

import (
	"os"

	"github.com/go-go-golems/tachat/pkg/chat"
	"github.com/go-go-golems/tachat/pkg/events"
	"github.com/go-go-golems/tachat/pkg/ui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const chatTopic = "chat"

func newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := chatSettingsFromViper()
			if err != nil {
				return err
			}

			router, err := events.NewEventRouter(routerOptions()...)
			if err != nil {
				return err
			}
			defer func() {
				_ = router.Close()
			}()

			client, err := clientConfigFromViper().build(router.Sink(chatTopic))
			if err != nil {
				return err
			}

			glamourStyle := "notty"
			if isatty.IsTerminal(os.Stdout.Fd()) {
				glamourStyle = "dark"
			}

			session := chat.NewSession(client, cs)
			m := ui.NewModel(session,
				ui.WithContext(cmd.Context()),
				ui.WithExportPath(viper.GetString("export-file")),
				ui.WithGlamourStyle(glamourStyle),
			)
			return ui.Run(cmd.Context(), m, router, chatTopic)
		},
	}
	cmd.Flags().String("export-file", "tachat-transcript.yaml", "File written by ctrl+e (.json or .yaml)")
	addChatSettingsFlags(cmd)
	return cmd
}
