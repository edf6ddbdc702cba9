package main

import (
	"strings"
	"time"

	"github.com/go-go-golems/tachat/pkg/completion"
	"github.com/go-go-golems/tachat/pkg/events"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type clientConfig struct {
	Echo        bool
	EchoDelay   time.Duration
	SecretsFile string
	Client      *settings.ClientSettings
}

func clientConfigFromViper() clientConfig {
	cs := settings.NewClientSettings()
	if v := viper.GetString("openai-base-url"); v != "" {
		cs.BaseURL = v
	}
	cs.Organization = viper.GetString("openai-organization")
	cs.AllowInsecureBaseURL = viper.GetBool("allow-insecure-base-url")
	if v := viper.GetDuration("timeout"); v > 0 {
		cs.Timeout = v
	}
	return clientConfig{
		Echo:        viper.GetBool("echo"),
		EchoDelay:   viper.GetDuration("echo-delay"),
		SecretsFile: viper.GetString("secrets-file"),
		Client:      cs,
	}
}

// build returns the completion client. A missing API key is reported as a
// *settings.ConfigurationError.
func (c clientConfig) build(sinks ...events.EventSink) (completion.Client, error) {
	if c.Echo {
		log.Info().Msg("echo mode, OpenAI is not called")
		return completion.NewEchoClient(c.EchoDelay, completion.WithSinks(sinks...)), nil
	}

	apiKey, err := settings.ResolveAPIKey(c.SecretsFile)
	if err != nil {
		return nil, err
	}
	return completion.NewOpenAIClient(apiKey, c.Client, completion.WithSinks(sinks...))
}

func addChatSettingsFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", string(settings.DefaultModel),
		"Model to start with ("+strings.Join(settings.SupportedModelNames(), ", ")+")")
	cmd.Flags().String("persona", "", "System instruction to start with (default: the lab TA persona)")
	cmd.Flags().Bool("stream", true, "Stream replies")
}

func chatSettingsFromViper() (*settings.ChatSettings, error) {
	cs := settings.NewChatSettings()
	if v := viper.GetString("persona"); v != "" {
		cs.Persona = v
	}
	if v := viper.GetString("model"); v != "" {
		m, err := settings.ParseModel(v)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --model")
		}
		cs.Model = m
	}
	cs.Stream = viper.GetBool("stream")
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	return cs, nil
}
