package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-go-golems/tachat/pkg/events"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var rootCmd = &cobra.Command{
	Use:   "tachat",
	Short: "tachat is a teaching assistant chat for the Embedded AI & Robotics lab",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cmd); err != nil {
			return err
		}
		return initLogger()
	},
	SilenceUsage: true,
}

type logConfig struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
}

func initLogger() error {
	return InitLogger(&logConfig{
		Level:      viper.GetString("log-level"),
		LogFile:    viper.GetString("log-file"),
		LogFormat:  viper.GetString("log-format"),
		WithCaller: viper.GetBool("with-caller"),
	})
}

func InitLogger(config *logConfig) error {
	var logWriter io.Writer
	if config.LogFormat == "json" {
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	if config.LogFile != "" {
		logWriter = io.MultiWriter(
			logWriter,
			zerolog.ConsoleWriter{
				NoColor: true,
				Out: &lumberjack.Logger{
					Filename:   config.LogFile,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, // days
				},
			})
	}

	logger := log.Output(logWriter)
	if config.WithCaller {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger

	level := zerolog.InfoLevel
	if config.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(config.Level))
		if err != nil {
			return err
		}
		level = l
	}
	zerolog.SetGlobalLevel(level)

	return nil
}

// routerOptions turns on watermill's own logging at trace level.
func routerOptions() []events.EventRouterOption {
	if zerolog.GlobalLevel() > zerolog.TraceLevel {
		return nil
	}
	return []events.EventRouterOption{
		events.WithLogger(events.NewWatermillLogger(log.Logger)),
	}
}

func initConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix("tachat")

	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.tachat")

		xdgConfigPath, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(xdgConfigPath, "tachat"))
		}
	}

	err := viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// no config file is fine
	} else if err != nil {
		return err
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	log.Debug().Str("config", viper.ConfigFileUsed()).Msg("loaded configuration")
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")
	pf.String("log-file", "", "Also write logs to this file, rotated")
	pf.Bool("with-caller", false, "Log the caller")
	pf.String("config", "", "Path to the config file")
	pf.String("secrets-file", settings.DefaultSecretsFilePath(), "YAML file holding OPENAI_API_KEY")
	pf.String("openai-base-url", settings.DefaultOpenAIBaseURL, "OpenAI API base URL")
	pf.String("openai-organization", "", "OpenAI organization ID")
	pf.Bool("allow-insecure-base-url", false, "Accept http and local network base URLs")
	pf.Duration("timeout", 60*time.Second, "Timeout for one completion call")
	pf.Bool("echo", false, "Answer with the user's own message instead of calling OpenAI")
	pf.Duration("echo-delay", 20*time.Millisecond, "Delay between streamed characters in echo mode")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newReplCommand())
	rootCmd.AddCommand(newModelsCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
