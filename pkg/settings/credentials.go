package settings

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const APIKeyName = "OPENAI_API_KEY"

// ConfigurationError is returned when the assistant cannot start at all, for
// example because no API key is configured. Nothing else can happen in a
// session once this error is shown.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// CredentialSource looks up a named secret.
type CredentialSource interface {
	Name() string
	Lookup(key string) (string, bool, error)
}

// SecretsFile is the host-managed secret store: a flat YAML mapping of secret
// names to values.
type SecretsFile struct {
	Path string
}

func DefaultSecretsFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".tachat", "secrets.yaml")
		}
		return filepath.Join(home, ".tachat", "secrets.yaml")
	}
	return filepath.Join(dir, "tachat", "secrets.yaml")
}

func (s *SecretsFile) Name() string {
	return "secrets file " + s.Path
}

func (s *SecretsFile) Lookup(key string) (string, bool, error) {
	if s.Path == "" {
		return "", false, nil
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "could not read %s", s.Path)
	}

	secrets := map[string]string{}
	if err := yaml.Unmarshal(b, &secrets); err != nil {
		return "", false, errors.Wrapf(err, "could not parse %s", s.Path)
	}
	v, ok := secrets[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false, nil
	}
	return strings.TrimSpace(v), true, nil
}

type Environment struct {
	LookupEnv func(string) (string, bool)
}

func (e *Environment) Name() string {
	return "environment"
}

func (e *Environment) Lookup(key string) (string, bool, error) {
	lookup := e.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false, nil
	}
	return strings.TrimSpace(v), true, nil
}

func missingAPIKeyMessage(secretsPath string) string {
	return APIKeyName + " is not set. Please add it to the secrets file (" + secretsPath + ") " +
		"or set it as an environment variable for local testing."
}

// ResolveAPIKey looks for the API key in the secrets file first and falls back
// to the environment. A missing key is a ConfigurationError naming both ways
// to fix it.
func ResolveAPIKey(secretsPath string) (string, error) {
	return ResolveAPIKeyFrom(secretsPath, &SecretsFile{Path: secretsPath}, &Environment{})
}

func ResolveAPIKeyFrom(secretsPath string, sources ...CredentialSource) (string, error) {
	for _, source := range sources {
		v, ok, err := source.Lookup(APIKeyName)
		if err != nil {
			return "", &ConfigurationError{
				Message: "could not load " + APIKeyName + " from " + source.Name(),
				Err:     err,
			}
		}
		if ok {
			log.Debug().Str("source", source.Name()).Msg("resolved API key")
			return v, nil
		}
	}

	return "", &ConfigurationError{Message: missingAPIKeyMessage(secretsPath)}
}
