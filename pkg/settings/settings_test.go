package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModel(t *testing.T) {
	m, err := ParseModel("gpt-3.5-turbo")
	require.NoError(t, err)
	assert.Equal(t, ModelGPT35Turbo, m)

	_, err = ParseModel("gpt-2")
	assert.ErrorIs(t, err, ErrUnsupportedModel)
	assert.Contains(t, err.Error(), "gpt-4o-mini")
}

func TestModelNextWrapsAround(t *testing.T) {
	assert.Equal(t, ModelGPT35Turbo, ModelGPT4oMini.Next())
	assert.Equal(t, ModelGPT4oMini, ModelGPT35Turbo.Next())
	assert.Equal(t, DefaultModel, Model("unknown").Next())
}

func TestChatSettingsCloneIsIndependent(t *testing.T) {
	s := NewChatSettings()
	c := s.Clone()
	c.Persona = "You are terse."
	c.Model = ModelGPT35Turbo

	assert.Equal(t, DefaultPersona, s.Persona)
	assert.Equal(t, DefaultModel, s.Model)
	assert.True(t, c.Stream)
}

func TestMinimalChatSettings(t *testing.T) {
	s := NewMinimalChatSettings()
	assert.Equal(t, ModelGPT35Turbo, s.Model)
	assert.NoError(t, s.Validate())
}

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func env(values map[string]string) *Environment {
	return &Environment{LookupEnv: func(k string) (string, bool) {
		v, ok := values[k]
		return v, ok
	}}
}

func TestResolveAPIKeyPrefersSecretsFile(t *testing.T) {
	path := writeSecrets(t, "OPENAI_API_KEY: from-file\n")
	key, err := ResolveAPIKeyFrom(path, &SecretsFile{Path: path}, env(map[string]string{APIKeyName: "from-env"}))
	require.NoError(t, err)
	assert.Equal(t, "from-file", key)
}

func TestResolveAPIKeyFallsBackToEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	key, err := ResolveAPIKeyFrom(path, &SecretsFile{Path: path}, env(map[string]string{APIKeyName: " from-env "}))
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestResolveAPIKeyMissingNamesBothRemediations(t *testing.T) {
	path := writeSecrets(t, "OTHER: x\n")
	_, err := ResolveAPIKeyFrom(path, &SecretsFile{Path: path}, env(map[string]string{APIKeyName: "   "}))
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY is not set")
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "environment variable")
}

func TestResolveAPIKeyMalformedSecretsFile(t *testing.T) {
	path := writeSecrets(t, "- not\n- a\n- mapping\n")
	_, err := ResolveAPIKeyFrom(path, &SecretsFile{Path: path}, env(nil))
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestClientSettingsValidate(t *testing.T) {
	cs := NewClientSettings()
	assert.NoError(t, cs.Validate())

	cs.BaseURL = "http://127.0.0.1:8080/v1"
	assert.Error(t, cs.Validate())

	cs.AllowInsecureBaseURL = true
	assert.NoError(t, cs.Validate())

	c := cs.Clone()
	assert.True(t, c.AllowInsecureBaseURL)
}
