package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsAndProviders(t *testing.T) {
	path := writeConfig(t, `
env: local
providers:
  openai:
    model: gpt-4o
    fallback_models: "gpt-4o-mini, gpt-4-turbo"
  perplexity:
    model: sonar-pro
`)

	cfg, err := Load(path, "test-version")
	require.NoError(t, err)

	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "8090", cfg.Port)
	assert.False(t, cfg.Auth.EnableVerification, "auth defaults off")

	assert.Equal(t, "gpt-4o", cfg.Providers.OpenAI.Model)
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-4-turbo"}, cfg.Providers.OpenAI.FallbackModels)
	assert.Nil(t, cfg.Providers.Perplexity.FallbackModels)
}

func TestLoad_SecretsComeFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
	t.Setenv("PGPASSWORD", "db-secret")

	cfg, err := Load(writeConfig(t, "env: local\n"), "v")
	require.NoError(t, err)

	assert.Equal(t, "sk-test-key", cfg.Providers.OpenAI.APIKey)
	assert.Contains(t, cfg.Database.ConnectionString(), "password=db-secret")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "v")
	assert.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "svc",
		Password: "pw", Database: "raag_engine", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=svc password=pw dbname=raag_engine sslmode=require",
		c.ConnectionString())
}

func TestSplitModels(t *testing.T) {
	assert.Nil(t, splitModels(""))
	assert.Equal(t, []string{"a", "b"}, splitModels("a, b"))
	assert.Equal(t, []string{"a"}, splitModels(" a , "))
}
