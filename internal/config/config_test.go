package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_FullDocument(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
connection:
  host: db.example.com
  port: 5433
  username: app
  password: IAM
  database: orders
  app_name: orders-worker
  sslmode: require
  aws_region: eu-west-1
query_dir: queries
tunnel:
  ssh_host: bastion.example.com
  ssh_user: deploy
  key_path: ~/.ssh/id_ed25519
`)

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "db.example.com", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "IAM", cfg.Connection.Password)
	assert.Equal(t, "eu-west-1", cfg.Connection.AWSRegion)
	assert.Equal(t, "queries", cfg.QueryDir)
	require.NotNil(t, cfg.Tunnel)
	assert.Equal(t, "bastion.example.com", cfg.Tunnel.SSHHost)
}

func TestLoad_EnvPrefixOnly(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "env_prefix: PROD\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "PROD", cfg.EnvPrefix)
	assert.Empty(t, cfg.Connection.Host)
	assert.Nil(t, cfg.Tunnel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "connection: [not a mapping")

	_, err := Load(dir)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigNotFound)
}
