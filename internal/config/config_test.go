package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub", DefaultDBName), cfg.DBPath)
	assert.Equal(t, DefaultAgendaLimit, cfg.AgendaLimit)
	assert.Equal(t, "tab", cfg.Keys.SwitchView)

	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreate_FillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)
	data := `
agenda_limit = 0
horizon_days = -3

[keys]
quit = "x"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultDBName), cfg.DBPath)
	assert.Equal(t, DefaultAgendaLimit, cfg.AgendaLimit)
	assert.Zero(t, cfg.HorizonDays)
	assert.Equal(t, "x", cfg.Keys.Quit)
	assert.Equal(t, "s", cfg.Keys.Skip)
}

func TestLoadOrCreate_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("agenda_limit = ["), 0o644))

	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}

func TestResolveConfigPath_Env(t *testing.T) {
	t.Setenv(envConfigPath, "/etc/quest.toml")
	assert.Equal(t, "/etc/quest.toml", ResolveConfigPath())
}
