package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("server", DefaultServer, "")
	fs.String("token", "", "")
	fs.Duration("timeout", DefaultTimeout, "")
	fs.Bool("verbose", false, "")
	fs.Bool("no-ui", false, "")
	return fs
}

func TestOptions_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	v, err := Init(newFlags(), "")
	require.NoError(t, err)

	opts := Options(v)
	assert.Equal(t, DefaultServer, opts.Server)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Empty(t, opts.Token)
	assert.False(t, opts.Verbose)
	assert.False(t, opts.NoUI)
}

func TestOptions_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("server: http://from-file:9000\ntoken: file-token\ntimeout: 5s\nno_ui: true\n"), 0o644))

	t.Setenv("IMPORTCTL_TOKEN", "env-token")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--server", "http://from-flag:7000"}))

	v, err := Init(fs, cfg)
	require.NoError(t, err)
	opts := Options(v)

	assert.Equal(t, "http://from-flag:7000", opts.Server, "flag beats file")
	assert.Equal(t, "env-token", opts.Token, "env beats file")
	assert.Equal(t, 5*time.Second, opts.Timeout, "file beats default")
	assert.True(t, opts.NoUI)
}

func TestInit_ExplicitMissingFile(t *testing.T) {
	_, err := Init(newFlags(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
