package main

import (
	"errors"
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/la2dat/internal/config"
	"github.com/udisondev/la2dat/internal/format"
)

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags(nil, io.Discard)
	require.NoError(t, err)

	cfg := config.DefaultBuilder()
	opts.apply(&cfg)
	assert.Equal(t, config.DefaultBuilder(), cfg, "no flags leave the config untouched")
}

func TestParseFlags_Apply(t *testing.T) {
	opts, err := parseFlags([]string{
		"-config", "custom.yaml",
		"-no-info", "-no-spoils", "-vip",
		"-drop_display", "fraction",
		"-provider", "postgres",
		"-codec", "text",
	}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", opts.configPath)

	cfg := config.DefaultBuilder()
	opts.apply(&cfg)
	assert.False(t, cfg.Categories.Information.Include)
	assert.True(t, cfg.Categories.Drop.Include)
	assert.False(t, cfg.Categories.Spoil.Include)
	assert.True(t, cfg.VIP.Enabled)
	assert.Equal(t, string(format.DisplayFraction), cfg.DropDisplay)
	assert.Equal(t, config.ProviderPostgres, cfg.Provider)
	assert.Equal(t, config.CodecText, cfg.Codec)
	assert.NoError(t, cfg.Validate())
}

func TestParseFlags_InvalidDisplayFailsValidation(t *testing.T) {
	opts, err := parseFlags([]string{"-drop_display", "ratio"}, io.Discard)
	require.NoError(t, err)

	cfg := config.DefaultBuilder()
	opts.apply(&cfg)
	assert.ErrorIs(t, cfg.Validate(), format.ErrInvalidDisplayMode)
}

func TestParseFlags_AllCategoriesDisabled(t *testing.T) {
	opts, err := parseFlags([]string{"-no-info", "-no-drops", "-no-spoils"}, io.Discard)
	require.NoError(t, err)

	cfg := config.DefaultBuilder()
	opts.apply(&cfg)
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
}

func TestParseFlags_Errors(t *testing.T) {
	_, err := parseFlags([]string{"-h"}, io.Discard)
	assert.True(t, errors.Is(err, flag.ErrHelp))

	_, err = parseFlags([]string{"-unknown"}, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"extra"}, io.Discard)
	assert.Error(t, err)
}

func TestOptions_CheckStore(t *testing.T) {
	opts, err := parseFlags([]string{"-store", "-provider", "postgres"}, io.Discard)
	require.NoError(t, err)

	cfg := config.DefaultBuilder()
	opts.apply(&cfg)
	assert.ErrorIs(t, opts.check(cfg), config.ErrInvalidConfig)

	opts, err = parseFlags([]string{"-store"}, io.Discard)
	require.NoError(t, err)
	cfg = config.DefaultBuilder()
	opts.apply(&cfg)
	assert.NoError(t, opts.check(cfg))
}
