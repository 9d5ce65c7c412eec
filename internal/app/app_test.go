package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heroscope/internal/config"
	"heroscope/internal/marvel"
)

func TestParseFlags(t *testing.T) {
	var out bytes.Buffer
	f, err := ParseFlags([]string{"-c", "/tmp/h.toml", "--demo", "--debug", "--log", "x.log"}, &out)
	require.NoError(t, err)

	assert.Equal(t, Flags{ConfigPath: "/tmp/h.toml", LogPath: "x.log", Demo: true, Debug: true}, f)
}

func TestParseFlagsDefaultsAndHelp(t *testing.T) {
	var out bytes.Buffer
	f, err := ParseFlags(nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "heroscope.log", f.LogPath)
	assert.False(t, f.Demo)

	_, err = ParseFlags([]string{"--help"}, &out)
	assert.ErrorIs(t, err, pflag.ErrHelp)
	assert.Contains(t, out.String(), "Usage: heroscope")
	assert.Contains(t, out.String(), "--demo")
}

func TestNewFetcherFallsBackToDemoWithoutCredentials(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UISettings.DemoLatencyMs = 0

	fetcher, source, err := NewFetcher(cfg, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "demo catalog", source)
	require.IsType(t, &marvel.Catalog{}, fetcher)

	result, err := fetcher.FetchPage(context.Background(), "iron", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)
}

func TestNewFetcherUsesClientWithCredentials(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.PublicKey = "pub"

	fetcher, source, err := NewFetcher(cfg, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.marvel.com", source)
	assert.IsType(t, &marvel.Client{}, fetcher)

	fetcher, _, err = NewFetcher(cfg, true, nil)
	require.NoError(t, err)
	assert.IsType(t, &marvel.Catalog{}, fetcher)
}
