package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjansen/bpmn-to-image/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	require := require.New(t)

	path := writeFile(t, "bpmn-to-image.hcl", `
min_dimensions = "800x600"
title          = false
scale          = 2
dmn_view       = "decision"
log_level      = "debug"

journal {
  table    = "runs"
  endpoint = "http://localhost:8000"
}
`)
	f, err := config.Load(path)
	require.NoError(err)

	flags := f.Flags()
	require.Equal("800x600", *flags.MinDimensions)
	require.False(*flags.Title)
	require.Nil(flags.Footer)
	require.Equal(2.0, *flags.Scale)
	require.Equal("decision", *flags.DMNView)

	level, format := f.LogSettings()
	require.Equal("debug", level)
	require.Empty(format)

	table, region, endpoint := f.JournalSettings()
	require.Equal("runs", table)
	require.Equal("http://localhost:8000", endpoint)
	require.Empty(region)
}

func TestLoadJSON(t *testing.T) {
	require := require.New(t)

	path := writeFile(t, "bpmn-to-image.json", `{"footer": false}`)
	f, err := config.Load(path)
	require.NoError(err)
	require.False(*f.Flags().Footer)
	require.Nil(f.Journal)
}

func TestLoadRejectsUnknownAttributes(t *testing.T) {
	require := require.New(t)

	path := writeFile(t, "bpmn-to-image.hcl", `colour = "blue"`)
	_, err := config.Load(path)
	require.Error(err)
}

func TestNilFile(t *testing.T) {
	require := require.New(t)

	var f *config.File
	require.Equal((&config.File{}).Flags(), f.Flags())
	table, _, _ := f.JournalSettings()
	require.Empty(table)
}
