package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gomdview/internal/cli"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GOMDVIEW_CONFIG", "")
	t.Setenv("NO_COLOR", "1")
}

func testBuildInfo() cli.BuildInfo {
	return cli.BuildInfo{Version: "test", Commit: "none", Date: "unknown"}
}

func TestRootCommandStructure(t *testing.T) {
	root := cli.NewRootCommand(testBuildInfo())

	assert.Equal(t, "gomdview [file]", root.Use)
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("color"))

	for _, name := range []string{
		"theme", "mode", "flavor", "highlight-style", "idle-flush",
		"sanitize", "detect-language", "serve", "output", "title",
	} {
		assert.NotNil(t, root.Flags().Lookup(name), "missing flag %s", name)
	}

	var hasVersion bool
	for _, sub := range root.Commands() {
		if sub.Name() == "version" {
			hasVersion = true
		}
	}
	assert.True(t, hasVersion)
}

func TestViewFileWritesOutput(t *testing.T) {
	isolateConfig(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "doc.md")
	output := filepath.Join(dir, "doc.html")
	require.NoError(t, os.WriteFile(input, []byte("# Hello\n\nSome *text*.\n"), 0644))

	root := cli.NewRootCommand(testBuildInfo())
	root.SetArgs([]string{input, "--output", output})
	root.SetContext(context.Background())

	require.NoError(t, root.Execute())

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1 id=\"hello\">Hello</h1>")
	assert.Contains(t, string(html), "<title>doc.md</title>")
	assert.Contains(t, string(html), "<!DOCTYPE html>")
}

func TestViewFileSourceMode(t *testing.T) {
	isolateConfig(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "doc.md")
	output := filepath.Join(dir, "doc.html")
	require.NoError(t, os.WriteFile(input, []byte("# Hello\n"), 0644))

	root := cli.NewRootCommand(testBuildInfo())
	root.SetArgs([]string{input, "--output", output, "--mode", "source"})
	root.SetContext(context.Background())

	require.NoError(t, root.Execute())

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<h1")
	assert.Contains(t, string(html), "(source)")
}

func TestViewMissingFile(t *testing.T) {
	isolateConfig(t)

	root := cli.NewRootCommand(testBuildInfo())
	root.SetArgs([]string{filepath.Join(t.TempDir(), "missing.md")})
	root.SetContext(context.Background())

	require.Error(t, root.Execute())
}

func TestViewRejectsInvalidFlagValue(t *testing.T) {
	isolateConfig(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(input, []byte("hi\n"), 0644))

	root := cli.NewRootCommand(testBuildInfo())
	root.SetArgs([]string{input, "--theme", "sepia"})
	root.SetContext(context.Background())

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme")
}

func TestHelpOutput(t *testing.T) {
	isolateConfig(t)

	var out bytes.Buffer
	root := cli.NewRootCommand(testBuildInfo())
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})

	require.NoError(t, root.Execute())

	help := out.String()
	assert.Contains(t, help, "Usage:")
	assert.Contains(t, help, "--serve")
	assert.Contains(t, help, "renders Markdown to styled HTML")
}
