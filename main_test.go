package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TEMPLATES_DIR", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseSetFlags(t *testing.T) {
	got, err := parseSetFlags([]string{"PORT=8080", "DATABASE_URL=postgres://u:p@h/db?x=1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"PORT":         "8080",
		"DATABASE_URL": "postgres://u:p@h/db?x=1",
	}, got)

	got, err = parseSetFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"PORT", "=8080", " =x"} {
		_, err := parseSetFlags([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitOrigins(" http://a, ,http://b "))
	assert.Nil(t, splitOrigins(""))
}

func TestTemplatesCommand(t *testing.T) {
	out, err := execute(t, "templates")
	require.NoError(t, err)

	assert.Contains(t, out, "SLUG")
	for _, slug := range []string{"fullstack-web-app", "landing-page", "mobile-app", "api-service"} {
		assert.Contains(t, out, slug)
	}
	assert.NotContains(t, out, "missing")
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "render", "landing-page", "My Site", "--out", dir,
		"--set", "SITE_URL=https://example.org")
	require.NoError(t, err)
	assert.Contains(t, out, "Rendered landing-page")

	pkgJSON, err := os.ReadFile(filepath.Join(dir, "my-site", "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(pkgJSON), `"name": "my-site"`)

	robots, err := os.ReadFile(filepath.Join(dir, "my-site", "public", "robots.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(robots), "Sitemap: https://example.org/sitemap.xml")

	assert.NoDirExists(t, filepath.Join(dir, "my-site", ".git"))
}

func TestRenderCommandRejectsNonEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "my-site"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my-site", "keep.txt"), []byte("x"), 0o644))

	_, err := execute(t, "render", "landing-page", "My Site", "--out", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")
	assert.FileExists(t, filepath.Join(dir, "my-site", "keep.txt"))
}

func TestRenderCommandUnknownTemplate(t *testing.T) {
	_, err := execute(t, "render", "no-such-template", "x", "--out", t.TempDir())
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "scaffoldr version dev\n", out)
}
