package services

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/scaffoldr/pkg"
)

func TestFilesService(t *testing.T) {
	e := newEnv(t)
	svc := NewFilesService(e.projects, e.layout)
	ctx := context.Background()

	u := e.user(t, "a@b.co")
	p := readyProject(t, e, u.ID, "Files")

	dir := e.layout.ProjectPath(u.ID, p.Slug)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "x"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Files\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.ts"), []byte("main()"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0xff, 0xfe, 0x00}, 0o644))

	t.Run("tree", func(t *testing.T) {
		tree, err := svc.Tree(ctx, u.ID, p.ID)
		require.NoError(t, err)

		var names []string
		for _, n := range tree.Structure {
			names = append(names, n.Name)
		}
		assert.ElementsMatch(t, []string{"README.md", "logo.png", "src"}, names)
	})

	t.Run("zip", func(t *testing.T) {
		project, err := svc.Prepare(ctx, u.ID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "files", project.Slug)

		var buf bytes.Buffer
		require.NoError(t, svc.WriteZip(ctx, u.ID, p.ID, &buf))

		zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		var names []string
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		assert.Contains(t, names, "src/main.ts")
	})

	t.Run("file content", func(t *testing.T) {
		fc, err := svc.FileContent(ctx, u.ID, p.ID, "src/main.ts")
		require.NoError(t, err)
		assert.Equal(t, "main()", fc.Content)
		assert.Equal(t, int64(6), fc.Size)
		assert.Equal(t, "src/main.ts", fc.Path)
		assert.False(t, fc.Modified.IsZero())
	})

	t.Run("file content errors", func(t *testing.T) {
		for path, want := range map[string]error{
			"":                 pkg.ErrBadRequest,
			"../../etc/passwd": pkg.ErrBadRequest,
			"/etc/passwd":      pkg.ErrBadRequest,
			"src":              pkg.ErrBadRequest,
			"logo.png":         pkg.ErrBadRequest,
			"missing.txt":      pkg.ErrNotFound,
		} {
			_, err := svc.FileContent(ctx, u.ID, p.ID, path)
			assert.ErrorIs(t, err, want, path)
		}
	})

	t.Run("other user", func(t *testing.T) {
		_, err := svc.Tree(ctx, "someone-else", p.ID)
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})
}

func TestFilesService_RequiresReady(t *testing.T) {
	e := newEnv(t)
	svc := NewFilesService(e.projects, e.layout)
	ctx := context.Background()

	u := e.user(t, "a@b.co")
	p := e.project(t, u.ID, "landing-page", "Draft")

	_, err := svc.Tree(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, pkg.ErrConflict)

	_, err = svc.FileContent(ctx, u.ID, p.ID, "README.md")
	assert.ErrorIs(t, err, pkg.ErrConflict)

	ready := readyProject(t, e, u.ID, "No Files")
	_, err = svc.Prepare(ctx, u.ID, ready.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound, "ready but output directory missing")
}

