package pathctx

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gomigrator/cache"
)

func TestNormalizePath(t *testing.T) {
	ctx := New("/project/src", "/project/src/build")

	tests := []struct {
		name       string
		raw        string
		workingDir string
		ignore     bool
		want       string
	}{
		{"relative joined with source dir", "main.cpp", "", false, "@source_dir@/main.cpp"},
		{"relative joined with working dir", "moc_main.cpp", "/project/src/build/moc", false, "@build_dir@/moc/moc_main.cpp"},
		{"placeholder working dir", "ui_dialog.h", "@build_dir@/uic", false, "@build_dir@/uic/ui_dialog.h"},
		{"absolute under source", "/project/src/lib/a.cpp", "", false, "@source_dir@/lib/a.cpp"},
		{"nested build dir wins", "/project/src/build/output.o", "", false, "@build_dir@/output.o"},
		{"exact root", "/project/src", "", false, "@source_dir@"},
		{"outside both roots", "/usr/include/qt5", "", false, "/usr/include/qt5"},
		{"sibling prefix is not a root", "/project/srcfoo/a.cpp", "", false, "/project/srcfoo/a.cpp"},
		{"ignore working dir keeps relative", "fmt", "", true, "fmt"},
		{"dot segments cleaned", "lib/../main.cpp", "", false, "@source_dir@/main.cpp"},
		{"empty", "  ", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ctx.NormalizePath(tt.raw, tt.workingDir, tt.ignore))
		})
	}
}

func TestNormalizePath_Idempotent(t *testing.T) {
	ctx := New("/project/src", "/project/build")

	for _, p := range []string{
		"@source_dir@/main.cpp",
		"@build_dir@/moc/moc_main.cpp",
		"@source_dir@",
		"@build_dir@/_build",
	} {
		t.Run(p, func(t *testing.T) {
			once := ctx.NormalizePath(p, "/elsewhere", false)
			assert.Equal(t, p, once)
			assert.Equal(t, once, ctx.NormalizePath(once, "", true))
		})
	}
}

func TestNormalizePath_WorkingDirDefaults(t *testing.T) {
	ctx := New("/project/src", "/project/build")
	ctx.WorkingDir = "/project/src/sub"

	assert.Equal(t, "@source_dir@/sub/a.cpp", ctx.Normalize("a.cpp"))
}

func TestResolve(t *testing.T) {
	ctx := New("/project/src", "/project/build")

	assert.Equal(t, "/project/src/main.cpp", ctx.Resolve("@source_dir@/main.cpp"))
	assert.Equal(t, "/project/build", ctx.Resolve("@build_dir@"))
	assert.Equal(t, "/usr/lib/libGL.so", ctx.Resolve("/usr/lib/libGL.so"))
	assert.Equal(t, "relative", ctx.Resolve("relative"))

	p := ctx.NormalizePath("/project/build/moc/moc_a.cpp", "", false)
	assert.Equal(t, "/project/build/moc/moc_a.cpp", ctx.Resolve(p))
}

func TestStemAndExt(t *testing.T) {
	assert.Equal(t, "bar", Stem("foo/bar.h"))
	assert.Equal(t, "archive.tar", Stem("archive.tar.gz"))
	assert.Equal(t, ".hidden", Stem("dir/.hidden"))
	assert.Equal(t, ".pri", Ext("@source_dir@/common.pri"))
	assert.Equal(t, "bar.h", Base("foo/bar.h"))
}

func TestFileReader_ReadsAndCaches(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.h"), []byte("Q_OBJECT"), 0o644))

	ctx := New(src, t.TempDir())
	mc := cache.NewMemoryCache(10, 1024)
	r := NewFileReader(ctx, WithCache(mc))

	content, err := r.ReadFile("@source_dir@/main.h")
	require.NoError(t, err)
	assert.Equal(t, "Q_OBJECT", string(content))

	// Remove the file: the second read must come from the cache.
	require.NoError(t, os.Remove(filepath.Join(src, "main.h")))
	content, err = r.ReadFile("@source_dir@/main.h")
	require.NoError(t, err)
	assert.Equal(t, "Q_OBJECT", string(content))
	assert.Equal(t, 1, r.CacheStats().Hits)
}

func TestFileReader_Unavailable(t *testing.T) {
	ctx := New(t.TempDir(), t.TempDir())
	r := NewFileReader(ctx)

	_, err := r.ReadFile("@source_dir@/absent.h")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))

	// Negative result is cached too.
	_, err = r.ReadFile("@source_dir@/absent.h")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestFileReader_Exists(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "libfoo.a"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(src, "dir"), 0o755))

	r := NewFileReader(New(src, t.TempDir()))
	assert.True(t, r.Exists("@source_dir@/libfoo.a"))
	assert.True(t, r.Exists(filepath.Join(src, "libfoo.a")))
	assert.False(t, r.Exists("@source_dir@/dir"))
	assert.False(t, r.Exists("@source_dir@/missing.a"))
}

func TestMapReader(t *testing.T) {
	r := NewMapReader(map[string]string{"@source_dir@/a.h": "x"})

	content, err := r.ReadFile("@source_dir@/a.h")
	require.NoError(t, err)
	assert.Equal(t, "x", string(content))

	_, err = r.ReadFile("@source_dir@/b.h")
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.True(t, r.Exists("@source_dir@/a.h"))
	assert.Equal(t, 1, r.Reads("@source_dir@/a.h"))
}
