// Package pathctx maps concrete file-system paths to the two placeholder
// roots used by the Build Object Model and back again.
package pathctx

import (
	"path"
	"path/filepath"
	"strings"
)

// Placeholder roots
const (
	SourceDirPlaceholder = "@source_dir@"
	BuildDirPlaceholder  = "@build_dir@"
)

// Context holds the concrete directories of one migration run.
type Context struct {
	// SourceDir is the project source root, replaced by @source_dir@.
	SourceDir string
	// BuildDir is the directory qmake ran in, replaced by @build_dir@.
	BuildDir string
	// WorkingDir is the default base for relative paths.
	// It may itself be placeholder-rooted. Empty means SourceDir.
	WorkingDir string
}

// New creates a Context with cleaned, slash-separated directories.
func New(sourceDir, buildDir string) *Context {
	return &Context{
		SourceDir: cleanDir(sourceDir),
		BuildDir:  cleanDir(buildDir),
	}
}

func cleanDir(dir string) string {
	if dir == "" {
		return ""
	}
	return path.Clean(filepath.ToSlash(dir))
}

// IsPlaceholder reports whether p is already rooted at a placeholder.
func IsPlaceholder(p string) bool {
	return hasRoot(p, SourceDirPlaceholder) || hasRoot(p, BuildDirPlaceholder)
}

func hasRoot(p, root string) bool {
	return p == root || strings.HasPrefix(p, root+"/")
}

// NormalizePath returns raw rooted at a placeholder when it lies under the
// source or build directory.
//
// Relative paths are joined with workingDir (or the Context's WorkingDir,
// then SourceDir, when workingDir is empty) unless ignoreWorkingDir is set,
// in which case they are only cleaned. Placeholder-rooted input is returned
// cleaned but otherwise unchanged, so normalization is idempotent.
func (c *Context) NormalizePath(raw, workingDir string, ignoreWorkingDir bool) string {
	p := strings.TrimSpace(filepath.ToSlash(raw))
	if p == "" {
		return ""
	}
	if IsPlaceholder(p) {
		return path.Clean(p)
	}

	if !path.IsAbs(p) && !ignoreWorkingDir {
		base := workingDir
		if base == "" {
			base = c.WorkingDir
		}
		if base == "" {
			base = c.SourceDir
		}
		if base != "" {
			p = path.Join(filepath.ToSlash(base), p)
		}
	}
	p = path.Clean(p)

	if IsPlaceholder(p) {
		return p
	}
	return c.toPlaceholder(p)
}

// Normalize is NormalizePath against the Context's own working directory.
func (c *Context) Normalize(raw string) string {
	return c.NormalizePath(raw, "", false)
}

// toPlaceholder replaces the longest matching concrete root.
// The build directory is frequently nested in the source directory, so the
// longer root is tried first.
func (c *Context) toPlaceholder(p string) string {
	type root struct {
		dir         string
		placeholder string
	}
	roots := []root{
		{c.SourceDir, SourceDirPlaceholder},
		{c.BuildDir, BuildDirPlaceholder},
	}
	if len(c.BuildDir) > len(c.SourceDir) {
		roots[0], roots[1] = roots[1], roots[0]
	}
	for _, r := range roots {
		if r.dir == "" {
			continue
		}
		if p == r.dir {
			return r.placeholder
		}
		if r.dir == "/" {
			continue
		}
		if strings.HasPrefix(p, r.dir+"/") {
			return r.placeholder + p[len(r.dir):]
		}
	}
	return p
}

// Resolve replaces a placeholder root with the concrete directory.
// Paths without a placeholder are returned unchanged.
func (c *Context) Resolve(p string) string {
	switch {
	case hasRoot(p, SourceDirPlaceholder):
		return c.SourceDir + strings.TrimPrefix(p, SourceDirPlaceholder)
	case hasRoot(p, BuildDirPlaceholder):
		return c.BuildDir + strings.TrimPrefix(p, BuildDirPlaceholder)
	default:
		return p
	}
}

// Base returns the last element of p.
func Base(p string) string {
	return path.Base(p)
}

// Stem returns the last element of p without its final extension.
func Stem(p string) string {
	base := path.Base(p)
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// Ext returns the final extension of p including the dot.
func Ext(p string) string {
	return path.Ext(p)
}

// Join joins placeholder-rooted or concrete path elements with forward slashes.
func Join(elem ...string) string {
	return path.Join(elem...)
}
