package rules

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Entity is a filesystem node as seen by the walk.
type Entity struct {
	// Path is the absolute path the walk reached the entity by.
	Path string

	// CanonicalPath is Path with every symbolic link resolved.
	CanonicalPath string

	// Info describes the resolved target (symbolic links are followed).
	Info fs.FileInfo
}

// IsDir reports whether the entity (or the target of a link to it) is a directory.
func (e Entity) IsDir() bool {
	return e.Info != nil && e.Info.IsDir()
}

// Name returns the last element of the entity path.
func (e Entity) Name() string {
	return filepath.Base(e.Path)
}

// Context is the per-node view handed to tests and mapping templates. The entity
// and root never change; the ignored flag starts as the parent's value and may be
// raised by an exclude rule.
type Context struct {
	entity  Entity
	root    string
	ignored bool
}

// NewContext creates a context for entity under the traversal root.
func NewContext(entity Entity, root string, ignored bool) *Context {
	return &Context{entity: entity, root: root, ignored: ignored}
}

// Entity returns the filesystem entity.
func (c *Context) Entity() Entity { return c.entity }

// Path returns the absolute path of the entity.
func (c *Context) Path() string { return c.entity.Path }

// Root returns the top of the traversal.
func (c *Context) Root() string { return c.root }

// IsDir reports whether the entity is a directory.
func (c *Context) IsDir() bool { return c.entity.IsDir() }

// Info returns the file info of the entity.
func (c *Context) Info() fs.FileInfo { return c.entity.Info }

// Ignored reports whether mapping is suppressed for this entity.
func (c *Context) Ignored() bool { return c.ignored }

// SetIgnored marks the entity, and through inheritance its descendants, as ignored.
func (c *Context) SetIgnored(ignored bool) { c.ignored = ignored }

// Parent returns the directory containing the entity.
func (c *Context) Parent() string { return filepath.Dir(c.entity.Path) }

// IsRoot reports whether the entity is the traversal root.
func (c *Context) IsRoot() bool {
	return filepath.Clean(c.entity.Path) == filepath.Clean(c.root)
}

// RelativePath returns the slash separated path of the entity relative to the root.
// The root itself is ".".
func (c *Context) RelativePath() string {
	rel, err := filepath.Rel(c.root, c.entity.Path)
	if err != nil {
		return filepath.ToSlash(c.entity.Path)
	}
	return filepath.ToSlash(rel)
}

// Depth returns how many directory levels the entity sits below the root.
func (c *Context) Depth() int {
	rel := c.RelativePath()
	if rel == "." {
		return 0
	}
	return strings.Count(rel, "/") + 1
}
