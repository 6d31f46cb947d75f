package domain

import (
	"path"
	"sort"
	"strings"
)

// DirectoryEntry describes a directory consulted by a FileSet, along with
// the filters applied when resolving its contents (spec §4.1).
type DirectoryEntry struct {
	Path          string
	Recurse       bool
	IncludeHidden bool
	Exclusions    []string
	Extensions    []string
}

// normalizedExtensions returns Extensions with a leading "." guaranteed on
// each entry; an empty result means "matches all" (spec §4.1/§9 Open
// Questions: kept as the source's convention, not strict set semantics).
func (d DirectoryEntry) normalizedExtensions() []string {
	if len(d.Extensions) == 0 {
		return nil
	}
	out := make([]string, len(d.Extensions))
	for i, e := range d.Extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out[i] = e
	}
	return out
}

// matchesExtension reports whether basename's suffix matches one of the
// directory's extension filters. Suffix match (not "last dot") lets
// multi-dot extensions like ".pb.go" work as documented in spec §4.1.
func (d DirectoryEntry) matchesExtension(basename string) bool {
	exts := d.normalizedExtensions()
	if len(exts) == 0 {
		return true
	}
	for _, e := range exts {
		if strings.HasSuffix(basename, e) {
			return true
		}
	}
	return false
}

// covers reports whether candidate (a POSIX-canonical path, relative to the
// FileSet's root) falls within scope of this directory entry under its
// recurse/hidden/exclusion/extension filters. isDir distinguishes a
// directory candidate (extension filter does not apply) from a file.
func (d DirectoryEntry) covers(candidate string, isDir bool) bool {
	rel, ok := relativeTo(d.Path, candidate)
	if !ok {
		return false
	}
	if rel == "" {
		// candidate is the directory itself.
		return true
	}
	components := strings.Split(rel, "/")
	if !d.Recurse && len(components) > 1 {
		return false
	}

	basename := components[len(components)-1]
	if !d.IncludeHidden && strings.HasPrefix(basename, ".") {
		return false
	}

	checkComponents := components
	if !d.Recurse {
		checkComponents = components[len(components)-1:]
	}
	for _, c := range checkComponents {
		if containsString(d.Exclusions, c) {
			return false
		}
	}

	if !isDir && !d.matchesExtension(basename) {
		return false
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// relativeTo returns candidate's path relative to root in POSIX form, and
// whether candidate lies at or under root. Both paths are expected
// pre-cleaned, non-absolute, forward-slash separated.
func relativeTo(root, candidate string) (string, bool) {
	root = path.Clean(root)
	candidate = path.Clean(candidate)
	if root == "." || root == "" {
		return candidate, true
	}
	if candidate == root {
		return "", true
	}
	prefix := root + "/"
	if strings.HasPrefix(candidate, prefix) {
		return strings.TrimPrefix(candidate, prefix), true
	}
	return "", false
}

// FileSet is an ordered, declarative collection of explicit files and
// filtered directories (spec §4.1).
type FileSet struct {
	Files []string
	Dirs  []DirectoryEntry
}

// EmptyFileSet is the canonical empty FileSet.
var EmptyFileSet = FileSet{}

// NewFile builds a single-file FileSet.
func NewFile(path string) FileSet { return FileSet{Files: []string{path}} }

// NewFiles builds a FileSet from explicit file paths.
func NewFiles(paths ...string) FileSet {
	out := make([]string, len(paths))
	copy(out, paths)
	return FileSet{Files: out}
}

// NewDir builds a single-directory FileSet.
func NewDir(p string, opts ...func(*DirectoryEntry)) FileSet {
	d := DirectoryEntry{Path: p}
	for _, o := range opts {
		o(&d)
	}
	return FileSet{Dirs: []DirectoryEntry{d}}
}

// NewDirs builds a FileSet from several directories sharing the same options.
func NewDirs(paths []string, opts ...func(*DirectoryEntry)) FileSet {
	dirs := make([]DirectoryEntry, len(paths))
	for i, p := range paths {
		d := DirectoryEntry{Path: p}
		for _, o := range opts {
			o(&d)
		}
		dirs[i] = d
	}
	return FileSet{Dirs: dirs}
}

// WithRecurse, WithHidden, WithExclusions and WithExtensions are
// DirectoryEntry option constructors for use with NewDir/NewDirs.
func WithRecurse(v bool) func(*DirectoryEntry) {
	return func(d *DirectoryEntry) { d.Recurse = v }
}

func WithHidden(v bool) func(*DirectoryEntry) {
	return func(d *DirectoryEntry) { d.IncludeHidden = v }
}

func WithExclusions(names ...string) func(*DirectoryEntry) {
	return func(d *DirectoryEntry) { d.Exclusions = append(d.Exclusions, names...) }
}

func WithExtensions(exts ...string) func(*DirectoryEntry) {
	return func(d *DirectoryEntry) { d.Extensions = append(d.Extensions, exts...) }
}

// Entities builds a FileSet combining explicit files and directory entries directly.
func Entities(files []string, dirs []DirectoryEntry) FileSet {
	return FileSet{Files: files, Dirs: dirs}
}

// IsEmpty reports whether the FileSet names nothing at all.
func (fs FileSet) IsEmpty() bool {
	return len(fs.Files) == 0 && len(fs.Dirs) == 0
}

// Validate enforces spec §4.1's construction invariants: directory paths
// must be non-absolute, and directories within one FileSet must be
// pairwise disjoint and unique.
func (fs FileSet) Validate() error {
	seen := make(map[string]bool, len(fs.Dirs))
	for _, d := range fs.Dirs {
		if path.IsAbs(d.Path) {
			return withMessage(ErrAbsoluteDirectory, d.Path)
		}
		clean := path.Clean(d.Path)
		if seen[clean] {
			return withMessage(ErrDuplicateDirectory, d.Path)
		}
		seen[clean] = true
	}
	for i, a := range fs.Dirs {
		for j, b := range fs.Dirs {
			if i == j {
				continue
			}
			if _, ok := relativeTo(a.Path, b.Path); ok {
				return withMessage(ErrDuplicateDirectory, a.Path+" overlaps "+b.Path)
			}
		}
	}
	return nil
}

// IncludesFile reports whether path would be selected by fs as a file,
// without touching the file system.
func (fs FileSet) IncludesFile(p string) bool {
	p = path.Clean(p)
	for _, f := range fs.Files {
		if path.Clean(f) == p {
			return true
		}
	}
	for _, d := range fs.Dirs {
		if d.covers(p, false) {
			return true
		}
	}
	return false
}

// IncludesDir reports whether p is, or lies within, one of fs's directories.
func (fs FileSet) IncludesDir(p string) bool {
	p = path.Clean(p)
	for _, d := range fs.Dirs {
		if _, ok := relativeTo(d.Path, p); ok {
			return true
		}
		if _, ok := relativeTo(p, d.Path); ok {
			return true
		}
	}
	return false
}

// Union returns the ordered combination of fs and other, with duplicate
// explicit files and identical directory entries removed.
func (fs FileSet) Union(other FileSet) FileSet {
	out := FileSet{}
	seenFiles := make(map[string]bool)
	for _, f := range append(append([]string{}, fs.Files...), other.Files...) {
		clean := path.Clean(f)
		if seenFiles[clean] {
			continue
		}
		seenFiles[clean] = true
		out.Files = append(out.Files, f)
	}
	seenDirs := make(map[string]bool)
	for _, d := range append(append([]DirectoryEntry{}, fs.Dirs...), other.Dirs...) {
		key := dirKey(d)
		if seenDirs[key] {
			continue
		}
		seenDirs[key] = true
		out.Dirs = append(out.Dirs, d)
	}
	return out
}

func dirKey(d DirectoryEntry) string {
	return strings.Join([]string{
		path.Clean(d.Path),
		boolKey(d.Recurse),
		boolKey(d.IncludeHidden),
		strings.Join(d.Exclusions, ","),
		strings.Join(d.Extensions, ","),
	}, "|")
}

func boolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Intersect returns the paths common to fs and other, following spec
// §4.1's intersection policy: it never touches the file system, and
// treats an empty extension filter as "matches all" on both sides rather
// than strict set semantics (spec §9 Open Questions).
func (fs FileSet) Intersect(other FileSet) FileSet {
	var out FileSet
	fileSeen := make(map[string]bool)

	addFile := func(p string) {
		clean := path.Clean(p)
		if !fileSeen[clean] {
			fileSeen[clean] = true
			out.Files = append(out.Files, p)
		}
	}

	// Rule 1: explicit file in both.
	otherFiles := make(map[string]bool, len(other.Files))
	for _, f := range other.Files {
		otherFiles[path.Clean(f)] = true
	}
	for _, f := range fs.Files {
		if otherFiles[path.Clean(f)] {
			addFile(f)
		}
	}

	// Rule 2: explicit file in one, matching directory in the other.
	for _, f := range fs.Files {
		if other.coveredByAnyDir(f) {
			addFile(f)
		}
	}
	for _, f := range other.Files {
		if fs.coveredByAnyDir(f) {
			addFile(f)
		}
	}

	// Rule 3: directory of one lies within a directory of the other, with
	// a non-empty (or "all") extension-filter intersection.
	for _, a := range fs.Dirs {
		for _, b := range other.Dirs {
			if narrower, ok := overlappingDir(a, b); ok {
				out.Dirs = append(out.Dirs, narrower)
			}
		}
	}

	return out
}

// coveredByAnyDir reports whether p is covered by any directory in fs.
func (fs FileSet) coveredByAnyDir(p string) bool {
	for _, d := range fs.Dirs {
		if d.covers(p, false) {
			return true
		}
	}
	return false
}

// overlappingDir reports whether a and b's directory scopes overlap, and
// if so returns the narrower (more deeply nested) of the two, with the
// intersected extension filter.
func overlappingDir(a, b DirectoryEntry) (DirectoryEntry, bool) {
	extInter, ok := intersectExtensions(a.normalizedExtensions(), b.normalizedExtensions())
	if !ok {
		return DirectoryEntry{}, false
	}

	if rel, ok := relativeTo(a.Path, b.Path); ok {
		_ = rel
		narrower := b
		narrower.Extensions = extInter
		return narrower, true
	}
	if rel, ok := relativeTo(b.Path, a.Path); ok {
		_ = rel
		narrower := a
		narrower.Extensions = extInter
		return narrower, true
	}
	return DirectoryEntry{}, false
}

// intersectExtensions computes the set intersection of two extension
// filters, treating an empty filter as "matches all" per spec §4.1.
func intersectExtensions(a, b []string) ([]string, bool) {
	if len(a) == 0 {
		return b, true
	}
	if len(b) == 0 {
		return a, true
	}
	bSet := make(map[string]bool, len(b))
	for _, e := range b {
		bSet[e] = true
	}
	var out []string
	for _, e := range a {
		if bSet[e] {
			out = append(out, e)
		}
	}
	return out, len(out) > 0
}

// SortedFiles returns a copy of fs.Files sorted lexicographically, used by
// the Hasher's directory-listing hash (spec §4.2).
func SortedFiles(files []string) []string {
	out := append([]string{}, files...)
	sort.Strings(out)
	return out
}

// ResolvedEntity is a concrete file, or a directory with its filtered
// immediate children, produced by resolving a FileSet (spec glossary).
// Resolution itself performs file-system I/O and lives in
// internal/adapters/fs, keeping this type (and FileSet above) pure.
type ResolvedEntity struct {
	Path     string
	IsDir    bool
	Children []string
}
