package fs

import (
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"forge/internal/core/domain"
)

// Resolve walks set against the real file system rooted at root, yielding
// one domain.ResolvedEntity per explicit file and per directory touched,
// depth-first for recursive directories (spec glossary, "resolve()"). A
// recursive directory yields an entity for itself and for every
// subdirectory beneath it, each carrying only its own filtered immediate
// children — so deleting a file two levels down changes the hash of the
// directory that directly contained it, without requiring every file's
// digest to be tracked individually.
//
// The returned sequence is lazy: each range over it walks the file system
// afresh.
func Resolve(root string, set domain.FileSet) iter.Seq[domain.ResolvedEntity] {
	return func(yield func(domain.ResolvedEntity) bool) {
		for _, f := range set.Files {
			if !yield(domain.ResolvedEntity{Path: f, IsDir: false}) {
				return
			}
		}
		for _, d := range set.Dirs {
			if !resolveDir(root, d, yield) {
				return
			}
		}
	}
}

// resolveDir yields d's entity and, if d.Recurse, its subdirectories'
// entities depth-first. Returns false if yield asked to stop.
func resolveDir(root string, d domain.DirectoryEntry, yield func(domain.ResolvedEntity) bool) bool {
	abs := filepath.Join(root, filepath.FromSlash(d.Path))
	entries, err := os.ReadDir(abs)
	if err != nil {
		// A directory named by the build but absent on disk resolves to an
		// empty entity rather than aborting the whole walk; RunCondition
		// and the cache treat "now empty" like any other content change.
		return yield(domain.ResolvedEntity{Path: d.Path, IsDir: true})
	}

	children := filteredChildNames(entries, d)
	if !yield(domain.ResolvedEntity{Path: d.Path, IsDir: true, Children: children}) {
		return false
	}
	if !d.Recurse {
		return true
	}

	subdirs := make([]os.DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e)
		}
	}
	sort.Slice(subdirs, func(i, j int) bool { return subdirs[i].Name() < subdirs[j].Name() })

	for _, e := range subdirs {
		if !d.IncludeHidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if containsName(d.Exclusions, e.Name()) {
			continue
		}
		child := d
		child.Path = path.Join(d.Path, e.Name())
		if !resolveDir(root, child, yield) {
			return false
		}
	}
	return true
}

// filteredChildNames returns the sorted basenames of entries passing d's
// hidden/exclusion/extension filters, applied at this single directory
// level (extensions only constrain files, never subdirectory names).
func filteredChildNames(entries []os.DirEntry, d domain.DirectoryEntry) []string {
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !d.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if containsName(d.Exclusions, name) {
			continue
		}
		if !e.IsDir() && !matchesExtension(d.Extensions, name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func matchesExtension(exts []string, name string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

func containsName(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

// HashResolved computes the content digest for a single ResolvedEntity:
// a file's content hash, or a directory's structural listing hash.
func HashResolved(h *Hasher, root string, entity domain.ResolvedEntity) (Digest, error) {
	if entity.IsDir {
		return h.HashDirListing(entity.Children), nil
	}
	abs := filepath.Join(root, filepath.FromSlash(entity.Path))
	info, err := os.Lstat(abs)
	if err != nil {
		return "", domain.WrapStatFailed(err, entity.Path)
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(abs)
		if err != nil {
			return "", domain.WrapStatFailed(err, entity.Path)
		}
		return h.HashText("symlink:" + target), nil
	}
	return h.HashFile(abs)
}
