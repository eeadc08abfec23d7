package detect

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// walkEntry is one file discovered while walking a root, already resolved
// past any symlink indirection.
type walkEntry struct {
	path string
	info os.FileInfo
}

// walkRoot performs a deterministic, symlink-cycle-safe traversal of root,
// visiting regular files in lexicographic order (spec §5, "emission order
// is deterministic: lexicographic by path"). Symlink cycles terminate via a
// visited-real-path set scoped to a single call (spec §4.2/§6, "honours
// symlink cycles by tracking visited inodes").
//
// root itself failing to list is a hard error (a missing or permission
// denied root is a host-level failure, per spec §4.8). Any subdirectory
// encountered while walking root that fails to list is instead reported to
// onDirError and its subtree is skipped — it never aborts the walk of
// sibling or parent directories (spec §6/§7: unreadable entries are
// skipped, not fatal).
func walkRoot(fsys afero.Fs, root string, onDirError func(path string, err error), visit func(walkEntry) error) error {
	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		return err
	}
	visited := make(map[string]struct{})
	return walkEntries(fsys, root, entries, visited, onDirError, visit)
}

// walkDir lists dir and walks its entries, treating a ReadDir failure as a
// skippable per-subtree error rather than aborting the caller's traversal.
func walkDir(fsys afero.Fs, dir string, visitedReal map[string]struct{}, onDirError func(path string, err error), visit func(walkEntry) error) error {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if onDirError != nil {
			onDirError(dir, err)
		}
		return nil
	}
	return walkEntries(fsys, dir, entries, visitedReal, onDirError, visit)
}

func walkEntries(fsys afero.Fs, dir string, entries []os.FileInfo, visitedReal map[string]struct{}, onDirError func(path string, err error), visit func(walkEntry) error) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())

		if entry.Mode()&os.ModeSymlink != 0 {
			real, resolved := realPath(full)
			if resolved {
				if _, seen := visitedReal[real]; seen {
					continue
				}
				visitedReal[real] = struct{}{}
			}
			target, err := fsys.Stat(full) // Stat follows the symlink.
			if err != nil {
				continue
			}
			if target.IsDir() {
				if err := walkDir(fsys, full, visitedReal, onDirError, visit); err != nil {
					return err
				}
				continue
			}
			if err := visit(walkEntry{path: full, info: target}); err != nil {
				return err
			}
			continue
		}

		if entry.IsDir() {
			if err := walkDir(fsys, full, visitedReal, onDirError, visit); err != nil {
				return err
			}
			continue
		}

		if err := visit(walkEntry{path: full, info: entry}); err != nil {
			return err
		}
	}
	return nil
}

// realPath resolves symlinks for cycle detection. It only succeeds against
// an OS-backed filesystem; virtual filesystems (afero.MemMapFs) never
// report ModeSymlink entries, so this path is unreachable for them.
func realPath(path string) (string, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	return resolved, true
}
