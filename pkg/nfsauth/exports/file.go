package exports

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxPathLen = 1024

// File is a parsed exports file (spec §3 "Exports file"): a filename,
// a path → Dir map, and a secondary export-uuid → Dir map pointing at
// the same Dir records. Both maps are kept in lockstep by Insert and
// Remove; invariant 1 (spec.md §8) requires a successful Lookup and
// LookupByUUID for the same directory to return the identical object.
type File struct {
	Filename string

	byPath map[string]*Dir
	byUUID map[uuid.UUID]*Dir
}

func newFile(filename string) *File {
	return &File{
		Filename: filename,
		byPath:   make(map[string]*Dir),
		byUUID:   make(map[uuid.UUID]*Dir),
	}
}

// normalizePath prepends a leading '/' if missing and strips a single
// trailing '/', per spec §3/§4.C.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// Insert adds dir, keyed by its (already-normalized) Path and by its
// export-uuid. When the computed uuid is the reserved collision marker,
// or already claims a different directory (a genuine hash collision),
// the uuid-indexed entry is skipped — dir remains reachable by path only,
// matching spec §4.C's "Insert" rule and §8 invariant 14.
func (f *File) Insert(dir *Dir) {
	dir.Path = normalizePath(dir.Path)
	f.byPath[dir.Path] = dir

	id := dir.VolumeID
	if id == (uuid.UUID{}) {
		id = ExportUUID(dir.Path)
	}

	if IsCollisionMarker(id) {
		return
	}
	if existing, ok := f.byUUID[id]; ok && existing != dir {
		return
	}
	f.byUUID[id] = dir
}

// Remove deletes the directory record at path from both maps, keeping
// invariant 1 intact (spec.md §8 invariant 1: "removing an entry must
// remove it from both").
func (f *File) Remove(path string) {
	path = normalizePath(path)
	dir, ok := f.byPath[path]
	if !ok {
		return
	}
	delete(f.byPath, path)

	id := dir.VolumeID
	if id == (uuid.UUID{}) {
		id = ExportUUID(dir.Path)
	}
	if f.byUUID[id] == dir {
		delete(f.byUUID, id)
	}
}

// Lookup returns the Dir exported at path, prepending a leading '/' if
// the caller omitted one. Exact match only — parent escalation is the
// authorizer's job (spec §4.E), not the Exports Model's.
func (f *File) Lookup(path string) (*Dir, bool) {
	dir, ok := f.byPath[normalizePath(path)]
	return dir, ok
}

// LookupByUUID returns the Dir whose export-uuid is id. Used on every
// post-mount file operation, where the file handle carries the uuid
// directly and no path walk is needed.
func (f *File) LookupByUUID(id uuid.UUID) (*Dir, bool) {
	if IsCollisionMarker(id) {
		return nil, false
	}
	dir, ok := f.byUUID[id]
	return dir, ok
}

// Dirs returns every directory record, for the revalidation task to
// iterate.
func (f *File) Dirs() []*Dir {
	dirs := make([]*Dir, 0, len(f.byPath))
	for _, d := range f.byPath {
		dirs = append(dirs, d)
	}
	return dirs
}

// Len reports how many directory records f holds.
func (f *File) Len() int { return len(f.byPath) }

func validatePathLen(path string) error {
	if len(path) > maxPathLen {
		return fmt.Errorf("directory path exceeds %d bytes", maxPathLen)
	}
	return nil
}
