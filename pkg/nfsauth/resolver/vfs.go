package resolver

import (
	"context"
	"errors"
)

// ErrStale is returned by a Volume when an inode identity it was handed
// no longer resolves server-side (spec §7 "stale-inode: retry once").
// The walk in resolver.go treats this specially: it retries the single
// failing Lookup exactly once before giving up with StatusStale. It
// keeps no per-inode cache.
var ErrStale = errors.New("resolver: stale inode")

// Inode is the minimal per-object identity the resolver needs out of
// the volume: enough to build a file handle and to keep walking. The
// real inode/stat/dirent machinery lives in the VFS layer, which is
// explicitly out of scope here (spec §1) — Volume is this package's
// only seam into it.
type Inode struct {
	ID        uint64
	IsDir     bool
	IsSymlink bool
}

// Volume is everything the resolver needs from one exported volume's
// filesystem to walk a path and build handles. A real server wires
// this to its VFS client; tests wire it to an in-memory fixture.
type Volume interface {
	// Root returns the inode identity of the volume's root directory.
	Root(ctx context.Context) (Inode, error)

	// Lookup resolves name within parent. Returns ErrStale if parent's
	// identity is no longer valid server-side.
	Lookup(ctx context.Context, parent Inode, name string) (Inode, error)

	// Readlink returns the link target of a symlink inode. The target
	// may be relative (interpreted relative to the symlink's parent
	// directory, per the original's documented symlink-resolution
	// convention) or absolute.
	Readlink(ctx context.Context, link Inode) (string, error)
}

// VolumeSet resolves a volume name (the export directory's first path
// component) to its Volume implementation.
type VolumeSet interface {
	Volume(name string) (Volume, bool)
}
