// Package syntheticvolume is the default resolver.VolumeSet this core
// wires when no real VFS translator is embedded. The VFS layer proper
// is explicitly out of scope (spec.md §1) — resolver.Volume is the
// seam a real server fills in with its actual brick/store client — but
// a runnable cmd/nfsmountauthd still needs something behind that seam
// to answer whole-export MNT requests end to end.
//
// Root() derives a stable synthetic inode identity from the volume
// name via pkg/nfsauth/pathhash, the same hash the Exports Model uses
// for export-uuid. Lookup and Readlink always fail: a subdirectory
// mount or a symlink-chasing walk needs the real filesystem this
// package deliberately doesn't have, so those requests surface as
// MNT3ERR_STALE rather than silently fabricating a path. A deployment
// that needs subdirectory mounts to actually work supplies its own
// resolver.VolumeSet backed by its real VFS translator instead of this
// one.
package syntheticvolume

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/pathhash"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/resolver"
)

// errNoVFS is returned by Readlink, which this stand-in can't actually
// perform. The resolver reports a Readlink error as StatusServerFault;
// Lookup returns resolver.ErrStale instead.
var errNoVFS = errors.New("syntheticvolume: no VFS backend wired for this volume")

// VolumeSet resolves any name in Names to a synthetic Volume; every
// other name is unknown.
type VolumeSet struct {
	Names map[string]bool
}

// New constructs a VolumeSet recognizing exactly the given volume
// names.
func New(names map[string]bool) *VolumeSet {
	return &VolumeSet{Names: names}
}

func (s *VolumeSet) Volume(name string) (resolver.Volume, bool) {
	if !s.Names[name] {
		return nil, false
	}
	return volume{name: name}, true
}

type volume struct{ name string }

func (v volume) Root(context.Context) (resolver.Inode, error) {
	return resolver.Inode{ID: inodeFromName(v.name), IsDir: true}, nil
}

func (v volume) Lookup(context.Context, resolver.Inode, string) (resolver.Inode, error) {
	return resolver.Inode{}, resolver.ErrStale
}

func (v volume) Readlink(context.Context, resolver.Inode) (string, error) {
	return "", errNoVFS
}

// inodeFromName derives a 64-bit inode identity from the volume's
// 128-bit path hash: stable across restarts, unique per volume name.
func inodeFromName(name string) uint64 {
	id := pathhash.UUID(name)
	return binary.BigEndian.Uint64(id[:8])
}
