package handlers

import (
	"github.com/gluster/nfs-mountauthd/internal/protocol/mount"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/resolver"
)

// wireStatus maps a resolver.Status to its MOUNTv3 mountstat3 wire code
// (spec §7: "Mapping is direct from the underlying POSIX errno... EROFS
// -> ROFS, ESTALE -> STALE"). Kept here, not in the resolver package, so
// the resolver itself never has to import the wire protocol.
func wireStatus(s resolver.Status) int32 {
	switch s {
	case resolver.StatusOK:
		return mount.OK
	case resolver.StatusNoEnt:
		return mount.ErrNoEnt
	case resolver.StatusAccess:
		return mount.ErrAccess
	case resolver.StatusNotDir:
		return mount.ErrNotDir
	case resolver.StatusInval:
		return mount.ErrInval
	case resolver.StatusROFS:
		return mount.ErrROFS
	case resolver.StatusStale:
		return mount.ErrStale
	case resolver.StatusServerFault:
		return mount.ErrServerFault
	default:
		return mount.ErrServerFault
	}
}
