// Package handle defines the NFSv3 file handle carried between a
// successful mount or path resolution and every subsequent per-operation
// authorization check (spec.md §3 "File handle").
package handle

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/pathhash"
)

// wireSize is the on-the-wire length of a marshaled FileHandle: two
// 128-bit uuids plus a 64-bit inode identity (spec §6, "MOUNTv3 wire
// (compatibility requirement)").
const wireSize = 16 + 16 + 8

// FileHandle carries an export-uuid, a mount-uuid, and the target
// inode identity. The mount-uuid is derived from the *authorized* path,
// which may be a parent of the path the client actually requested when
// access was granted via parent-path escalation (spec §4.E step 5) —
// it is therefore not always equal to MountUUID(requestedPath).
type FileHandle struct {
	ExportUUID uuid.UUID
	MountUUID  uuid.UUID
	Inode      uint64
}

// MountUUID hashes authorizedPath the same way ExportUUID hashes an
// export directory's path — the two use one shared algorithm
// (pathhash.UUID) over two different kinds of path.
func MountUUID(authorizedPath string) uuid.UUID {
	return pathhash.UUID(authorizedPath)
}

// Marshal serializes fh as the opaque byte payload the MOUNTv3 MNT
// reply carries: export-uuid, then mount-uuid, then the inode id as a
// big-endian uint64. The wire layer (internal/protocol/mount) treats
// this as opaque data; only this package and its tests know the
// layout.
func (fh FileHandle) Marshal() []byte {
	b := make([]byte, wireSize)
	copy(b[0:16], fh.ExportUUID[:])
	copy(b[16:32], fh.MountUUID[:])
	binary.BigEndian.PutUint64(b[32:40], fh.Inode)
	return b
}

// Unmarshal parses a FileHandle from the opaque payload of a client's
// NFS request (the "fh" argument of every per-operation wire call),
// the inverse of Marshal.
func Unmarshal(b []byte) (FileHandle, error) {
	if len(b) != wireSize {
		return FileHandle{}, fmt.Errorf("file handle: want %d bytes, got %d", wireSize, len(b))
	}
	var fh FileHandle
	copy(fh.ExportUUID[:], b[0:16])
	copy(fh.MountUUID[:], b[16:32])
	fh.Inode = binary.BigEndian.Uint64(b[32:40])
	return fh, nil
}
