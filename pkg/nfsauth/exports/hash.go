package exports

import (
	"github.com/google/uuid"

	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/pathhash"
)

// ExportUUID derives the 128-bit export-uuid for path (spec §3): the
// same stable path hash used for mount-uuids, applied to the export
// directory's own path instead of the authorized mount path.
func ExportUUID(path string) uuid.UUID {
	return pathhash.UUID(path)
}

// IsCollisionMarker reports whether id is the reserved sentinel value
// that always fails auth-by-uuid lookup.
func IsCollisionMarker(id uuid.UUID) bool {
	return pathhash.IsCollisionMarker(id)
}

var collisionMarker = pathhash.CollisionMarker
