// Package pathhash provides the one stable, non-cryptographic hash used
// to derive both the export-uuid and the mount-uuid (spec.md §3): in
// each case, a 128-bit identifier computed from a path string with
// leading slashes stripped.
package pathhash

import (
	"hash/fnv"
	"strings"

	"github.com/google/uuid"
)

// CollisionMarker is the reserved value spec.md §8 invariant 14 calls
// out: an identifier that always fails a uuid-indexed lookup. A path
// whose hash equals it is kept out of the uuid index and is reachable
// by path only.
var CollisionMarker = uuid.UUID{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}

// UUID hashes path, stripped of leading slashes, into a 128-bit
// identifier using fnv.New128a — the standard library's stable
// non-cryptographic hash, matching the width spec.md asks for with no
// padding step needed.
func UUID(path string) uuid.UUID {
	trimmed := strings.TrimLeft(path, "/")
	h := fnv.New128a()
	_, _ = h.Write([]byte(trimmed))

	var id uuid.UUID
	copy(id[:], h.Sum(nil))
	return id
}

// IsCollisionMarker reports whether id is the reserved sentinel value.
func IsCollisionMarker(id uuid.UUID) bool {
	return id == CollisionMarker
}
