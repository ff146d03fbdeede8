package config

import (
	"fmt"
	"os"

	"github.com/gluster/nfs-mountauthd/internal/bytesize"
)

// CheckFileSize stats path and rejects it if larger than limit. Called
// by cmd/nfsmountauthd before handing the exports file, netgroups
// file, or rmtab to their respective parsers, so a pathologically
// large file is rejected with a clear error instead of being read in
// full by a scanner with no size bound.
func CheckFileSize(path string, limit bytesize.ByteSize, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Absence is the caller's concern (e.g. an empty
			// mount_rmtab disables rmtab persistence); a missing
			// file is not a size violation.
			return nil
		}
		return fmt.Errorf("stat %s %q: %w", what, path, err)
	}

	size := bytesize.ByteSize(info.Size())
	if size > limit {
		return fmt.Errorf("%s %q is %s, exceeds limit of %s", what, path, size, limit)
	}
	return nil
}
