package handlers

import (
	"sort"

	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/exports"
)

// exportGroups lists every group name authorized to mount d: its
// netgroup references and its host patterns, combined and sorted for a
// stable MOUNTPROC3_EXPORT reply (RFC 1813's "groups" has no defined
// ordering, but a deterministic one makes showmount output diffable).
func exportGroups(d *exports.Dir) []string {
	groups := make([]string, 0, len(d.Netgroups)+len(d.Hosts))
	for name := range d.Netgroups {
		groups = append(groups, name)
	}
	for pattern := range d.Hosts {
		groups = append(groups, pattern)
	}
	sort.Strings(groups)
	return groups
}
