package registry

import "strings"

const maxMountpointLen = 1024

// Entry is one live mount record (spec §3 "Mount entry"): the export
// name as the client named it, the peer hostname with any port stripped,
// and — when a subdirectory below the exported root was mounted — the
// full resolved path.
type Entry struct {
	ExportName string
	Hostname   string
	FullPath   string
}

// HashKey returns the map key the spec derives for this entry:
// "<export-name-without-leading-slashes>:<hostname>".
func (e Entry) HashKey() string {
	return strings.TrimLeft(e.ExportName, "/") + ":" + e.Hostname
}

// mountpoint returns the path value stored in the rmtab's
// "mountpoint-<N>" slot: the full path when one was recorded (a
// subdirectory mount), otherwise the export name itself.
func (e Entry) mountpoint() string {
	if e.FullPath != "" {
		return e.FullPath
	}
	return e.ExportName
}

// hostFromPeerAddr derives the hostname the registry keys on from a
// peer transport address: everything before a trailing ":<port>", per
// spec §4.F ("leftmost component of its address string").
func hostFromPeerAddr(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}
