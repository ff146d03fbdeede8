package exports

import (
	"net"
	"strings"

	"github.com/google/uuid"
)

// MatchKind describes how a host matched an export directory's host map,
// used for log fields and for tests that assert which rule matched.
// MatchHost tries an exact key first, then CIDR, then the wildcard.
type MatchKind string

const (
	MatchNone     MatchKind = ""
	MatchExact    MatchKind = "exact"
	MatchCIDR     MatchKind = "cidr"
	MatchWildcard MatchKind = "wildcard"
)

// Dir is one export directory record (spec §3): an absolute path with
// exactly one leading '/' and no trailing '/', a netgroup-name → Item
// map, and a host-pattern → Item map. Either map may be empty.
type Dir struct {
	Path      string
	Netgroups map[string]*Item
	Hosts     map[string]*Item

	// SubdirAuth is the hostspec-scoped subdirectory restriction list
	// (spec §4.E, supplemented feature 1): when non-empty, a caller
	// that matches none of these entries is denied outright regardless
	// of Netgroups/Hosts.
	SubdirAuth []HostAuthSpec

	// VolumeID is the optional per-volume UUID used by dynamic
	// volume-id mapping (SPEC_FULL.md supplemented feature 2). Zero
	// value means "not set": ExportUUID falls back to the path hash.
	VolumeID uuid.UUID
}

func newDir(path string) *Dir {
	return &Dir{
		Path:      path,
		Netgroups: make(map[string]*Item),
		Hosts:     make(map[string]*Item),
	}
}

// MatchHost looks up host (an IP literal or a hostname/FQDN, tried by
// the caller one form at a time per spec §4.E step 4) against d's host
// map: exact string match first, then CIDR match against any key
// containing '/', then the literal wildcard "*".
func (d *Dir) MatchHost(host string) (*Item, MatchKind) {
	if item, ok := d.Hosts[host]; ok {
		return item, MatchExact
	}

	if ip := net.ParseIP(host); ip != nil {
		for key, item := range d.Hosts {
			if !strings.Contains(key, "/") {
				continue
			}
			spec, err := ParseHostAuthSpec(key)
			if err != nil {
				continue
			}
			if spec.Matches(ip) {
				return item, MatchCIDR
			}
		}
	}

	if item, ok := d.Hosts["*"]; ok {
		return item, MatchWildcard
	}

	return nil, MatchNone
}

// MatchSubdirAuth reports whether callerIP satisfies d's hostspec-scoped
// subdirectory restriction list. An empty list always matches (no
// restriction configured); IPv6 callers never match a non-empty list
// since HostAuthSpec.Matches is IPv4-only.
func (d *Dir) MatchSubdirAuth(callerIP net.IP) bool {
	if len(d.SubdirAuth) == 0 {
		return true
	}
	for _, spec := range d.SubdirAuth {
		if spec.Matches(callerIP) {
			return true
		}
	}
	return false
}
