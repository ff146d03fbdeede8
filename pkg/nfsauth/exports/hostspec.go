package exports

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// HostAuthSpec is one node of an ordered host-restriction list: a
// literal address or hostname, plus a 32-bit IPv4 netmask (default /32
// when no "/<n>" suffix is present). Used both for the exports file's
// CIDR-keyed host-map entries and for the hostspec-scoped subdirectory
// restriction list (spec §4.E, "Hostspec-scoped subdir auth").
//
// IPv4-only by design (spec.md §9 Open Questions): an IPv6 literal is
// accepted by ParseHostAuthSpec without error so a file containing one
// doesn't fail to load, but Matches always returns false against it —
// never an error — mirroring the original's silent non-match rather
// than introducing behavior the original never had.
type HostAuthSpec struct {
	Address   string
	PrefixLen int
	ip        net.IP // nil when Address is a hostname, not a literal
}

// ParseHostAuthSpec parses a bare address/hostname or an "addr/prefix"
// CIDR literal. Prefix length out of [0,32] is an error (spec §3
// invariant on Host-auth spec); for an IPv6 literal the accepted range
// is [0,128].
func ParseHostAuthSpec(token string) (HostAuthSpec, error) {
	if token == "" {
		return HostAuthSpec{}, fmt.Errorf("empty host auth spec")
	}

	addr, prefixStr, hasSlash := strings.Cut(token, "/")
	spec := HostAuthSpec{Address: addr, PrefixLen: 32}

	if ip := net.ParseIP(addr); ip != nil {
		spec.ip = ip
	}

	if hasSlash {
		n, err := strconv.Atoi(prefixStr)
		if err != nil {
			return HostAuthSpec{}, fmt.Errorf("invalid prefix length %q: %w", prefixStr, err)
		}
		maxPrefix := 32
		if spec.ip != nil && spec.ip.To4() == nil {
			maxPrefix = 128
		}
		if n < 0 || n > maxPrefix {
			return HostAuthSpec{}, fmt.Errorf("prefix length %d out of range [0,%d]", n, maxPrefix)
		}
		spec.PrefixLen = n
	}

	return spec, nil
}

// Matches reports whether callerIP falls within spec's network. Only
// IPv4 is evaluated; any IPv6 callerIP, or any spec whose Address isn't
// itself an IPv4 literal, always returns false rather than erroring.
func (h HostAuthSpec) Matches(callerIP net.IP) bool {
	v4 := callerIP.To4()
	if v4 == nil {
		return false
	}
	specV4 := h.ip.To4()
	if specV4 == nil {
		return false
	}

	mask := net.CIDRMask(h.PrefixLen, 32)
	return specV4.Mask(mask).Equal(v4.Mask(mask))
}
