// Package authorizer implements the Mount-State Authorizer (spec §4.E):
// binds an exports file, a netgroups file, and an auth cache, and
// answers whether a given host may mount a path or operate on a file
// handle already issued for one.
package authorizer

import (
	"context"
	"net"
	"path"
	"strings"
	"sync/atomic"

	"github.com/gluster/nfs-mountauthd/internal/logger"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/authcache"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/exports"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/handle"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/netgroups"
)

// Request is one authorization question. For a mount request (path
// form), Path is set and FH is nil. For a subsequent per-operation
// request (fh form), FH is set; Path is ignored and parent-path
// escalation (spec §4.E step 5) never runs, because the mount-uuid
// embedded in the handle already pins the authorized directory.
type Request struct {
	Host  string
	Path  string
	FH    *handle.FileHandle
	Write bool
}

// Authorizer holds atomically-swappable pointers to the current exports
// and netgroups files plus the shared auth cache. It carries no
// process-global state — callers construct one per mount-state handle
// (spec.md §9 "Global mutable mount state").
type Authorizer struct {
	exportsFile   atomic.Pointer[exports.File]
	netgroupsFile atomic.Pointer[netgroups.File]
	cache         *authcache.Cache

	// resolveAddr is net.DefaultResolver.LookupAddr by default;
	// overridable in tests so reverse-DNS fallback (spec §4.E step 4)
	// doesn't depend on a real resolver.
	resolveAddr func(ctx context.Context, addr string) ([]string, error)
}

// New constructs an Authorizer bound to ef, nf, and cache. ef or nf may
// be nil — an Authorizer with no exports file denies everything; one
// with no netgroups file simply never matches via netgroup expansion.
func New(ef *exports.File, nf *netgroups.File, cache *authcache.Cache) *Authorizer {
	a := &Authorizer{cache: cache, resolveAddr: net.DefaultResolver.LookupAddr}
	if ef != nil {
		a.exportsFile.Store(ef)
	}
	if nf != nil {
		a.netgroupsFile.Store(nf)
	}
	return a
}

// SetExports atomically swaps in a freshly parsed exports file. Readers
// already holding the old pointer finish their in-flight request
// against it; the old file is released once the garbage collector sees
// no more references, which stands in for the original's explicit
// refcounted file destructor (spec.md §5 "Exports-file and
// netgroups-file pointers... updated by an atomic test-and-set").
func (a *Authorizer) SetExports(ef *exports.File) { a.exportsFile.Store(ef) }

// SetNetgroups atomically swaps in a freshly parsed netgroups file.
func (a *Authorizer) SetNetgroups(nf *netgroups.File) { a.netgroupsFile.Store(nf) }

// Exports returns the currently active exports file.
func (a *Authorizer) Exports() *exports.File { return a.exportsFile.Load() }

// Netgroups returns the currently active netgroups file.
func (a *Authorizer) Netgroups() *netgroups.File { return a.netgroupsFile.Load() }

// PurgeCache drops every entry in the auth cache. Called by the
// revalidation task whenever the exports or netgroups file changes,
// since a stale cache entry could otherwise keep granting access an
// edited exports file no longer allows (spec §4.G).
func (a *Authorizer) PurgeCache() { a.cache.Purge() }

// Authorize answers req. The returned Item is the export item that
// granted access (nil on Denied); the returned Dir is the export
// directory the grant was issued against — for a path-form request this
// may be a parent of req.Path when access was only granted via
// escalation (spec §4.E step 5), which is also what the resolver uses to
// derive the mount-uuid from the *authorized* path rather than the
// requested one.
func (a *Authorizer) Authorize(ctx context.Context, req Request) (Verdict, *exports.Item, *exports.Dir) {
	ef := a.exportsFile.Load()
	if ef == nil {
		return Denied, nil, nil
	}
	nf := a.netgroupsFile.Load()

	if req.FH != nil {
		return a.authorizeFH(ctx, ef, nf, req)
	}
	return a.authorizePath(ctx, ef, nf, req)
}

func (a *Authorizer) authorizeFH(ctx context.Context, ef *exports.File, nf *netgroups.File, req Request) (Verdict, *exports.Item, *exports.Dir) {
	dir, ok := ef.LookupByUUID(req.FH.ExportUUID)
	if !ok {
		return Denied, nil, nil
	}
	// The mount-uuid pins the directory a prior mount request was
	// actually authorized against (spec §4.E: "mount-uuid derived from
	// the authorized path"). A handle whose mount-uuid doesn't match
	// this export's own directory was issued for some other directory
	// under the same export and carries no standing here.
	if req.FH.MountUUID != handle.MountUUID(dir.Path) {
		return Denied, nil, nil
	}

	if res, info := a.cache.Lookup(req.FH.ExportUUID, req.FH.MountUUID, req.Host); res == authcache.Found {
		return a.applyWriteCheck(OK, info.Item, req.Write), info.Item, dir
	}

	item, matched := a.matchDirWithFallback(ctx, dir, nf, req.Host)
	if !matched {
		return Denied, nil, nil
	}
	if !dir.MatchSubdirAuth(parseIPOrNil(req.Host)) {
		return Denied, nil, nil
	}

	a.cache.Insert(req.FH.ExportUUID, req.FH.MountUUID, req.Host, item)
	return a.applyWriteCheck(OK, item, req.Write), item, dir
}

func (a *Authorizer) authorizePath(ctx context.Context, ef *exports.File, nf *netgroups.File, req Request) (Verdict, *exports.Item, *exports.Dir) {
	p := strings.TrimSuffix(req.Path, "/")
	if p == "" {
		p = "/"
	}

	for {
		dir, ok := ef.Lookup(p)
		if ok {
			item, matched := a.matchDirWithFallback(ctx, dir, nf, req.Host)
			if matched {
				if !dir.MatchSubdirAuth(parseIPOrNil(req.Host)) {
					return Denied, nil, nil
				}

				exportID := exports.ExportUUID(dir.Path)
				mountID := handle.MountUUID(p)
				a.cache.Insert(exportID, mountID, req.Host, item)
				return a.applyWriteCheck(OK, item, req.Write), item, dir
			}
		}

		parent := path.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}

	return Denied, nil, nil
}

// matchDirWithFallback tries host against dir directly, then — only if
// that fails — looks host up via reverse DNS and retries with the FQDN
// (spec §4.E step 4).
func (a *Authorizer) matchDirWithFallback(ctx context.Context, dir *exports.Dir, nf *netgroups.File, host string) (*exports.Item, bool) {
	if item, matched := matchDir(dir, nf, host); matched {
		return item, true
	}

	fqdn, ok := a.reverseDNS(ctx, host)
	if !ok {
		return nil, false
	}
	return matchDir(dir, nf, fqdn)
}

// matchDir checks dir's host map (exact, CIDR, wildcard — handled by
// Dir.MatchHost) and, failing that, walks dir's netgroup map expanding
// each referenced netgroup via nf.
func matchDir(dir *exports.Dir, nf *netgroups.File, host string) (*exports.Item, bool) {
	if item, kind := dir.MatchHost(host); kind != exports.MatchNone {
		return item, true
	}

	if nf == nil {
		return nil, false
	}
	for name, item := range dir.Netgroups {
		if nf.Contains(name, host) {
			return item, true
		}
	}
	return nil, false
}

func (a *Authorizer) reverseDNS(ctx context.Context, addr string) (string, bool) {
	names, err := a.resolveAddr(ctx, addr)
	if err != nil || len(names) == 0 {
		return "", false
	}
	return strings.TrimSuffix(names[0], "."), true
}

func (a *Authorizer) applyWriteCheck(v Verdict, item *exports.Item, write bool) Verdict {
	if v != OK {
		return v
	}
	if write && (item == nil || !item.Options.RW) {
		logger.Debug("authorizer: write denied on read-only export", "item", itemName(item))
		return ReadOnly
	}
	return OK
}

func itemName(item *exports.Item) string {
	if item == nil {
		return ""
	}
	return item.Name
}

func parseIPOrNil(host string) net.IP {
	return net.ParseIP(host)
}
