// Package resolver implements the Mount Resolver (spec §4.G): turns a
// mount request into a file handle by finding the target export,
// authorizing the request, and — for a subdirectory mount — walking
// the remaining path components with symlink-chase and stale-inode
// retry, then records the result in the Mount Registry.
package resolver

import (
	"context"
	"path"
	"strings"

	"github.com/gluster/nfs-mountauthd/internal/logger"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/authorizer"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/exports"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/handle"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/registry"
)

// maxSymlinkHops bounds the symlink chase so a malicious or broken
// link cycle cannot spin the resolver forever. The original has no
// explicit cap (spec.md TODO-equivalent, §4.G note 1); a generous
// fixed bound is a safe, idiomatic Go substitute for that gap.
const maxSymlinkHops = 32

// MountRequest is one MNT-procedure request to resolve.
type MountRequest struct {
	Host     string
	DirPath  string
	PeerAddr string
}

// MountResult is what ResolveMount hands back to the wire handler.
type MountResult struct {
	Status      Status
	Handle      handle.FileHandle
	AuthFlavors []string
}

// Resolver binds an Authorizer and a Mount Registry to a set of live
// volumes and answers mount requests.
type Resolver struct {
	Authorizer *authorizer.Authorizer
	Registry   *registry.Registry
	Volumes    VolumeSet
}

// New constructs a Resolver.
func New(a *authorizer.Authorizer, reg *registry.Registry, volumes VolumeSet) *Resolver {
	return &Resolver{Authorizer: a, Registry: reg, Volumes: volumes}
}

// ResolveMount answers req (spec §4.G steps 1-7).
func (r *Resolver) ResolveMount(ctx context.Context, req MountRequest) MountResult {
	clientPath := normalizePath(req.DirPath)

	ef := r.Authorizer.Exports()
	if ef == nil {
		return MountResult{Status: StatusServerFault}
	}

	dir, ok := findExport(ef, clientPath)
	if !ok {
		return MountResult{Status: StatusNoEnt}
	}

	volName := volumeName(dir.Path)
	vol, ok := r.Volumes.Volume(volName)
	if !ok {
		logger.Warn("resolver: export directory names an unknown volume", "path", dir.Path, "volume", volName)
		return MountResult{Status: StatusServerFault}
	}

	verdict, item, authDir := r.Authorizer.Authorize(ctx, authorizer.Request{Host: req.Host, Path: clientPath})
	if verdict == authorizer.Denied {
		return MountResult{Status: StatusAccess}
	}

	var fh handle.FileHandle
	var status Status
	if clientPath == authDir.Path {
		fh, status = r.resolveVolumeRoot(ctx, vol, authDir)
	} else {
		fh, status = r.resolveSubdir(ctx, vol, authDir, clientPath)
	}
	if status != StatusOK {
		return MountResult{Status: status}
	}

	fullPath := ""
	if clientPath != dir.Path {
		fullPath = clientPath
	}
	if err := r.Registry.Add(dir.Path, fullPath, req.PeerAddr); err != nil {
		// Spec §4.G: an unresolvable peer address shouldn't fail an
		// otherwise-authorized mount; log and still hand back the handle.
		logger.Warn("resolver: failed to record mount in registry", logger.Err(err))
	}

	return MountResult{
		Status:      StatusOK,
		Handle:      fh,
		AuthFlavors: authFlavors(item),
	}
}

// resolveVolumeRoot builds the handle for a whole-export mount: no
// path walk needed, the handle addresses the volume's own root.
func (r *Resolver) resolveVolumeRoot(ctx context.Context, vol Volume, authDir *exports.Dir) (handle.FileHandle, Status) {
	root, err := vol.Root(ctx)
	if err != nil {
		return handle.FileHandle{}, StatusServerFault
	}
	return handle.FileHandle{
		ExportUUID: exports.ExportUUID(authDir.Path),
		MountUUID:  handle.MountUUID(authDir.Path),
		Inode:      root.ID,
	}, StatusOK
}

// resolveSubdir walks from authDir's volume root down to clientPath,
// component by component, chasing symlinks and retrying once on a
// stale inode (spec §4.G step 6). The resulting handle's mount-uuid is
// derived from the *authorized* directory, which may be a parent of
// clientPath when access was only granted via escalation.
func (r *Resolver) resolveSubdir(ctx context.Context, vol Volume, authDir *exports.Dir, clientPath string) (handle.FileHandle, Status) {
	rel := strings.TrimPrefix(strings.TrimPrefix(clientPath, authDir.Path), "/")
	components := splitNonEmpty(rel)

	current, err := vol.Root(ctx)
	if err != nil {
		return handle.FileHandle{}, StatusServerFault
	}

	hops := 0
	for i := 0; i < len(components); i++ {
		name := components[i]

		next, err := r.lookupWithStaleRetry(ctx, vol, current, name)
		if err != nil {
			if err == ErrStale {
				return handle.FileHandle{}, StatusStale
			}
			return handle.FileHandle{}, StatusNoEnt
		}

		if next.IsSymlink {
			hops++
			if hops > maxSymlinkHops {
				return handle.FileHandle{}, StatusInval
			}

			target, err := vol.Readlink(ctx, next)
			if err != nil {
				return handle.FileHandle{}, StatusIOFromErr(err)
			}

			rest, ok := resolveSymlinkTarget(authDir.Path, components[:i], target, components[i+1:])
			if !ok {
				logger.Warn("resolver: symlink escapes export root", "export", authDir.Path, "target", target)
				return handle.FileHandle{}, StatusAccess
			}

			root, err := vol.Root(ctx)
			if err != nil {
				return handle.FileHandle{}, StatusServerFault
			}
			current = root
			components = rest
			i = -1
			continue
		}

		current = next
	}

	return handle.FileHandle{
		ExportUUID: exports.ExportUUID(authDir.Path),
		MountUUID:  handle.MountUUID(authDir.Path),
		Inode:      current.ID,
	}, StatusOK
}

// lookupWithStaleRetry performs one Lookup, and on ErrStale retries
// exactly once (spec §7 "stale-inode anywhere during the walk: retry
// once then MNT3ERR_STALE").
func (r *Resolver) lookupWithStaleRetry(ctx context.Context, vol Volume, parent Inode, name string) (Inode, error) {
	next, err := vol.Lookup(ctx, parent, name)
	if err == nil {
		return next, nil
	}
	if err != ErrStale {
		return Inode{}, err
	}

	next, err = vol.Lookup(ctx, parent, name)
	if err != nil {
		return Inode{}, ErrStale
	}
	return next, nil
}

// resolveSymlinkTarget rebuilds the path to re-walk after following a
// symlink found at exportRoot/walked.../link, whose link target is
// target, with trailingComponents still left to process. Per the
// original's documented convention (spec §4.G step 6), a relative
// target is resolved against the symlink's parent directory; the
// result must stay within exportRoot. Returns ok=false if it would
// escape.
func resolveSymlinkTarget(exportRoot string, walked []string, target string, trailingComponents []string) ([]string, bool) {
	var base string
	if path.IsAbs(target) {
		base = target
	} else {
		parent := path.Join(append([]string{exportRoot}, walked...)...)
		base = path.Join(parent, target)
	}
	base = path.Clean(base)

	if base != exportRoot && !strings.HasPrefix(base, exportRoot+"/") {
		return nil, false
	}

	rel := strings.TrimPrefix(strings.TrimPrefix(base, exportRoot), "/")
	rest := append(splitNonEmpty(rel), trailingComponents...)
	return rest, true
}

// findExport finds the export directory matching clientPath exactly,
// or — for a subdirectory mount — by its first path component (spec
// §4.G step 1).
func findExport(ef *exports.File, clientPath string) (*exports.Dir, bool) {
	if dir, ok := ef.Lookup(clientPath); ok {
		return dir, true
	}

	first := firstComponent(clientPath)
	if first == "" {
		return nil, false
	}
	return ef.Lookup("/" + first)
}

func volumeName(exportPath string) string {
	return firstComponent(exportPath)
}

func firstComponent(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ""
	}
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i]
	}
	return p
}

func splitNonEmpty(p string) []string {
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, c := range parts {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		p = "/"
	}
	return path.Clean(p)
}

// authFlavors reports which MOUNTv3 auth flavors the granting item
// accepts (spec §6). An empty or unrecognized Sec option defaults to
// AUTH_SYS, the original's own default.
func authFlavors(item *exports.Item) []string {
	if item == nil {
		return []string{"sys"}
	}
	switch item.Options.Sec {
	case "", "sys":
		return []string{"sys"}
	case "none":
		return []string{"none", "sys"}
	default:
		return []string{item.Options.Sec, "sys"}
	}
}

// StatusIOFromErr classifies a Volume error that isn't ErrStale as a
// plain I/O failure. Exported for reuse by tests that construct
// Volume fixtures returning arbitrary errors.
func StatusIOFromErr(err error) Status {
	if err == nil {
		return StatusOK
	}
	return StatusServerFault
}
