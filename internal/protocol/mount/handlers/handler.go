package handlers

import (
	"sort"

	"github.com/gluster/nfs-mountauthd/internal/logger"
	"github.com/gluster/nfs-mountauthd/internal/protocol/mount"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/resolver"
)

// Handler implements the six MOUNTv3 procedures (RFC 1813 Appendix I)
// this core serves, on top of the Mount Resolver.
type Handler struct {
	Resolver *resolver.Resolver
}

// New constructs a Handler bound to r.
func New(r *resolver.Resolver) *Handler {
	return &Handler{Resolver: r}
}

// Null answers MOUNTPROC3_NULL: a connectivity check with no arguments
// and no return value.
func (h *Handler) Null(_ *RequestContext) ([]byte, error) {
	return mount.EncodeVoid()
}

// Mnt answers MOUNTPROC3_MNT: authorize req.DirPath for the calling
// client and, on success, record the mount and return its file handle.
func (h *Handler) Mnt(ctx *RequestContext, req *mount.MntRequest) (*mount.MntResponse, error) {
	if ctx.cancelled() {
		logger.Debug("mount: MNT cancelled before processing", logger.Path(req.DirPath))
		return &mount.MntResponse{Status: mount.ErrServerFault}, ctx.Context.Err()
	}

	clientIP := ctx.clientHost()
	logger.Info("mount: MNT request", logger.Path(req.DirPath), logger.ClientIP(clientIP))

	result := h.Resolver.ResolveMount(ctx.Context, resolver.MountRequest{
		Host:     clientIP,
		DirPath:  req.DirPath,
		PeerAddr: ctx.ClientAddr,
	})

	if result.Status != resolver.StatusOK {
		logger.Warn("mount: MNT denied", logger.Path(req.DirPath), logger.ClientIP(clientIP), logger.StatusMsg(result.Status.String()))
		return &mount.MntResponse{Status: wireStatus(result.Status)}, nil
	}

	logger.Info("mount: MNT granted", logger.Path(req.DirPath), logger.ClientIP(clientIP))
	return &mount.MntResponse{
		Status:      mount.OK,
		FileHandle:  result.Handle.Marshal(),
		AuthFlavors: authFlavorCodes(result.AuthFlavors),
	}, nil
}

// Umnt answers MOUNTPROC3_UMNT: remove the caller's mount entry for
// req.DirPath. RFC 1813 defines no status for this procedure — removing
// an entry that was never recorded is a no-op, not an error.
func (h *Handler) Umnt(ctx *RequestContext, req *mount.UmntRequest) ([]byte, error) {
	clientIP := ctx.clientHost()
	if err := h.Resolver.Registry.Remove(req.DirPath, clientIP); err != nil {
		logger.Warn("mount: UMNT failed to update registry", logger.Path(req.DirPath), logger.ClientIP(clientIP), logger.Err(err))
	}
	return mount.EncodeVoid()
}

// UmntAll answers MOUNTPROC3_UMNTALL: remove every mount entry recorded
// for the calling client, across all exports.
func (h *Handler) UmntAll(ctx *RequestContext) ([]byte, error) {
	clientIP := ctx.clientHost()
	n, err := h.Resolver.Registry.RemoveByHost(clientIP)
	if err != nil {
		logger.Warn("mount: UMNTALL failed to update registry", logger.ClientIP(clientIP), logger.Err(err))
	} else {
		logger.Info("mount: UMNTALL", logger.ClientIP(clientIP), logger.Count(uint32(n)))
	}
	return mount.EncodeVoid()
}

// Dump answers MOUNTPROC3_DUMP: the mountlist of every currently live
// mount, for diagnostic clients such as showmount.
func (h *Handler) Dump(_ *RequestContext) ([]byte, error) {
	entries := h.Resolver.Registry.List()
	out := make([]mount.DumpEntry, len(entries))
	for i, e := range entries {
		dir := e.ExportName
		if e.FullPath != "" {
			dir = e.FullPath
		}
		out[i] = mount.DumpEntry{Hostname: e.Hostname, Directory: dir}
	}
	return mount.EncodeDumpResponse(out)
}

// Export answers MOUNTPROC3_EXPORT: every configured export directory
// and the group names (host patterns and netgroup references)
// authorized to mount it.
func (h *Handler) Export(_ *RequestContext) ([]byte, error) {
	ef := h.Resolver.Authorizer.Exports()
	if ef == nil {
		return mount.EncodeExportResponse(nil)
	}

	dirs := ef.Dirs()
	out := make([]mount.ExportEntry, len(dirs))
	for i, d := range dirs {
		out[i] = mount.ExportEntry{Directory: d.Path, Groups: exportGroups(d)}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Directory < out[j].Directory })
	return mount.EncodeExportResponse(out)
}

// authFlavorCodes maps the resolver's named auth flavors to their RPC
// numeric codes (RFC 1813 Appendix I: AUTH_NONE=0, AUTH_SYS=1).
func authFlavorCodes(names []string) []int32 {
	out := make([]int32, 0, len(names))
	for _, n := range names {
		switch n {
		case "none":
			out = append(out, 0)
		case "sys", "":
			out = append(out, 1)
		default:
			// sec=krb5 and friends have no fixed MOUNTv3 pseudoflavor this
			// core assigns; AUTH_SYS is always offered as a fallback.
			out = append(out, 1)
		}
	}
	return out
}
