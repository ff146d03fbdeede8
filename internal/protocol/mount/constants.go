// Package mount implements the MOUNTv3 wire protocol (RFC 1813 Appendix I):
// procedure numbers, status codes, and the request/response types for the
// six MOUNT procedures this core serves (program 100005, version 3).
package mount

// Mount protocol procedure numbers (RFC 1813 Appendix I).
const (
	ProcNull    = 0 // MOUNTPROC3_NULL: connectivity test
	ProcMnt     = 1 // MOUNTPROC3_MNT: add mount entry, return file handle
	ProcDump    = 2 // MOUNTPROC3_DUMP: list active mounts
	ProcUmnt    = 3 // MOUNTPROC3_UMNT: remove a mount entry
	ProcUmntAll = 4 // MOUNTPROC3_UMNTALL: remove all of a client's mount entries
	ProcExport  = 5 // MOUNTPROC3_EXPORT: list available exports
)

// Mount status codes (RFC 1813 Appendix I mountstat3), the MOUNTPROC3_MNT
// reply's status field. Values follow the Unix errno convention, with two
// additions spec §7's wire error taxonomy adds beyond the donor's original
// const block: ErrROFS and ErrStale, needed because this core's Mount
// Resolver can reject a mount attempt against a read-only export or hit a
// stale inode during the subdirectory walk — both conditions the donor's
// mount-only handler never had to report.
const (
	OK             = 0
	ErrPerm        = 1
	ErrNoEnt       = 2
	ErrIO          = 5
	ErrAccess      = 13
	ErrNotDir      = 20
	ErrInval       = 22
	ErrROFS        = 30 // EROFS
	ErrNameTooLong = 63
	ErrStale       = 116 // ESTALE
	ErrNotSupp     = 10004
	ErrServerFault = 10006
)
