package resolver

// Status is the resolver's wire-agnostic outcome classification (spec
// §7). The mount wire handler maps each value to the corresponding
// MNT3ERR_* code; it is kept independent of the XDR layer here so the
// resolver itself never imports the protocol package.
type Status int

const (
	StatusOK Status = iota
	StatusNoEnt
	StatusAccess
	StatusNotDir
	StatusInval
	StatusServerFault
	StatusROFS
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoEnt:
		return "no-ent"
	case StatusAccess:
		return "access"
	case StatusNotDir:
		return "not-dir"
	case StatusInval:
		return "inval"
	case StatusServerFault:
		return "server-fault"
	case StatusROFS:
		return "rofs"
	case StatusStale:
		return "stale"
	default:
		return "unknown"
	}
}
