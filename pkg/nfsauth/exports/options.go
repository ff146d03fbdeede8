package exports

import (
	"strings"

	"github.com/gluster/nfs-mountauthd/internal/logger"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/lineparser"
)

// Options is the flat set of export options attached to one export item
// (spec §3 "Export options"). Zero value is the documented default: read
// only, root squashed, nosuid off, no anonymous uid override, no
// security-flavor override.
type Options struct {
	RW      bool
	NoSuid  bool
	Root    bool
	AnonUID string
	Sec     string
}

// ParseOptions parses a comma-separated, already-parenthesis-stripped
// option list (e.g. "rw,nosuid,anonuid=99"). rw/ro are mutually
// exclusive; when both appear, the last one in the list wins, matching
// the original's last-write-wins semantics for a boolean set twice on
// one line. Unknown tokens are logged and ignored rather than rejected —
// spec §4.C is explicit that an unrecognized option must not fail the
// whole line.
func ParseOptions(raw string) Options {
	var opts Options

	c := lineparser.Option.Cursor(raw)
	for {
		tok, ok := c.Next()
		if !ok {
			break
		}
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		switch {
		case tok == "rw":
			opts.RW = true
		case tok == "ro":
			opts.RW = false
		case tok == "nosuid":
			opts.NoSuid = true
		case tok == "root":
			opts.Root = true
		case strings.HasPrefix(tok, "anonuid="):
			opts.AnonUID = strings.TrimPrefix(tok, "anonuid=")
		case strings.HasPrefix(tok, "sec="):
			opts.Sec = strings.TrimPrefix(tok, "sec=")
		default:
			logger.Warn("exports: ignoring unknown option token", "token", tok)
		}
	}

	return opts
}

// Serialize renders opts back into the comma-separated form ParseOptions
// accepts, used by the Exports Model's debug round-trip (spec §8
// property 6). Ordering is fixed (rw/ro, nosuid, root, anonuid, sec)
// rather than insertion order, since Options carries no memory of the
// order its source tokens appeared in.
func (o Options) Serialize() string {
	var parts []string
	if o.RW {
		parts = append(parts, "rw")
	} else {
		parts = append(parts, "ro")
	}
	if o.NoSuid {
		parts = append(parts, "nosuid")
	}
	if o.Root {
		parts = append(parts, "root")
	}
	if o.AnonUID != "" {
		parts = append(parts, "anonuid="+o.AnonUID)
	}
	if o.Sec != "" {
		parts = append(parts, "sec="+o.Sec)
	}
	return strings.Join(parts, ",")
}
