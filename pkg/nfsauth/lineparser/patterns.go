package lineparser

// The four pattern instances used by the exports line grammar and by
// pkg/config's nfs3.<vol>.export_dir parser (spec §4.A). Each is
// compiled once at package init and reused across every line of every
// file load.
var (
	// NetgroupRef matches an `@name(opts)` or bare `@name` token,
	// capturing the whole token so upper layers can split name/opts.
	NetgroupRef = Compile(`(@[A-Za-z0-9_.\-]+(?:\([^)]*\))?)`)

	// Host matches a bare host/hostname/CIDR token, with an optional
	// parenthesized option list, capturing the whole token.
	Host = Compile(`([A-Za-z0-9_.:\-/*]+(?:\([^)]*\))?)`)

	// Option matches one comma-separated option token inside a
	// parenthesized option list, capturing the token itself.
	Option = Compile(`([^,()]+)`)

	// Entry matches one whitespace-delimited exports-line entry: either
	// a netgroup reference or a host/hostname/CIDR literal, each with
	// an optional parenthesized option list. Used to split the tail of
	// an exports-file line into entries before NetgroupRef/Host decide
	// which kind each one is.
	Entry = Compile(`((?:@[A-Za-z0-9_.\-]+|[A-Za-z0-9_.:\-/*]+)(?:\([^)]*\))?)`)
)
