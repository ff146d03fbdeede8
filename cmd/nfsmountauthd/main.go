// Command nfsmountauthd serves the NFSv3 MOUNT protocol (RFC 1813
// Appendix I) against an exports/netgroups authorization core: it
// decides which clients may mount which exports, hands back file
// handles for granted mounts, and tracks the live mount registry that
// backs showmount(8).
package main

import (
	"fmt"
	"os"

	"github.com/gluster/nfs-mountauthd/cmd/nfsmountauthd/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
