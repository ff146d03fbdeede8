// Package handlers bridges the MOUNTv3 wire types (internal/protocol/mount)
// to the mount-and-authorization core (pkg/nfsauth/{authorizer,registry,resolver}):
// one Handler method per RFC 1813 Appendix I procedure.
package handlers

import (
	"context"
	"net"
)

// RequestContext carries the per-call information every mount procedure
// needs: cancellation, the client's network address, and an RPC auth
// flavor. Server.dispatch sets AuthFlavor to AUTH_SYS for every call;
// the flavor in the call's credential is not read. Modeled on the single consolidated
// context struct the donor mount handlers share, rather than one
// bespoke struct per procedure.
type RequestContext struct {
	Context    context.Context
	ClientAddr string
	AuthFlavor uint32
}

func (c *RequestContext) cancelled() bool {
	select {
	case <-c.Context.Done():
		return true
	default:
		return false
	}
}

// clientHost returns the client's address with any ":<port>" suffix
// stripped, falling back to the raw address if it isn't in host:port
// form.
func (c *RequestContext) clientHost() string {
	host, _, err := net.SplitHostPort(c.ClientAddr)
	if err != nil {
		return c.ClientAddr
	}
	return host
}
