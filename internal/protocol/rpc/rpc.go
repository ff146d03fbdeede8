// Package rpc implements just enough of ONC RPC (RFC 5531) to serve the
// MOUNT program over TCP: record-marking framing, the call header, and
// the accepted/rejected reply header. Everything above the header —
// argument/result bodies — is the caller's (internal/protocol/mount's)
// concern; this package only turns a byte stream into (header, body)
// pairs and back.
package rpc

import (
	"encoding/binary"
	"fmt"
)

// Message types (RFC 5531 §9).
const (
	MsgCall  uint32 = 0
	MsgReply uint32 = 1
)

// Reply status (RFC 5531 §9 reply_stat).
const (
	ReplyAccepted uint32 = 0
	ReplyDenied   uint32 = 1
)

// Accept status (RFC 5531 §9 accept_stat).
const (
	Success      uint32 = 0
	ProgUnavail  uint32 = 1
	ProgMismatch uint32 = 2
	ProcUnavail  uint32 = 3
	GarbageArgs  uint32 = 4
	SystemErr    uint32 = 5
)

// Auth flavors this server understands enough of to skip over
// (RFC 5531 §8.2). AUTH_SYS credentials carry the caller's uid/gid,
// which this core's authorizer never consults — host-based access
// control only (spec §4.E) — so the body is parsed only far enough to
// know its length, never to extract uid/gid.
const (
	AuthNone uint32 = 0
	AuthSys  uint32 = 1
)

// MountProgram and MountVersion identify the MOUNT service this server
// dispatches to (RFC 1813 Appendix I).
const (
	MountProgram uint32 = 100005
	MountVersion uint32 = 3
)

// CallHeader is a decoded RPC call_body up through the verifier — the
// fixed-size preamble every CALL message carries before its
// procedure-specific arguments.
type CallHeader struct {
	XID     uint32
	RPCVers uint32
	Prog    uint32
	Vers    uint32
	Proc    uint32
}

// DecodeCall parses msg (one full, reassembled RPC message, fragment
// header already stripped) as a CALL. Returns the header, the remaining
// bytes (the procedure's argument body), and an error if msg is too
// short or isn't a CALL.
func DecodeCall(msg []byte) (CallHeader, []byte, error) {
	if len(msg) < 24 {
		return CallHeader{}, nil, fmt.Errorf("rpc: call message too short: %d bytes", len(msg))
	}

	xid := binary.BigEndian.Uint32(msg[0:4])
	msgType := binary.BigEndian.Uint32(msg[4:8])
	if msgType != MsgCall {
		return CallHeader{}, nil, fmt.Errorf("rpc: expected CALL, got msg_type %d", msgType)
	}

	h := CallHeader{
		XID:     xid,
		RPCVers: binary.BigEndian.Uint32(msg[8:12]),
		Prog:    binary.BigEndian.Uint32(msg[12:16]),
		Vers:    binary.BigEndian.Uint32(msg[16:20]),
		Proc:    binary.BigEndian.Uint32(msg[20:24]),
	}

	rest := msg[24:]

	cred, rest, err := skipOpaqueAuth(rest)
	if err != nil {
		return CallHeader{}, nil, fmt.Errorf("rpc: decode credential: %w", err)
	}
	_ = cred

	_, rest, err = skipOpaqueAuth(rest)
	if err != nil {
		return CallHeader{}, nil, fmt.Errorf("rpc: decode verifier: %w", err)
	}

	return h, rest, nil
}

// skipOpaqueAuth consumes one opaque_auth structure (flavor:uint32,
// body: XDR opaque) from the front of b and returns its body plus
// whatever follows.
func skipOpaqueAuth(b []byte) ([]byte, []byte, error) {
	if len(b) < 8 {
		return nil, nil, fmt.Errorf("truncated opaque_auth")
	}
	length := binary.BigEndian.Uint32(b[4:8])
	padded := length + (4-length%4)%4
	if uint32(len(b)-8) < padded {
		return nil, nil, fmt.Errorf("truncated opaque_auth body")
	}
	body := b[8 : 8+length]
	return body, b[8+padded:], nil
}

// EncodeAcceptedReply builds the fixed header of an RPC-accepted reply
// (RFC 5531 §9 "If accept_stat is SUCCESS..."): xid, msg_type=REPLY,
// reply_stat=ACCEPTED, a null (AUTH_NONE) verifier, and accept_stat.
// results is appended verbatim — it is the procedure's own encoded
// response, already built by the caller, or nil for SUCCESS==false
// statuses that carry no result body.
func EncodeAcceptedReply(xid uint32, status uint32, results []byte) []byte {
	out := make([]byte, 0, 20+len(results))
	out = appendUint32(out, xid)
	out = appendUint32(out, MsgReply)
	out = appendUint32(out, ReplyAccepted)
	out = appendUint32(out, AuthNone) // verifier flavor
	out = appendUint32(out, 0)        // verifier length
	out = appendUint32(out, status)
	return append(out, results...)
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
