package handlers

import (
	"context"
	"fmt"
	"net"

	"github.com/gluster/nfs-mountauthd/internal/logger"
	"github.com/gluster/nfs-mountauthd/internal/protocol/mount"
	"github.com/gluster/nfs-mountauthd/internal/protocol/rpc"
)

// Server accepts TCP connections and dispatches ONC RPC calls for
// program 100005 (MOUNT), version 3, to a Handler. One connection is
// served by one goroutine; each call on a connection is handled
// synchronously and in order, matching how the MOUNT protocol's own
// per-client state (the registry) is expected to observe requests.
type Server struct {
	Handler *Handler
}

// NewServer constructs a Server bound to h.
func NewServer(h *Handler) *Server {
	return &Server{Handler: h}
}

// Serve accepts connections on ln until ctx is cancelled or ln.Accept
// fails. It blocks until one of those happens.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("mount rpc: accept: %w", err)
			}
		}
		go s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	addr := conn.RemoteAddr().String()

	for {
		msg, err := rpc.ReadMessage(conn)
		if err != nil {
			return
		}

		reply, ok := s.handleMessage(ctx, addr, msg)
		if !ok {
			continue
		}
		if err := rpc.WriteMessage(conn, reply); err != nil {
			logger.Warn("mount rpc: write reply failed", logger.ClientIP(addr), logger.Err(err))
			return
		}
	}
}

// handleMessage decodes one RPC call, dispatches it, and encodes the
// reply. ok is false only when the call couldn't be parsed at all — no
// reply can be correlated to a request with no readable XID, so the
// connection is better dropped than sent garbage.
func (s *Server) handleMessage(ctx context.Context, clientAddr string, msg []byte) (reply []byte, ok bool) {
	call, body, err := rpc.DecodeCall(msg)
	if err != nil {
		logger.Warn("mount rpc: malformed call", logger.ClientIP(clientAddr), logger.Err(err))
		return nil, false
	}

	if call.Prog != rpc.MountProgram {
		return rpc.EncodeAcceptedReply(call.XID, rpc.ProgUnavail, nil), true
	}
	if call.Vers != rpc.MountVersion {
		return rpc.EncodeAcceptedReply(call.XID, rpc.ProgMismatch, nil), true
	}

	status, result, err := s.dispatch(ctx, clientAddr, call.Proc, body)
	if err != nil {
		logger.Warn("mount rpc: procedure error", logger.ClientIP(clientAddr), "proc", call.Proc, logger.Err(err))
		return rpc.EncodeAcceptedReply(call.XID, rpc.SystemErr, nil), true
	}
	return rpc.EncodeAcceptedReply(call.XID, status, result), true
}

func (s *Server) dispatch(ctx context.Context, clientAddr string, proc uint32, body []byte) (status uint32, result []byte, err error) {
	rc := &RequestContext{Context: ctx, ClientAddr: clientAddr, AuthFlavor: rpc.AuthSys}

	switch proc {
	case mount.ProcNull:
		result, err = s.Handler.Null(rc)

	case mount.ProcMnt:
		req, derr := mount.DecodeMntRequest(body)
		if derr != nil {
			return rpc.GarbageArgs, nil, nil
		}
		resp, herr := s.Handler.Mnt(rc, req)
		if herr != nil {
			return 0, nil, herr
		}
		result, err = resp.Encode()

	case mount.ProcDump:
		result, err = s.Handler.Dump(rc)

	case mount.ProcUmnt:
		req, derr := mount.DecodeUmntRequest(body)
		if derr != nil {
			return rpc.GarbageArgs, nil, nil
		}
		result, err = s.Handler.Umnt(rc, req)

	case mount.ProcUmntAll:
		result, err = s.Handler.UmntAll(rc)

	case mount.ProcExport:
		result, err = s.Handler.Export(rc)

	default:
		return rpc.ProcUnavail, nil, nil
	}

	if err != nil {
		return 0, nil, err
	}
	return rpc.Success, result, nil
}
