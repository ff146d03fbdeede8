package rpc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFragmentSize bounds a single RPC record fragment. MOUNT requests
// and replies are tiny (a path, a handle, a short list) compared to the
// NFS data-path program this core never serves, so a generous fixed
// cap is enough to reject a malformed or hostile fragment header
// without ever needing a pooled-buffer fast path.
const MaxFragmentSize = 1 << 20

// FragmentHeader is the 4-byte RPC record-marking header (RFC 5531
// §10): the top bit marks the last fragment of a record, the low 31
// bits carry the fragment's length.
type FragmentHeader struct {
	IsLast bool
	Length uint32
}

// ReadFragmentHeader reads and parses one fragment header from r. EOF
// is returned unwrapped so callers can tell a clean disconnect between
// records from a mid-record read failure.
func ReadFragmentHeader(r io.Reader) (FragmentHeader, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FragmentHeader{}, err
	}
	v := binary.BigEndian.Uint32(buf[:])
	return FragmentHeader{IsLast: v&0x80000000 != 0, Length: v & 0x7fffffff}, nil
}

// ReadMessage reads one complete RPC message (one or more fragments,
// reassembled) from r.
func ReadMessage(r io.Reader) ([]byte, error) {
	var msg []byte
	for {
		h, err := ReadFragmentHeader(r)
		if err != nil {
			return nil, err
		}
		if h.Length > MaxFragmentSize {
			return nil, fmt.Errorf("rpc: fragment too large: %d bytes", h.Length)
		}

		frag := make([]byte, h.Length)
		if _, err := io.ReadFull(r, frag); err != nil {
			return nil, fmt.Errorf("rpc: read fragment body: %w", err)
		}
		msg = append(msg, frag...)

		if h.IsLast {
			return msg, nil
		}
	}
}

// WriteMessage writes msg to w as a single last-fragment record.
func WriteMessage(w io.Writer, msg []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(msg))|0x80000000)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("rpc: write fragment header: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("rpc: write fragment body: %w", err)
	}
	return nil
}
