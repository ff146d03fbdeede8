package mount

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"

	protoxdr "github.com/gluster/nfs-mountauthd/internal/protocol/xdr"
)

// maxDirPathLen bounds the dirpath argument decoded from the wire,
// mirroring dirpath3's fixed NFS3_MAXPATHLEN limit (RFC 1813 §2.5.3)
// rather than trusting an attacker-controlled XDR length prefix.
const maxDirPathLen = 1024

// MntRequest is the MOUNTPROC3_MNT argument: the path the client wants
// to mount.
type MntRequest struct {
	DirPath string
}

// DecodeMntRequest decodes a MNT request from its XDR wire payload.
func DecodeMntRequest(data []byte) (*MntRequest, error) {
	var req MntRequest
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &req); err != nil {
		return nil, fmt.Errorf("decode MNT request: %w", err)
	}
	if len(req.DirPath) > maxDirPathLen {
		return nil, fmt.Errorf("decode MNT request: dirpath exceeds %d bytes", maxDirPathLen)
	}
	return &req, nil
}

// MntResponse is the MOUNTPROC3_MNT reply (fhstatus3): a status, and —
// only when Status == OK — the opaque file handle and the list of auth
// flavors this volume accepts for it.
type MntResponse struct {
	Status      int32
	FileHandle  []byte
	AuthFlavors []int32
}

// Encode serializes r as fhstatus3: status, then (if OK) the file
// handle as XDR opaque data followed by the auth-flavor array.
func (r *MntResponse) Encode() ([]byte, error) {
	var buf bytes.Buffer

	if err := protoxdr.WriteInt32(&buf, r.Status); err != nil {
		return nil, err
	}
	if r.Status != OK {
		return buf.Bytes(), nil
	}

	if err := protoxdr.WriteXDROpaque(&buf, r.FileHandle); err != nil {
		return nil, fmt.Errorf("encode MNT response handle: %w", err)
	}
	if err := protoxdr.WriteUint32(&buf, uint32(len(r.AuthFlavors))); err != nil {
		return nil, err
	}
	for _, f := range r.AuthFlavors {
		if err := protoxdr.WriteInt32(&buf, f); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// UmntRequest is the MOUNTPROC3_UMNT argument.
type UmntRequest struct {
	DirPath string
}

// DecodeUmntRequest decodes a UMNT request from its XDR wire payload.
func DecodeUmntRequest(data []byte) (*UmntRequest, error) {
	var req UmntRequest
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &req); err != nil {
		return nil, fmt.Errorf("decode UMNT request: %w", err)
	}
	return &req, nil
}

// EncodeVoid serializes a void NULL, UMNT or UMNTALL reply: RFC 1813
// defines no return value for these procedures, only the RPC
// accept/reject status.
func EncodeVoid() ([]byte, error) {
	return []byte{}, nil
}

// DumpEntry is one node of the MOUNTPROC3_DUMP reply's mountlist: the
// client hostname and the directory it mounted.
type DumpEntry struct {
	Hostname  string
	Directory string
}

// EncodeDumpResponse serializes entries as mountlist: value-follows
// (TRUE) + entry, repeated, then a final value-follows (FALSE).
func EncodeDumpResponse(entries []DumpEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		if err := protoxdr.WriteBool(&buf, true); err != nil {
			return nil, err
		}
		if err := protoxdr.WriteXDRString(&buf, e.Hostname); err != nil {
			return nil, fmt.Errorf("encode DUMP hostname: %w", err)
		}
		if err := protoxdr.WriteXDRString(&buf, e.Directory); err != nil {
			return nil, fmt.Errorf("encode DUMP directory: %w", err)
		}
	}
	if err := protoxdr.WriteBool(&buf, false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportEntry is one node of the MOUNTPROC3_EXPORT reply's exports
// list: a directory path and the group names (host patterns or
// netgroup references) allowed to mount it.
type ExportEntry struct {
	Directory string
	Groups    []string
}

// EncodeExportResponse serializes entries as exports: value-follows
// (TRUE) + directory + groups list, repeated, then a final
// value-follows (FALSE). Each entry's Groups is itself a nested
// value-follows-terminated list (RFC 1813 Appendix I "groups").
func EncodeExportResponse(entries []ExportEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		if err := protoxdr.WriteBool(&buf, true); err != nil {
			return nil, err
		}
		if err := protoxdr.WriteXDRString(&buf, e.Directory); err != nil {
			return nil, fmt.Errorf("encode EXPORT directory: %w", err)
		}
		for _, g := range e.Groups {
			if err := protoxdr.WriteBool(&buf, true); err != nil {
				return nil, err
			}
			if err := protoxdr.WriteXDRString(&buf, g); err != nil {
				return nil, fmt.Errorf("encode EXPORT group: %w", err)
			}
		}
		if err := protoxdr.WriteBool(&buf, false); err != nil {
			return nil, err
		}
	}
	if err := protoxdr.WriteBool(&buf, false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
