package rpc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeTestCall(xid, prog, vers, proc uint32, argBody []byte) []byte {
	var buf []byte
	buf = appendUint32(buf, xid)
	buf = appendUint32(buf, MsgCall)
	buf = appendUint32(buf, 2) // rpcvers
	buf = appendUint32(buf, prog)
	buf = appendUint32(buf, vers)
	buf = appendUint32(buf, proc)
	buf = appendUint32(buf, AuthNone) // cred flavor
	buf = appendUint32(buf, 0)        // cred length
	buf = appendUint32(buf, AuthNone) // verf flavor
	buf = appendUint32(buf, 0)        // verf length
	return append(buf, argBody...)
}

func TestDecodeCallParsesHeaderAndBody(t *testing.T) {
	msg := encodeTestCall(42, MountProgram, MountVersion, 1, []byte("hello"))

	h, body, err := DecodeCall(msg)
	require.NoError(t, err)
	require.Equal(t, uint32(42), h.XID)
	require.Equal(t, MountProgram, h.Prog)
	require.Equal(t, MountVersion, h.Vers)
	require.Equal(t, uint32(1), h.Proc)
	require.Equal(t, []byte("hello"), body)
}

func TestDecodeCallRejectsReplyMessage(t *testing.T) {
	msg := encodeTestCall(1, MountProgram, MountVersion, 0, nil)
	binary.BigEndian.PutUint32(msg[4:8], MsgReply)

	_, _, err := DecodeCall(msg)
	require.Error(t, err)
}

func TestDecodeCallRejectsTruncatedMessage(t *testing.T) {
	_, _, err := DecodeCall([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestEncodeAcceptedReplyRoundTrips(t *testing.T) {
	reply := EncodeAcceptedReply(7, Success, []byte("result"))

	require.Equal(t, uint32(7), binary.BigEndian.Uint32(reply[0:4]))
	require.Equal(t, MsgReply, binary.BigEndian.Uint32(reply[4:8]))
	require.Equal(t, ReplyAccepted, binary.BigEndian.Uint32(reply[8:12]))
	require.Equal(t, Success, binary.BigEndian.Uint32(reply[20:24]))
	require.True(t, bytes.HasSuffix(reply, []byte("result")))
}

func TestMessageFramingRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("an rpc message body")
	require.NoError(t, WriteMessage(&buf, payload))

	got, err := ReadMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadMessageReassemblesMultipleFragments(t *testing.T) {
	var buf bytes.Buffer

	var frag1Header [4]byte
	binary.BigEndian.PutUint32(frag1Header[:], 3) // not last, length 3
	buf.Write(frag1Header[:])
	buf.WriteString("abc")

	var frag2Header [4]byte
	binary.BigEndian.PutUint32(frag2Header[:], 3|0x80000000) // last, length 3
	buf.Write(frag2Header[:])
	buf.WriteString("def")

	got, err := ReadMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, []byte("abcdef"), got)
}

func TestReadMessageRejectsOversizedFragment(t *testing.T) {
	var buf bytes.Buffer
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], (MaxFragmentSize+1)|0x80000000)
	buf.Write(hdr[:])

	_, err := ReadMessage(&buf)
	require.Error(t, err)
}
