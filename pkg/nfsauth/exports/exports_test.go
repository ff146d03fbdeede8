package exports

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBasicLine(t *testing.T) {
	src := "/vol0  client1(rw,sec=sys)\n"
	ef, err := ParseReader("test", strings.NewReader(src), nil)
	require.NoError(t, err)

	dir, ok := ef.Lookup("/vol0")
	require.True(t, ok)
	item, ok := dir.Hosts["client1"]
	require.True(t, ok)
	require.True(t, item.Options.RW)
	require.Equal(t, "sys", item.Options.Sec)
}

func TestLookupByUUIDMatchesLookup(t *testing.T) {
	src := "/vol0  client1(rw)\n/vol1  client2(ro)\n"
	ef, err := ParseReader("test", strings.NewReader(src), nil)
	require.NoError(t, err)

	for _, path := range []string{"/vol0", "/vol1"} {
		dir, ok := ef.Lookup(path)
		require.True(t, ok)

		id := ExportUUID(strings.TrimPrefix(path, "/"))
		byUUID, ok := ef.LookupByUUID(id)
		require.True(t, ok)
		require.Same(t, dir, byUUID)
	}
}

func TestCollisionMarkerAlwaysFailsUUIDLookup(t *testing.T) {
	ef := newFile("test")
	dir := newDir("/whatever")
	dir.VolumeID = collisionMarker
	ef.Insert(dir)

	_, ok := ef.LookupByUUID(collisionMarker)
	require.False(t, ok)

	// Still reachable by path.
	_, ok = ef.Lookup("/whatever")
	require.True(t, ok)
}

func TestNetgroupReference(t *testing.T) {
	src := "/vol0  @group1(rw)\n"
	ef, err := ParseReader("test", strings.NewReader(src), nil)
	require.NoError(t, err)

	dir, ok := ef.Lookup("/vol0")
	require.True(t, ok)
	item, ok := dir.Netgroups["group1"]
	require.True(t, ok)
	require.True(t, item.Options.RW)
}

func TestVolumeCrossCheckDropsUnknownVolume(t *testing.T) {
	src := "/vol0  client1(rw)\n/notavolume/sub  client1(rw)\n"
	known := map[string]bool{"vol0": true}
	ef, err := ParseReader("test", strings.NewReader(src), known)
	require.NoError(t, err)

	require.Equal(t, 1, ef.Len())
	_, ok := ef.Lookup("/notavolume/sub")
	require.False(t, ok)
}

func TestMalformedOptionTokenIgnoredRestOfLineContinues(t *testing.T) {
	src := "/vol0  client1(rw,bogus=x,nosuid)\n"
	ef, err := ParseReader("test", strings.NewReader(src), nil)
	require.NoError(t, err)

	dir, ok := ef.Lookup("/vol0")
	require.True(t, ok)
	item := dir.Hosts["client1"]
	require.True(t, item.Options.RW)
	require.True(t, item.Options.NoSuid)
}

func TestDirectoryLengthBoundary(t *testing.T) {
	longPath := "/" + strings.Repeat("a", maxPathLen-1)
	tooLongPath := "/" + strings.Repeat("a", maxPathLen)

	_, err := parseLine(longPath+"  client1(rw)", nil)
	require.NoError(t, err)

	_, err = parseLine(tooLongPath+"  client1(rw)", nil)
	require.Error(t, err)
}

func TestHostMatchPrecedence(t *testing.T) {
	src := "/vol0  10.0.0.0/24(rw) special.example.com(ro)\n"
	ef, err := ParseReader("test", strings.NewReader(src), nil)
	require.NoError(t, err)

	dir, _ := ef.Lookup("/vol0")
	item, kind := dir.MatchHost("10.0.0.5")
	require.Equal(t, MatchCIDR, kind)
	require.True(t, item.Options.RW)
}

func TestCIDRBoundaries(t *testing.T) {
	spec32, err := ParseHostAuthSpec("10.0.0.1/32")
	require.NoError(t, err)
	require.True(t, spec32.Matches(net.ParseIP("10.0.0.1")))
	require.False(t, spec32.Matches(net.ParseIP("10.0.0.2")))

	spec0, err := ParseHostAuthSpec("10.0.0.1/0")
	require.NoError(t, err)
	require.True(t, spec0.Matches(net.ParseIP("255.255.255.255")))
}

func TestIPv6NeverMatches(t *testing.T) {
	spec, err := ParseHostAuthSpec("::1/64")
	require.NoError(t, err)
	require.False(t, spec.Matches(net.ParseIP("::1")))
}

func TestWildcardHost(t *testing.T) {
	src := "/vol0  *(ro)\n"
	ef, err := ParseReader("test", strings.NewReader(src), nil)
	require.NoError(t, err)

	dir, _ := ef.Lookup("/vol0")
	_, kind := dir.MatchHost("anything.example.com")
	require.Equal(t, MatchWildcard, kind)
}

func TestSerializeRoundTrip(t *testing.T) {
	src := "/vol0  client1(rw,sec=sys) @group1(ro)\n"
	ef, err := ParseReader("test", strings.NewReader(src), nil)
	require.NoError(t, err)

	data, err := ef.Serialize()
	require.NoError(t, err)

	ef2, err := Deserialize("test", data)
	require.NoError(t, err)

	dir1, _ := ef.Lookup("/vol0")
	dir2, _ := ef2.Lookup("/vol0")
	require.Equal(t, dir1.Hosts["client1"].Options, dir2.Hosts["client1"].Options)
	require.Equal(t, dir1.Netgroups["group1"].Options, dir2.Netgroups["group1"].Options)
}

func TestSubdirAuthDenyOverridesGeneralGrant(t *testing.T) {
	dir := newDir("/vol0/sub")
	dir.Hosts["*"] = &Item{Name: "*", Options: Options{RW: true}}
	spec, err := ParseHostAuthSpec("10.0.0.0/24")
	require.NoError(t, err)
	dir.SubdirAuth = []HostAuthSpec{spec}

	require.False(t, dir.MatchSubdirAuth(net.ParseIP("192.168.1.1")))
	require.True(t, dir.MatchSubdirAuth(net.ParseIP("10.0.0.5")))
}
