package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndListInMemoryOnly(t *testing.T) {
	r := New("")
	require.NoError(t, r.Add("/vol0", "", "10.0.0.1:700"))

	list := r.List()
	require.Len(t, list, 1)
	require.Equal(t, "/vol0", list[0].ExportName)
	require.Equal(t, "10.0.0.1", list[0].Hostname)
}

func TestDuplicateAddIsNoOp(t *testing.T) {
	r := New("")
	require.NoError(t, r.Add("/vol0", "", "10.0.0.1:700"))
	require.NoError(t, r.Add("/vol0", "", "10.0.0.1:701"))

	require.Equal(t, 1, r.Len())
}

func TestRemoveDeletesFirstMatch(t *testing.T) {
	r := New("")
	require.NoError(t, r.Add("/vol0", "", "10.0.0.1:700"))
	require.NoError(t, r.Add("/vol1", "", "10.0.0.2:700"))

	require.NoError(t, r.Remove("/vol0", "10.0.0.1"))
	require.Equal(t, 1, r.Len())

	list := r.List()
	require.Equal(t, "/vol1", list[0].ExportName)
}

func TestRemoveByHostDeletesEveryExportForThatHost(t *testing.T) {
	r := New("")
	require.NoError(t, r.Add("/vol0", "", "10.0.0.1:700"))
	require.NoError(t, r.Add("/vol1", "", "10.0.0.1:701"))
	require.NoError(t, r.Add("/vol0", "", "10.0.0.2:700"))

	n, err := r.RemoveByHost("10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	list := r.List()
	require.Len(t, list, 1)
	require.Equal(t, "10.0.0.2", list[0].Hostname)
}

func TestRemoveByHostForUnknownHostIsNoOp(t *testing.T) {
	r := New("")
	require.NoError(t, r.Add("/vol0", "", "10.0.0.1:700"))

	n, err := r.RemoveByHost("nosuchhost")
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, 1, r.Len())
}

func TestPersistenceRoundTrip(t *testing.T) {
	rmtab := filepath.Join(t.TempDir(), "rmtab")
	r := New(rmtab)
	require.NoError(t, r.Add("/vol0", "", "10.0.0.1:700"))

	entries, err := readRmtab(rmtab)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "10.0.0.1", entries[0].Hostname)
	require.Equal(t, "/vol0", entries[0].ExportName)
}

func TestWriteThenReadEmptyRmtabYieldsEmptyState(t *testing.T) {
	rmtab := filepath.Join(t.TempDir(), "rmtab")
	require.NoError(t, writeRmtab(rmtab, nil))

	entries, err := readRmtab(rmtab)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestExternalRmtabWriteIsMergedOnAdd(t *testing.T) {
	rmtab := filepath.Join(t.TempDir(), "rmtab")
	r := New(rmtab)
	require.NoError(t, r.Add("/vol0", "", "10.0.0.1:700"))

	// Simulate a co-tenant process appending its own entry directly to
	// the rmtab file between our two Adds.
	external := []Entry{
		{ExportName: "/vol0", Hostname: "10.0.0.1"},
		{ExportName: "/vol1", Hostname: "10.0.0.9"},
	}
	require.NoError(t, writeRmtab(rmtab, external))

	require.NoError(t, r.Add("/vol2", "", "10.0.0.2:700"))

	list := r.List()
	require.Len(t, list, 3)
}

func TestRewriteMigratesPathAndUnionsContent(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "rmtab-old")
	newPath := filepath.Join(dir, "rmtab-new")

	r := New(oldPath)
	require.NoError(t, r.Add("/vol0", "", "10.0.0.1:700"))

	// Pre-seed the new path with a record the in-memory registry
	// doesn't know about yet.
	require.NoError(t, writeRmtab(newPath, []Entry{{ExportName: "/vol1", Hostname: "10.0.0.2"}}))

	require.NoError(t, r.Rewrite(newPath))

	list := r.List()
	require.Len(t, list, 2)

	entries, err := readRmtab(newPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestHashKeyStripsLeadingSlashes(t *testing.T) {
	e := Entry{ExportName: "/vol0", Hostname: "h1"}
	require.Equal(t, "vol0:h1", e.HashKey())
}
