package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/authcache"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/authorizer"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/exports"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/registry"
)

// TestScenarioS6RevocationViaRevalidation: an export grant is removed
// from the exports file after a host has already mounted; the next
// revalidation tick must purge the auth cache and evict the
// no-longer-authorized registry entry, so the host's next operation
// would get ACCES (spec.md scenario S6).
func TestScenarioS6RevocationViaRevalidation(t *testing.T) {
	dir := t.TempDir()
	exportsPath := filepath.Join(dir, "exports")

	require.NoError(t, os.WriteFile(exportsPath, []byte("/vol0 h1(rw)\n"), 0o644))

	ef, err := exports.Parse(exportsPath, nil)
	require.NoError(t, err)

	a := authorizer.New(ef, nil, authcache.New(time.Minute))
	reg := registry.New("")
	vol := newFakeVolume()
	vs := &fakeVolumeSet{volumes: map[string]Volume{"vol0": vol}}
	res := New(a, reg, vs)

	mountRes := res.ResolveMount(context.Background(), MountRequest{Host: "h1", DirPath: "/vol0", PeerAddr: "h1:700"})
	require.Equal(t, StatusOK, mountRes.Status)
	require.Len(t, reg.List(), 1)

	verdict, _, _ := a.Authorize(context.Background(), authorizer.Request{Host: "h1", Path: "/vol0"})
	require.Equal(t, authorizer.OK, verdict)

	// Edit the exports file to remove h1's grant; bump the mtime
	// forward so the poll-based change detector reliably sees it even
	// on filesystems with coarse mtime resolution.
	require.NoError(t, os.WriteFile(exportsPath, []byte("/vol0 otherhost(rw)\n"), 0o644))
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(exportsPath, future, future))

	rv := NewRevalidator(res, exportsPath, "", nil, time.Millisecond)
	rv.tick(context.Background())

	require.Empty(t, reg.List(), "revoked mount must be evicted from the registry")

	verdict, _, _ = a.Authorize(context.Background(), authorizer.Request{Host: "h1", Path: "/vol0"})
	require.Equal(t, authorizer.Denied, verdict, "auth cache must have been purged so the stale grant isn't still cached")
}

func TestRevalidatorIgnoresUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	exportsPath := filepath.Join(dir, "exports")
	require.NoError(t, os.WriteFile(exportsPath, []byte("/vol0 h1(rw)\n"), 0o644))

	ef, err := exports.Parse(exportsPath, nil)
	require.NoError(t, err)
	a := authorizer.New(ef, nil, authcache.New(time.Minute))
	reg := registry.New("")
	res := New(a, reg, &fakeVolumeSet{volumes: map[string]Volume{}})

	rv := NewRevalidator(res, exportsPath, "", nil, time.Millisecond)
	rv.tick(context.Background())
	firstExports := a.Exports()

	rv.tick(context.Background())
	require.Same(t, firstExports, a.Exports(), "no file change means no reparse/swap")
}

func TestRevalidatorStartStop(t *testing.T) {
	dir := t.TempDir()
	exportsPath := filepath.Join(dir, "exports")
	require.NoError(t, os.WriteFile(exportsPath, []byte("/vol0 h1(rw)\n"), 0o644))

	ef, err := exports.Parse(exportsPath, nil)
	require.NoError(t, err)
	a := authorizer.New(ef, nil, authcache.New(time.Minute))
	reg := registry.New("")
	res := New(a, reg, &fakeVolumeSet{volumes: map[string]Volume{}})

	rv := NewRevalidator(res, exportsPath, "", nil, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rv.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	rv.Stop()
}
