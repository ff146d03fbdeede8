// Package registry implements the Mount Registry (spec §4.F): the
// authoritative in-memory list of live mounts, persisted to an rmtab
// file that other co-tenant server processes may also write.
package registry

import (
	"fmt"
	"sync"

	"github.com/gluster/nfs-mountauthd/internal/logger"
)

// Registry holds the live mount list plus a map keyed by Entry.HashKey,
// both guarded by one mutex (spec §3 "Mount state" invariant: list and
// map agree). rmtabPath is empty when persistence is disabled
// (nfs.mount-rmtab unset); every persistence step is then skipped and
// only the in-memory copy is touched (spec §4.F).
type Registry struct {
	mu        sync.Mutex
	entries   []Entry
	byKey     map[string]int // HashKey -> index into entries
	rmtabPath string
}

// New constructs an empty Registry. rmtabPath may be "" to disable
// rmtab persistence entirely.
func New(rmtabPath string) *Registry {
	return &Registry{
		byKey:     make(map[string]int),
		rmtabPath: rmtabPath,
	}
}

// Add records a mount of exportName (optionally at fullPath, for a
// subdirectory mount) by the peer at peerAddr. Hostname is derived from
// peerAddr by stripping a trailing ":<port>". Adding an entry that
// already exists for (exportName, hostname) is a no-op — neither the
// in-memory list nor the rmtab gains a duplicate line (spec §8
// invariant 5).
func (r *Registry) Add(exportName, fullPath, peerAddr string) error {
	hostname := hostFromPeerAddr(peerAddr)
	entry := Entry{ExportName: exportName, Hostname: hostname, FullPath: fullPath}

	return r.withRmtabLock(func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		if err := r.reconcileFromDiskLocked(); err != nil {
			logger.Warn("registry: failed to reconcile rmtab before add", logger.Err(err))
		}

		if _, exists := r.byKey[entry.HashKey()]; exists {
			return nil
		}

		r.entries = append(r.entries, entry)
		r.byKey[entry.HashKey()] = len(r.entries) - 1

		return r.persistLocked()
	})
}

// Remove deletes the first entry matching (exportName, hostname). A
// remove of a nonexistent entry is a no-op.
func (r *Registry) Remove(exportName, hostname string) error {
	key := exportNameHostKey(exportName, hostname)

	return r.withRmtabLock(func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		idx, ok := r.byKey[key]
		if !ok {
			return nil
		}

		r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
		r.rebuildIndexLocked()

		return r.persistLocked()
	})
}

// RemoveByHost deletes every entry recorded for hostname, across all
// exports — the MOUNTPROC3_UMNTALL semantics (RFC 1813 Appendix I:
// "remove all of the mount entries for the client"), as opposed to
// Remove's single (export, host) pair. Returns the number of entries
// removed.
func (r *Registry) RemoveByHost(hostname string) (int, error) {
	removed := 0

	err := r.withRmtabLock(func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		kept := r.entries[:0]
		for _, e := range r.entries {
			if e.Hostname == hostname {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		r.entries = kept
		r.rebuildIndexLocked()

		if removed == 0 {
			return nil
		}
		return r.persistLocked()
	})

	return removed, err
}

// List returns a snapshot of every live mount entry.
func (r *Registry) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports the number of live mount entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func exportNameHostKey(exportName, hostname string) string {
	return Entry{ExportName: exportName, Hostname: hostname}.HashKey()
}

func (r *Registry) rebuildIndexLocked() {
	r.byKey = make(map[string]int, len(r.entries))
	for i, e := range r.entries {
		r.byKey[e.HashKey()] = i
	}
}

// reconcileFromDiskLocked re-reads the rmtab and merges entries not
// already in memory, per spec §4.F persistence protocol step 2 ("Read
// rmtab fully, merging entries not already in memory"). Must be called
// with r.mu held and the rmtab lock already acquired by the caller.
func (r *Registry) reconcileFromDiskLocked() error {
	if r.rmtabPath == "" {
		return nil
	}
	disk, err := readRmtab(r.rmtabPath)
	if err != nil {
		return err
	}
	r.entries = mergeEntries(r.entries, disk)
	r.rebuildIndexLocked()
	return nil
}

// persistLocked writes the current in-memory entry list to the rmtab.
// Must be called with r.mu held.
func (r *Registry) persistLocked() error {
	if r.rmtabPath == "" {
		return nil
	}
	return writeRmtab(r.rmtabPath, r.entries)
}

// withRmtabLock acquires the outermost rmtab advisory lock (spec §5:
// "the rmtab file lock is outermost; acquired before the mount-state
// mutex in all add/remove/rewrite paths"), runs fn, then releases it.
// When persistence is disabled, fn runs with no lock taken at all.
func (r *Registry) withRmtabLock(fn func() error) error {
	if r.rmtabPath == "" {
		return fn()
	}

	lock, err := lockRmtab(r.rmtabPath)
	if err != nil {
		return fmt.Errorf("acquire rmtab lock: %w", err)
	}
	defer lock.Unlock()

	return fn()
}

// Rewrite migrates the registry's active rmtab from its current path to
// newPath (spec §4.F "Rewrite on path migration"): the old path is
// locked first, then the new path, their contents are unioned into
// memory, the union is written to the new path, and only then is the
// active path pointer swapped. Failure to open newPath leaves the old
// rmtab active and returns the error.
func (r *Registry) Rewrite(newPath string) error {
	r.mu.Lock()
	oldPath := r.rmtabPath
	r.mu.Unlock()

	var oldLock *rmtabLock
	var err error
	if oldPath != "" {
		oldLock, err = lockRmtab(oldPath)
		if err != nil {
			return fmt.Errorf("lock old rmtab %q: %w", oldPath, err)
		}
		defer oldLock.Unlock()
	}

	newLock, err := lockRmtab(newPath)
	if err != nil {
		return fmt.Errorf("lock new rmtab %q: %w", newPath, err)
	}
	defer newLock.Unlock()

	var oldEntries, newEntries []Entry
	if oldPath != "" {
		oldEntries, err = readRmtab(oldPath)
		if err != nil {
			return fmt.Errorf("read old rmtab %q: %w", oldPath, err)
		}
	}
	newEntries, err = readRmtab(newPath)
	if err != nil {
		return fmt.Errorf("read new rmtab %q: %w", newPath, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	union := mergeEntries(mergeEntries(r.entries, oldEntries), newEntries)
	if err := writeRmtab(newPath, union); err != nil {
		return fmt.Errorf("write union to new rmtab %q: %w", newPath, err)
	}

	r.entries = union
	r.rebuildIndexLocked()
	r.rmtabPath = newPath

	return nil
}
