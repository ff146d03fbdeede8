package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/gluster/nfs-mountauthd/internal/logger"
)

// readRmtab parses path's key/value text format (spec §6): two keys per
// entry, "hostname-<N>" and "mountpoint-<N>", N consecutive from 0 with
// no gaps. A missing file is not an error — it reads as zero entries, the
// same as a freshly created rmtab.
func readRmtab(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open rmtab %q: %w", path, err)
	}
	defer f.Close()

	kv := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if len(v) > maxMountpointLen {
			logger.Warn("rmtab: rejecting oversized value at load", "key", k)
			continue
		}
		kv[k] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rmtab %q: %w", path, err)
	}

	var entries []Entry
	for n := 0; ; n++ {
		host, hasHost := kv[fmt.Sprintf("hostname-%d", n)]
		mnt, hasMnt := kv[fmt.Sprintf("mountpoint-%d", n)]
		if !hasHost || !hasMnt {
			break
		}
		entries = append(entries, Entry{ExportName: mnt, Hostname: host})
	}

	return entries, nil
}

// writeRmtab writes entries to path using write-to-temp, rename, the
// same atomicity discipline the original uses for its RMW cycle (spec
// §6 "Writers use write-to-temp, fsync, rename for atomicity").
func writeRmtab(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create rmtab temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for n, e := range entries {
		fmt.Fprintf(w, "hostname-%d=%s\n", n, e.Hostname)
		fmt.Fprintf(w, "mountpoint-%d=%s\n", n, e.mountpoint())
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flush rmtab temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("fsync rmtab temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close rmtab temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename rmtab temp file over %q: %w", path, err)
	}
	return nil
}

// rmtabLock holds an advisory exclusive lock on an open file descriptor
// for path, acquired via golang.org/x/sys/unix.Flock. It is the
// outermost lock in every add/remove/rewrite path (spec §5 "the rmtab
// file lock is outermost").
type rmtabLock struct {
	f *os.File
}

func lockRmtab(path string) (*rmtabLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open rmtab %q for locking: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("flock rmtab %q: %w", path, err)
	}
	return &rmtabLock{f: f}, nil
}

func (l *rmtabLock) Unlock() error {
	defer l.f.Close()
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}

// mergeEntries unions disk entries into inMemory (spec §4.F "union
// semantics"). Matching is string equality on (ExportName, Hostname) —
// no normalization, per the Open Question decision in DESIGN.md — so a
// peer reachable under two distinct hostnames legitimately produces two
// entries.
func mergeEntries(inMemory, disk []Entry) []Entry {
	seen := make(map[string]bool, len(inMemory))
	for _, e := range inMemory {
		seen[e.HashKey()] = true
	}

	merged := append([]Entry(nil), inMemory...)
	for _, e := range disk {
		if !seen[e.HashKey()] {
			merged = append(merged, e)
			seen[e.HashKey()] = true
		}
	}
	return merged
}
