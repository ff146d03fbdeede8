package resolver

import (
	"context"
	"sync"
)

// fakeInode is the in-memory fixture's directory entry representation.
type fakeInode struct {
	id        uint64
	isDir     bool
	isSymlink bool
	target    string // symlink target, only set if isSymlink
	children  map[string]uint64
}

// fakeVolume is a minimal in-memory Volume used to exercise the
// resolver's path walk, symlink chase, and stale-inode retry without
// any real filesystem or VFS client.
type fakeVolume struct {
	mu          sync.Mutex
	inodes      map[uint64]*fakeInode
	nextID      uint64
	staleOnce   map[uint64]bool // inode IDs that fail once with ErrStale, then succeed
	staleCalled map[uint64]bool
}

func newFakeVolume() *fakeVolume {
	root := &fakeInode{id: 1, isDir: true, children: map[string]uint64{}}
	return &fakeVolume{
		inodes:      map[uint64]*fakeInode{1: root},
		nextID:      2,
		staleOnce:   map[uint64]bool{},
		staleCalled: map[uint64]bool{},
	}
}

func (v *fakeVolume) addDir(parent uint64, name string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.inodes[id] = &fakeInode{id: id, isDir: true, children: map[string]uint64{}}
	v.inodes[parent].children[name] = id
	return id
}

func (v *fakeVolume) addSymlink(parent uint64, name, target string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.inodes[id] = &fakeInode{id: id, isSymlink: true, target: target}
	v.inodes[parent].children[name] = id
	return id
}

func (v *fakeVolume) markStaleOnce(id uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.staleOnce[id] = true
}

func (v *fakeVolume) Root(ctx context.Context) (Inode, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	root := v.inodes[1]
	return Inode{ID: root.id, IsDir: true}, nil
}

func (v *fakeVolume) Lookup(ctx context.Context, parent Inode, name string) (Inode, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.staleOnce[parent.ID] && !v.staleCalled[parent.ID] {
		v.staleCalled[parent.ID] = true
		return Inode{}, ErrStale
	}

	p, ok := v.inodes[parent.ID]
	if !ok {
		return Inode{}, ErrStale
	}
	childID, ok := p.children[name]
	if !ok {
		return Inode{}, errNotFound
	}
	child := v.inodes[childID]
	return Inode{ID: child.id, IsDir: child.isDir, IsSymlink: child.isSymlink}, nil
}

func (v *fakeVolume) Readlink(ctx context.Context, link Inode) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	n, ok := v.inodes[link.ID]
	if !ok || !n.isSymlink {
		return "", errNotFound
	}
	return n.target, nil
}

type fakeVolumeSet struct {
	volumes map[string]Volume
}

func (s *fakeVolumeSet) Volume(name string) (Volume, bool) {
	v, ok := s.volumes[name]
	return v, ok
}

type notFoundError struct{}

func (notFoundError) Error() string { return "resolver test fixture: not found" }

var errNotFound = notFoundError{}
