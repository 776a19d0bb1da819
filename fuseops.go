//go:build fuse

package simplefs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// fsNode adapts one SFS inumber to go-fuse's node-based filesystem API
// (github.com/hanwen/go-fuse/v2/fs). It carries no state or caching logic
// of its own beyond the inumber it represents: every call is translated
// directly into an SFS core operation, a thin adapter over the core read
// path.
type fsNode struct {
	fs.Inode
	sfs  *SFS
	inum uint32
}

var (
	_ fs.NodeGetattrer = (*fsNode)(nil)
	_ fs.NodeLookuper  = (*fsNode)(nil)
	_ fs.NodeReaddirer = (*fsNode)(nil)
	_ fs.NodeOpener    = (*fsNode)(nil)
	_ fs.NodeReader    = (*fsNode)(nil)
	_ fs.NodeCreater   = (*fsNode)(nil)
)

// Mount exposes a mounted SFS handle at mountpoint using the host kernel's
// FUSE driver. This is the "external caller" spec.md describes: it knows
// nothing about block layout or inode tables, only Stat/ReadDir/ReadFile/
// createEntry.
func Mount(mountpoint string, sfs *SFS, opts *fs.Options) (*fuse.Server, error) {
	root := &fsNode{sfs: sfs, inum: 0}
	return fs.Mount(mountpoint, root, opts)
}

func (n *fsNode) attr(node *Inode, out *fuse.Attr) {
	out.Ino = uint64(n.inum)
	out.Size = uint64(node.Size)
	out.Mode = uint32(UnixToMode(node.Mode)) | 0644
	if node.IsDir() {
		out.Mode = uint32(UnixToMode(node.Mode)) | 0755
	}
	out.Nlink = 1
}

func (n *fsNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	node, err := n.sfs.Stat(n.inum)
	if err != nil {
		return syscall.ENOENT
	}
	n.attr(node, &out.Attr)
	return fs.OK
}

func (n *fsNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	entries, err := n.sfs.ReadDir(n.inum)
	if err != nil {
		return nil, syscall.ENOENT
	}
	inum, ok := entries[name]
	if !ok {
		return nil, syscall.ENOENT
	}
	node, err := n.sfs.Stat(inum)
	if err != nil {
		return nil, syscall.ENOENT
	}

	child := &fsNode{sfs: n.sfs, inum: inum}
	n.attr(node, &out.Attr)

	mode := uint32(syscall.S_IFREG)
	if node.IsDir() {
		mode = syscall.S_IFDIR
	}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: mode, Ino: uint64(inum)}), fs.OK
}

func (n *fsNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.sfs.ReadDir(n.inum)
	if err != nil {
		return nil, syscall.ENOENT
	}

	list := make([]fuse.DirEntry, 0, len(entries))
	for name, inum := range entries {
		mode := uint32(syscall.S_IFREG)
		if node, err := n.sfs.Stat(inum); err == nil && node.IsDir() {
			mode = syscall.S_IFDIR
		}
		list = append(list, fuse.DirEntry{Name: name, Ino: uint64(inum), Mode: mode})
	}
	return fs.NewListDirStream(list), fs.OK
}

// Open always succeeds: SFS is read-after-write consistent in memory, so
// there is nothing to prepare on open. Tell the kernel it may cache reads
// between opens via FOPEN_KEEP_CACHE.
func (n *fsNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_KEEP_CACHE, fs.OK
}

func (n *fsNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := n.sfs.ReadFile(n.inum)
	if err != nil {
		return nil, syscall.EIO
	}
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil), fs.OK
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end]), fs.OK
}

// Create allocates a new regular file as a child of n, matching
// OpenFile(path, CREATE)'s terminal-component semantics without
// re-walking the path from the root.
func (n *fsNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	if !validName(name) {
		return nil, nil, 0, syscall.EINVAL
	}
	inum, err := n.sfs.createEntry(n.inum, name)
	if err != nil {
		return nil, nil, 0, syscall.EIO
	}

	node, err := n.sfs.Stat(inum)
	if err != nil {
		return nil, nil, 0, syscall.EIO
	}
	child := &fsNode{sfs: n.sfs, inum: inum}
	n.attr(node, &out.Attr)
	stable := fs.StableAttr{Mode: syscall.S_IFREG, Ino: uint64(inum)}
	return n.NewInode(ctx, child, stable), nil, 0, fs.OK
}
