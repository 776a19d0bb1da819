package simplefs

import "log"

// Fixed block map. See spec.md section 3.
const (
	superblockIndex  BlockNumber = 0
	dataBitmapIndex  BlockNumber = 1
	inodeBitmapIndex BlockNumber = 2
	inodeTableStart  BlockNumber = 3
	inodeTableBlocks             = 5
)

// OpenMode encodes open(2)-style call options
// (http://man7.org/linux/man-pages/man2/open.2.html). RO, WO, RW and
// DIRECTORY all share "must already exist" traversal semantics in this
// minimal core; only CREATE causes a missing terminal path component to
// be created.
type OpenMode int

const (
	RO OpenMode = iota
	WO
	RW
	DIRECTORY
	CREATE
)

// SFS is a fixed 64-block, 4KiB-block file system: one superblock, one
// data-region allocation bitmap, one inode allocation bitmap, five inode
// table blocks (80 inodes total), and 56 data blocks.
type SFS struct {
	dev     BlockStorage
	super   SuperBlock
	dataMap *Bitmap
	inodes  *InodeGroup
	log     *log.Logger
}

// Create formats a freshly cleared block storage device and returns a
// mounted handle to it.
//
// Layout:
//
//	==============================================================================
//	| SuperBlock | Bitmap (data region) | Bitmap (inodes) | Inodes | Data Region |
//	==============================================================================
func Create(dev BlockStorage, opts ...Option) (*SFS, error) {
	fsys := &SFS{dev: dev, log: defaultLogger()}
	for _, opt := range opts {
		if err := opt(fsys); err != nil {
			return nil, err
		}
	}

	fsys.super = DefaultSuperBlock()
	block := make([]byte, BlockSize)
	copy(block, fsys.super.Serialize())
	if err := fsys.writeBlock(superblockIndex, block); err != nil {
		return nil, err
	}

	fsys.dataMap = NewBitmap()
	if err := fsys.writeBlock(dataBitmapIndex, fsys.dataMap.Serialize()); err != nil {
		return nil, err
	}

	fsys.inodes = NewInodeGroup(NewBitmap())
	if err := fsys.writeBlock(inodeBitmapIndex, fsys.inodes.Allocations().Serialize()); err != nil {
		return nil, err
	}
	if err := fsys.writeBlock(inodeTableStart, fsys.inodes.SerializeBlock(0)); err != nil {
		return nil, err
	}

	if err := fsys.dev.SyncDisk(); err != nil {
		return nil, invalidBlock(err)
	}

	fsys.log.Printf("formatted volume: %d inodes, %d data blocks", InodesCount, DataBlocksCount)
	return fsys, nil
}

// Open mounts an existing, previously formatted volume, verifying the
// superblock magic.
func Open(dev BlockStorage, opts ...Option) (*SFS, error) {
	fsys := &SFS{dev: dev, log: defaultLogger()}
	for _, opt := range opts {
		if err := opt(fsys); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, BlockSize)
	if err := fsys.readBlock(superblockIndex, buf); err != nil {
		return nil, err
	}
	super, err := ParseSuperBlock(buf, SBMagic)
	if err != nil {
		return nil, invalidBlock(err)
	}
	fsys.super = super

	if err := fsys.readBlock(dataBitmapIndex, buf); err != nil {
		return nil, err
	}
	fsys.dataMap = ParseBitmap(buf)

	if err := fsys.readBlock(inodeBitmapIndex, buf); err != nil {
		return nil, err
	}
	fsys.inodes = OpenInodeGroup(ParseBitmap(buf))

	for i := 0; i < inodeTableBlocks; i++ {
		if err := fsys.readBlock(inodeTableStart+BlockNumber(i), buf); err != nil {
			return nil, err
		}
		fsys.inodes.LoadBlock(uint32(i), buf)
	}

	fsys.log.Printf("mounted volume: %d inodes present", fsys.inodes.TotalNodes())
	return fsys, nil
}

// OpenFile walks an absolute path, returning the inumber of the resolved
// object. With CREATE, a missing terminal path component is allocated as
// a regular file; intermediate missing components always fail with
// ErrDoesNotExist regardless of mode. Opening "/" returns inumber 0
// immediately.
func (fsys *SFS) OpenFile(path string, mode OpenMode) (uint32, error) {
	parts, err := splitPath(path)
	if err != nil {
		return 0, err
	}

	cur := uint32(0)
	for i, name := range parts {
		if !validName(name) {
			return 0, &InvalidArgumentError{Message: "invalid path component: " + name}
		}

		entries, err := fsys.ReadDir(cur)
		if err != nil {
			return 0, err
		}

		if next, ok := entries[name]; ok {
			cur = next
			continue
		}

		if mode != CREATE || i != len(parts)-1 {
			return 0, ErrDoesNotExist
		}

		newInum, err := fsys.createEntry(cur, name)
		if err != nil {
			return 0, err
		}
		fsys.log.Printf("created %s as inode %d", path, newInum)
		return newInum, nil
	}

	return cur, nil
}

// createEntry allocates a new regular-file inode, links it into parent's
// directory entries under name, and performs the writeback spec.md
// section 4.4.7 requires on every inode allocation: the parent's
// directory data, the new inode's own inode-table block, and the inode
// allocation bitmap are all made durable before this returns.
func (fsys *SFS) createEntry(parent uint32, name string) (uint32, error) {
	entries, err := fsys.ReadDir(parent)
	if err != nil {
		return 0, err
	}

	newInum := fsys.inodes.NewFile()
	entries[name] = newInum
	if err := fsys.WriteDir(parent, entries); err != nil {
		return 0, err
	}
	if err := fsys.flushInodeTableBlock(newInum); err != nil {
		return 0, err
	}
	if err := fsys.flushInodeBitmap(); err != nil {
		return 0, err
	}
	if err := fsys.dev.SyncDisk(); err != nil {
		return 0, invalidBlock(err)
	}
	return newInum, nil
}

// ReadDir reads and decodes the directory contents of inum.
func (fsys *SFS) ReadDir(inum uint32) (map[string]uint32, error) {
	payload, err := fsys.ReadFile(inum)
	if err != nil {
		return nil, err
	}
	return decodeDir(payload), nil
}

// WriteDir serializes entries and writes them back to inum's data blocks,
// allocating additional data blocks from the data-region bitmap if the
// payload no longer fits in the blocks the inode already owns. It updates
// the inode's Size field to the exact payload length (spec.md Open
// Question 4) and flushes the inode-table block holding inum.
func (fsys *SFS) WriteDir(inum uint32, entries map[string]uint32) error {
	node, ok := fsys.inodes.Get(inum)
	if !ok {
		return ErrDoesNotExist
	}

	payload := encodeDir(entries)
	needed := 1 + len(payload)/BlockSize

	owned := node.ownedBlocks()
	grew := false
	if len(owned) < needed {
		grew = true
		alloc := fsys.dataMap.NextAvailableAllocation(int(DataBlocksCount))
		for len(owned) < needed {
			idx, ok := alloc.Next()
			if !ok {
				return ErrNoFreeBlocks
			}
			fsys.dataMap.SetReserved(idx)
			owned = append(owned, uint32(idx)+firstDataBlock)
		}
		n := len(owned)
		if n > BlocksPerInode {
			n = BlocksPerInode
		}
		copy(node.Blocks[:], owned[:n])
	}

	for k := 0; k < needed; k++ {
		start := k * BlockSize
		end := start + BlockSize
		if end > len(payload) {
			end = len(payload)
		}
		if err := fsys.writeBlock(owned[k], payload[start:end]); err != nil {
			return err
		}
	}

	node.Size = uint32(len(payload))
	if err := fsys.flushInodeTableBlock(inum); err != nil {
		return err
	}
	if grew {
		if err := fsys.flushDataBitmap(); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile gathers every data block owned by inum, in array order, and
// returns their concatenated contents. The result length is exactly
// len(owned)*BlockSize; the inode's Size field (the exact byte length
// last written) is not consulted here, matching spec.md's block-aligned
// read contract.
func (fsys *SFS) ReadFile(inum uint32) ([]byte, error) {
	node, ok := fsys.inodes.Get(inum)
	if !ok {
		return nil, ErrDoesNotExist
	}

	owned := node.ownedBlocks()
	buf := make([]byte, len(owned)*BlockSize)
	for i, blk := range owned {
		if err := fsys.readBlock(blk, buf[i*BlockSize:(i+1)*BlockSize]); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Stat returns the inode for inum, or ErrDoesNotExist if it is absent.
func (fsys *SFS) Stat(inum uint32) (*Inode, error) {
	node, ok := fsys.inodes.Get(inum)
	if !ok {
		return nil, ErrDoesNotExist
	}
	return node, nil
}

func (fsys *SFS) flushInodeTableBlock(inum uint32) error {
	block := blockOf(inum)
	return fsys.writeBlock(block, fsys.inodes.SerializeBlock(block-inodeTableStart))
}

func (fsys *SFS) flushInodeBitmap() error {
	return fsys.writeBlock(inodeBitmapIndex, fsys.inodes.Allocations().Serialize())
}

func (fsys *SFS) flushDataBitmap() error {
	return fsys.writeBlock(dataBitmapIndex, fsys.dataMap.Serialize())
}

func (fsys *SFS) readBlock(n BlockNumber, buf []byte) error {
	if err := fsys.dev.ReadBlock(n, buf); err != nil {
		return invalidBlock(err)
	}
	return nil
}

func (fsys *SFS) writeBlock(n BlockNumber, buf []byte) error {
	if err := fsys.dev.WriteBlock(n, buf); err != nil {
		return invalidBlock(err)
	}
	return nil
}
