package simplefs

import (
	"bytes"
	"encoding/binary"
)

// NodeSize is the fixed on-disk size, in bytes, of one Inode record.
const NodeSize = 256

// NodesPerBlock is the number of packed Inode records per 4096-byte inode
// table block.
const NodesPerBlock = BlockSize / NodeSize

// inodePadding is the number of reserved u32 slots between the timestamp
// fields and the block pointer array, bringing the record to offset 196.
const inodePadding = 43

// BlocksPerInode is the number of direct data-block pointers an Inode
// carries. SimpleFS has no indirect blocks, so this also bounds the
// largest file/directory payload this implementation can store:
// BlocksPerInode * BlockSize bytes.
const BlocksPerInode = 15

// firstDataBlock is the lowest block index belonging to the data region;
// see spec.md's resolution of Open Question 2.
const firstDataBlock = 8

// totalBlocks is the fixed size of an SFS volume.
const totalBlocks = 64

// Inode is the fixed 256-byte on-disk record describing one file system
// object. All block pointers are direct: Blocks[i] == 0 means the slot is
// unallocated, and a non-zero value is only valid in [firstDataBlock,
// totalBlocks).
type Inode struct {
	Mode       uint16
	Uid        uint16
	Gid        uint16
	LinksCount uint16
	Size       uint32
	CreateTime uint32
	UpdateTime uint32
	AccessTime uint32
	Blocks     [BlocksPerInode]uint32
}

// rootInode returns the inode installed at inumber 0 by NewInodeGroup.
func rootInode() Inode {
	return Inode{Mode: S_IFDIR}
}

// defaultFileInode returns the inode installed by InodeGroup.NewFile.
func defaultFileInode() Inode {
	return Inode{Mode: S_IFREG}
}

// isDataBlockPointer reports whether p addresses the data region, per
// spec.md's resolution of Open Question 2: valid pointers are >= 8 and <
// 64; a pointer of exactly 0 means "unallocated slot" and is never itself
// a valid data block reference.
func isDataBlockPointer(p uint32) bool {
	return p >= firstDataBlock && p < totalBlocks
}

// ownedBlocks returns the inode's non-zero, in-range block pointers in
// array order.
func (n *Inode) ownedBlocks() []uint32 {
	var owned []uint32
	for _, p := range n.Blocks {
		if isDataBlockPointer(p) {
			owned = append(owned, p)
		}
	}
	return owned
}

// Serialize encodes the inode into its fixed 256-byte on-disk form.
func (n *Inode) Serialize() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, n.Mode)
	binary.Write(&buf, binary.LittleEndian, n.Uid)
	binary.Write(&buf, binary.LittleEndian, n.Gid)
	binary.Write(&buf, binary.LittleEndian, n.LinksCount)
	binary.Write(&buf, binary.LittleEndian, n.Size)
	binary.Write(&buf, binary.LittleEndian, n.CreateTime)
	binary.Write(&buf, binary.LittleEndian, n.UpdateTime)
	binary.Write(&buf, binary.LittleEndian, n.AccessTime)
	var padding [inodePadding]uint32
	binary.Write(&buf, binary.LittleEndian, padding)
	binary.Write(&buf, binary.LittleEndian, n.Blocks)
	return buf.Bytes()
}

// ParseInode decodes a 256-byte on-disk record. buf must be at least
// NodeSize bytes.
func ParseInode(buf []byte) Inode {
	var n Inode
	r := bytes.NewReader(buf[:NodeSize])
	binary.Read(r, binary.LittleEndian, &n.Mode)
	binary.Read(r, binary.LittleEndian, &n.Uid)
	binary.Read(r, binary.LittleEndian, &n.Gid)
	binary.Read(r, binary.LittleEndian, &n.LinksCount)
	binary.Read(r, binary.LittleEndian, &n.Size)
	binary.Read(r, binary.LittleEndian, &n.CreateTime)
	binary.Read(r, binary.LittleEndian, &n.UpdateTime)
	binary.Read(r, binary.LittleEndian, &n.AccessTime)
	var padding [inodePadding]uint32
	binary.Read(r, binary.LittleEndian, &padding)
	binary.Read(r, binary.LittleEndian, &n.Blocks)
	return n
}

// IsDir reports whether this inode describes a directory.
func (n *Inode) IsDir() bool {
	return n.Mode == S_IFDIR
}
