package simplefs

// InodeGroup is the in-memory cache of the inode table, paired with the
// allocation bitmap that tracks which inumbers are live.
type InodeGroup struct {
	nodes map[uint32]*Inode
	alloc *Bitmap
}

// blockOf returns the inode-table disk block containing inumber inum.
func blockOf(inum uint32) uint32 {
	return 3 + inum/NodesPerBlock
}

// offsetOf returns the byte offset of inumber inum within its inode-table
// block.
func offsetOf(inum uint32) uint32 {
	return (inum % NodesPerBlock) * NodeSize
}

// NewInodeGroup constructs the in-memory inode table for a freshly
// formatted volume: it seeds the map with the root inode at inumber 0 and
// marks bit 0 reserved in the allocation bitmap (invariant BM1).
func NewInodeGroup(alloc *Bitmap) *InodeGroup {
	g := &InodeGroup{nodes: make(map[uint32]*Inode), alloc: alloc}
	root := rootInode()
	g.nodes[0] = &root
	g.alloc.SetReserved(0)
	return g
}

// OpenInodeGroup constructs an empty inode table for mounting an existing
// volume. Callers must call LoadBlock for each of the five inode-table
// blocks before using the group.
func OpenInodeGroup(alloc *Bitmap) *InodeGroup {
	return &InodeGroup{nodes: make(map[uint32]*Inode), alloc: alloc}
}

// LoadBlock parses one inode-table disk block (disk block index 0..4,
// relative to the start of the inode table) and inserts every inode whose
// bit is set in the allocation bitmap into the in-memory map. buf must be
// exactly BlockSize bytes.
func (g *InodeGroup) LoadBlock(diskOffset uint32, buf []byte) {
	start := diskOffset * NodesPerBlock
	for i := start; i < start+NodesPerBlock; i++ {
		if g.alloc.Get(int(i)) != Used {
			continue
		}
		off := offsetOf(i)
		n := ParseInode(buf[off : off+NodeSize])
		g.nodes[i] = &n
	}
}

// SerializeBlock copies every present inode whose inumber falls in
// [diskOffset*16, (diskOffset+1)*16) into its correct 256-byte slot,
// leaving unused slots zeroed.
func (g *InodeGroup) SerializeBlock(diskOffset uint32) []byte {
	buf := make([]byte, BlockSize)
	start := diskOffset * NodesPerBlock
	end := start + NodesPerBlock
	for i := start; i < end; i++ {
		n, ok := g.nodes[i]
		if !ok {
			continue
		}
		off := offsetOf(i)
		copy(buf[off:off+NodeSize], n.Serialize())
	}
	return buf
}

// Get returns the inode at inumber, or false if it is not present.
func (g *InodeGroup) Get(inum uint32) (*Inode, bool) {
	n, ok := g.nodes[inum]
	return n, ok
}

// NewFile scans the allocation bitmap for the lowest free inumber in
// [0, InodesCount), installs a default regular-file inode there, marks
// the bit reserved and returns the inumber. It panics if the inode table
// is exhausted, matching spec.md's treatment of allocator exhaustion as a
// genuine invariant violation rather than a routine error.
func (g *InodeGroup) NewFile() uint32 {
	alloc := g.alloc.NextAvailableAllocation(int(InodesCount))
	idx, ok := alloc.Next()
	if !ok {
		panic(ErrNoFreeInodes)
	}
	g.alloc.SetReserved(idx)
	n := defaultFileInode()
	g.nodes[uint32(idx)] = &n
	return uint32(idx)
}

// Allocations returns the inode allocation bitmap backing this group.
func (g *InodeGroup) Allocations() *Bitmap {
	return g.alloc
}

// TotalNodes returns the number of inodes currently present in the group.
func (g *InodeGroup) TotalNodes() int {
	return len(g.nodes)
}
