package simplefs

// BlockNumber identifies a block on a BlockStorage device, ranging from 0
// (the first block) to n-1 where n is the number of blocks the device
// exposes.
type BlockNumber = uint32

// BlockSize is the fixed size, in bytes, of every block on an SFS volume.
const BlockSize = 4096

// BlockStorage is the contract every block device backend must satisfy.
// Tried to map as closely as possible to the classic file-system-course
// interface (http://web.mit.edu/6.033/1997/handouts/html/04sfs.html) while
// staying idiomatic Go.
//
// SimpleFS ships exactly one implementation, FileBlockEmulator; other
// backends (a real block device, a network-backed store) are out of scope
// for this repository and only need to satisfy this interface.
type BlockStorage interface {
	// ReadBlock reads exactly BlockSize bytes at block n into buf. It
	// fails with ErrOutOfRange if n is not addressable, and with
	// ErrBufferTooSmall if len(buf) < BlockSize.
	ReadBlock(n BlockNumber, buf []byte) error

	// WriteBlock writes min(BlockSize, len(buf)) bytes at block n. A
	// write shorter than a full block leaves the remainder of the block
	// untouched on disk. Fails with ErrOutOfRange if n is not
	// addressable.
	WriteBlock(n BlockNumber, buf []byte) error

	// SyncDisk flushes any outstanding writes through to durable
	// storage. It is the only durability barrier this interface offers.
	SyncDisk() error
}
