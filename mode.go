package simplefs

import (
	"io/fs"
)

// On-disk mode bits. SimpleFS only ever stores these two file types;
// symlinks, devices and sockets are explicit non-goals.
const (
	S_IFREG = 0x2000
	S_IFDIR = 0x4000
)

// UnixToMode converts an on-disk mode word into an io/fs.FileMode carrying
// only the type bit (permissions are not enforced by this file system).
func UnixToMode(mode uint16) fs.FileMode {
	switch mode {
	case S_IFDIR:
		return fs.ModeDir
	case S_IFREG:
		return 0
	default:
		return fs.ModeIrregular
	}
}

// ModeToUnix is the inverse of UnixToMode.
func ModeToUnix(mode fs.FileMode) uint16 {
	if mode&fs.ModeDir == fs.ModeDir {
		return S_IFDIR
	}
	return S_IFREG
}
