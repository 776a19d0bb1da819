//go:build linux || darwin

package simplefs

import "golang.org/x/sys/unix"

// SyncDisk flushes outstanding writes through to durable storage. On unix
// this issues fdatasync(2) directly rather than relying solely on
// (*os.File).Sync, matching the real block-device durability barrier this
// type is meant to emulate.
func (e *FileBlockEmulator) SyncDisk() error {
	return unix.Fdatasync(int(e.fd.Fd()))
}
