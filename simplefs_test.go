package simplefs_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/allancalix/simplefs"
)

const testBlocks = simplefs.DataBlocksCount + 8

func newImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.img")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	if _, err := simplefs.NewFileBlockEmulatorBuilder(f).BlockCount(testBlocks).Build(); err != nil {
		t.Fatalf("Build: %s", err)
	}
	return path
}

func formatted(t *testing.T) (*simplefs.SFS, string) {
	t.Helper()
	path := newImage(t)
	emu, err := simplefs.OpenDisk(path, testBlocks)
	if err != nil {
		t.Fatalf("OpenDisk: %s", err)
	}
	fsys, err := simplefs.Create(emu)
	if err != nil {
		t.Fatalf("Create: %s", err)
	}
	return fsys, path
}

// Scenario 1: format-and-root.
func TestCreateInstallsRootDirectory(t *testing.T) {
	fsys, _ := formatted(t)

	node, err := fsys.Stat(0)
	if err != nil {
		t.Fatalf("Stat(0): %s", err)
	}
	if !node.IsDir() {
		t.Fatalf("inode 0 is not a directory")
	}

	inum, err := fsys.OpenFile("/", simplefs.DIRECTORY)
	if err != nil {
		t.Fatalf("OpenFile(/): %s", err)
	}
	if inum != 0 {
		t.Fatalf("OpenFile(/) = %d, want 0", inum)
	}
}

// Scenario 2: missing file without create.
func TestOpenFileMissingWithoutCreateFails(t *testing.T) {
	fsys, _ := formatted(t)

	_, err := fsys.OpenFile("/nope.txt", simplefs.RO)
	if err != simplefs.ErrDoesNotExist {
		t.Fatalf("OpenFile error = %v, want ErrDoesNotExist", err)
	}
}

// Scenario 3: create a single file.
func TestOpenFileCreateAllocatesRegularFile(t *testing.T) {
	fsys, _ := formatted(t)

	inum, err := fsys.OpenFile("/hello.txt", simplefs.CREATE)
	if err != nil {
		t.Fatalf("OpenFile(CREATE): %s", err)
	}
	if inum == 0 {
		t.Fatalf("new file reused root inumber")
	}

	node, err := fsys.Stat(inum)
	if err != nil {
		t.Fatalf("Stat: %s", err)
	}
	if node.IsDir() {
		t.Fatalf("created file has directory mode")
	}

	entries, err := fsys.ReadDir(0)
	if err != nil {
		t.Fatalf("ReadDir(0): %s", err)
	}
	if entries["hello.txt"] != inum {
		t.Fatalf("root directory missing entry for hello.txt")
	}
}

// Scenario 8 / P8: creation idempotence within a session.
func TestOpenFileCreateIsIdempotentWithoutIntervention(t *testing.T) {
	fsys, _ := formatted(t)

	first, err := fsys.OpenFile("/foo", simplefs.CREATE)
	if err != nil {
		t.Fatalf("first OpenFile(CREATE): %s", err)
	}
	second, err := fsys.OpenFile("/foo", simplefs.CREATE)
	if err != nil {
		t.Fatalf("second OpenFile(CREATE): %s", err)
	}
	if first != second {
		t.Fatalf("OpenFile(CREATE) returned %d then %d for the same path", first, second)
	}
}

// Scenario 4 / P5: persistence across reopen.
func TestVolumePersistsAcrossReopen(t *testing.T) {
	fsys, path := formatted(t)

	inum, err := fsys.OpenFile("/hello.txt", simplefs.CREATE)
	if err != nil {
		t.Fatalf("OpenFile(CREATE): %s", err)
	}

	emu, err := simplefs.OpenDisk(path, testBlocks)
	if err != nil {
		t.Fatalf("OpenDisk: %s", err)
	}
	reopened, err := simplefs.Open(emu)
	if err != nil {
		t.Fatalf("Open: %s", err)
	}

	entries, err := reopened.ReadDir(0)
	if err != nil {
		t.Fatalf("ReadDir(0) after reopen: %s", err)
	}
	if entries["hello.txt"] != inum {
		t.Fatalf("hello.txt missing or renumbered after reopen: got %v", entries)
	}
}

// P5 applied directly: total_nodes() == 1 immediately after create+open.
func TestFreshMountHasOnlyRootNode(t *testing.T) {
	_, path := formatted(t)

	emu, err := simplefs.OpenDisk(path, testBlocks)
	if err != nil {
		t.Fatalf("OpenDisk: %s", err)
	}
	fsys, err := simplefs.Open(emu)
	if err != nil {
		t.Fatalf("Open: %s", err)
	}

	if _, err := fsys.Stat(0); err != nil {
		t.Fatalf("Stat(0): %s", err)
	}
	for i := uint32(1); i < simplefs.InodesCount; i++ {
		if _, err := fsys.Stat(i); err != simplefs.ErrDoesNotExist {
			t.Fatalf("Stat(%d) error = %v on a fresh mount, want ErrDoesNotExist", i, err)
		}
	}
}

// P6: open on a zeroed container fails with an invalid superblock magic.
func TestOpenRejectsZeroedContainer(t *testing.T) {
	path := newImage(t)

	emu, err := simplefs.OpenDisk(path, testBlocks)
	if err != nil {
		t.Fatalf("OpenDisk: %s", err)
	}
	_, err = simplefs.Open(emu)
	if err == nil {
		t.Fatalf("Open on a zeroed container succeeded")
	}
	var blockErr *simplefs.InvalidBlockError
	if !errors.As(err, &blockErr) {
		t.Fatalf("Open error = %v (%T), want *InvalidBlockError", err, err)
	}
}

// Scenario 5 / P7: block-range enforcement.
func TestBlockRangeEnforcement(t *testing.T) {
	path := newImage(t)
	emu, err := simplefs.OpenDisk(path, 4)
	if err != nil {
		t.Fatalf("OpenDisk: %s", err)
	}

	buf := make([]byte, simplefs.BlockSize)
	if err := emu.ReadBlock(10, buf); err != simplefs.ErrOutOfRange {
		t.Errorf("ReadBlock(10) on a 4-block device error = %v, want ErrOutOfRange", err)
	}
	if err := emu.WriteBlock(10, buf); err != simplefs.ErrOutOfRange {
		t.Errorf("WriteBlock(10) on a 4-block device error = %v, want ErrOutOfRange", err)
	}
}

// Scenario 6: invalid path.
func TestOpenFileRejectsRelativePath(t *testing.T) {
	fsys, _ := formatted(t)

	_, err := fsys.OpenFile("relative/path.txt", simplefs.CREATE)
	var argErr *simplefs.InvalidArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("OpenFile with relative path error = %v, want *InvalidArgumentError", err)
	}
}

// Scenario 7: nested directories. Only the terminal path component may be
// created; a missing intermediate directory always fails, even in CREATE
// mode.
func TestOpenFileNeverCreatesIntermediateComponents(t *testing.T) {
	fsys, _ := formatted(t)

	_, err := fsys.OpenFile("/missing-dir/file.txt", simplefs.CREATE)
	if err != simplefs.ErrDoesNotExist {
		t.Fatalf("OpenFile with missing intermediate dir error = %v, want ErrDoesNotExist", err)
	}
}

func TestReadWriteFileRoundTrip(t *testing.T) {
	fsys, _ := formatted(t)

	inum, err := fsys.OpenFile("/data.bin", simplefs.CREATE)
	if err != nil {
		t.Fatalf("OpenFile(CREATE): %s", err)
	}

	payload := map[string]uint32{"a": 1, "b": 2}
	if err := fsys.WriteDir(inum, payload); err != nil {
		t.Fatalf("WriteDir: %s", err)
	}

	got, err := fsys.ReadDir(inum)
	if err != nil {
		t.Fatalf("ReadDir: %s", err)
	}
	if len(got) != len(payload) {
		t.Fatalf("ReadDir returned %d entries, want %d", len(got), len(payload))
	}
	for name, want := range payload {
		if got[name] != want {
			t.Errorf("entry %q = %d, want %d", name, got[name], want)
		}
	}
}
