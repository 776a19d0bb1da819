// Command sfs is a small CLI front-end over a SimpleFS container file.
package main

import (
	"fmt"
	"os"

	"github.com/allancalix/simplefs"
)

const usage = `sfs - SimpleFS CLI tool

Usage:
  sfs format <image>                 Format a new 64-block SFS container
  sfs ls <image> <path>              List the entries of a directory
  sfs touch <image> <path>           Create an empty regular file
  sfs cat <image> <path>             Display the contents of a file
  sfs info <image>                   Show superblock and inode counts
  sfs mount <image> <mountpoint>     Mount the volume over FUSE (built with -tags fuse)
  sfs help                           Show this help message

Examples:
  sfs format disk.img
  sfs touch disk.img /hello.txt
  sfs ls disk.img /
  sfs cat disk.img /hello.txt
`

// mountCommand is wired up by mount_fuse.go when built with -tags fuse.
// The default build has no FUSE binding linked in.
var mountCommand = func(image, mountpoint string) error {
	return fmt.Errorf("built without fuse support: rebuild with -tags fuse")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "format":
		if len(os.Args) < 3 {
			err = fmt.Errorf("missing image path")
			break
		}
		err = formatImage(os.Args[2])

	case "ls":
		if len(os.Args) < 4 {
			err = fmt.Errorf("usage: sfs ls <image> <path>")
			break
		}
		err = listDir(os.Args[2], os.Args[3])

	case "touch":
		if len(os.Args) < 4 {
			err = fmt.Errorf("usage: sfs touch <image> <path>")
			break
		}
		err = touchFile(os.Args[2], os.Args[3])

	case "cat":
		if len(os.Args) < 4 {
			err = fmt.Errorf("usage: sfs cat <image> <path>")
			break
		}
		err = catFile(os.Args[2], os.Args[3])

	case "info":
		if len(os.Args) < 3 {
			err = fmt.Errorf("missing image path")
			break
		}
		err = showInfo(os.Args[2])

	case "mount":
		if len(os.Args) < 4 {
			err = fmt.Errorf("usage: sfs mount <image> <mountpoint>")
			break
		}
		err = mountCommand(os.Args[2], os.Args[3])

	case "help":
		fmt.Println(usage)
		return

	default:
		fmt.Printf("Error: unknown command %q\n", cmd)
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// formatImage creates a fresh 64-block, 4KiB-block image file at path and
// formats it as a new SFS volume.
func formatImage(path string) error {
	const totalBlocks = 64

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}

	emu, err := simplefs.NewFileBlockEmulatorBuilder(f).
		BlockCount(totalBlocks).
		Build()
	if err != nil {
		return fmt.Errorf("build emulator: %w", err)
	}

	if _, err := simplefs.Create(emu); err != nil {
		return fmt.Errorf("format volume: %w", err)
	}
	fmt.Printf("formatted %s\n", path)
	return nil
}

func openImage(path string) (*simplefs.SFS, error) {
	emu, err := simplefs.OpenDisk(path, simplefs.DataBlocksCount+8)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return simplefs.Open(emu)
}

func listDir(image, path string) error {
	fsys, err := openImage(image)
	if err != nil {
		return err
	}

	inum, err := fsys.OpenFile(path, simplefs.DIRECTORY)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	entries, err := fsys.ReadDir(inum)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for name, child := range entries {
		node, err := fsys.Stat(child)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: stat inode %d failed: %s\n", child, err)
			continue
		}
		kind := "-"
		if node.IsDir() {
			kind = "d"
		}
		fmt.Printf("%s %8d %6d %s\n", kind, child, node.Size, name)
	}
	return nil
}

func touchFile(image, path string) error {
	fsys, err := openImage(image)
	if err != nil {
		return err
	}
	inum, err := fsys.OpenFile(path, simplefs.CREATE)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	fmt.Printf("created %s as inode %d\n", path, inum)
	return nil
}

func catFile(image, path string) error {
	fsys, err := openImage(image)
	if err != nil {
		return err
	}
	inum, err := fsys.OpenFile(path, simplefs.RO)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	data, err := fsys.ReadFile(inum)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func showInfo(image string) error {
	fsys, err := openImage(image)
	if err != nil {
		return err
	}

	root, err := fsys.Stat(0)
	if err != nil {
		return err
	}

	fmt.Println("SimpleFS Volume Information")
	fmt.Println("===========================")
	fmt.Printf("Inode count:       %d\n", simplefs.InodesCount)
	fmt.Printf("Data block count:  %d\n", simplefs.DataBlocksCount)
	fmt.Printf("Root inode mode:   0x%04x\n", root.Mode)
	return nil
}
