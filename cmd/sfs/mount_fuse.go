//go:build fuse

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/allancalix/simplefs"
	fusefs "github.com/hanwen/go-fuse/v2/fs"
)

func init() {
	mountCommand = runMount
}

func runMount(image, mountpoint string) error {
	fsys, err := openImage(image)
	if err != nil {
		return err
	}

	server, err := simplefs.Mount(mountpoint, fsys, &fusefs.Options{})
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		server.Unmount()
	}()

	fmt.Printf("mounted %s at %s (ctrl-c to unmount)\n", image, mountpoint)
	server.Wait()
	return nil
}
