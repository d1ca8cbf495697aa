//go:build linux

package magicmount

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// unixMounter issues real syscalls.
type unixMounter struct{}

var _ Mounter = unixMounter{}

// NewMounter returns the Mounter for the running platform.
func NewMounter() Mounter {
	return unixMounter{}
}

func (unixMounter) BindMount(src, dst string) error {
	if err := unix.Mount(src, dst, "", unix.MS_BIND, ""); err != nil {
		return fmt.Errorf("bind %s on %s: %w", src, dst, err)
	}
	return nil
}

func (unixMounter) MountTmpfs(dst string) error {
	if err := unix.Mount("tmpfs", dst, "tmpfs", 0, ""); err != nil {
		return fmt.Errorf("mount tmpfs on %s: %w", dst, err)
	}
	return nil
}

func (unixMounter) Mkdir(path string, mode uint32) error {
	if err := unix.Mkdir(path, mode); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

func (unixMounter) CreateFile(path string) error {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CREAT|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return unix.Close(fd)
}

func (unixMounter) Symlink(target, link string) error {
	if err := unix.Symlink(target, link); err != nil {
		return fmt.Errorf("symlink %s -> %s: %w", link, target, err)
	}
	return nil
}

func (unixMounter) CopyLink(src, dst string) error {
	return copyLink(src, dst)
}

func (unixMounter) GetAttr(path string) (*FileAttr, error) {
	return getAttr(path)
}

func (unixMounter) SetAttr(path string, attr *FileAttr) error {
	return setAttr(path, attr)
}
