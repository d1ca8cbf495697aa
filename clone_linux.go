//go:build linux

package magicmount

import (
	"fmt"
	"os"

	"github.com/opencontainers/selinux/go-selinux"
	"golang.org/x/sys/unix"
)

// getAttr reads mode, ownership and, when SELinux is enabled, the security
// label of path. Symlinks are not followed.
func getAttr(path string) (*FileAttr, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return nil, fmt.Errorf("lstat %s: %w", path, err)
	}
	attr := &FileAttr{
		Mode: st.Mode & 07777,
		UID:  int(st.Uid),
		GID:  int(st.Gid),
	}
	if selinux.GetEnabled() {
		label, err := selinux.LfileLabel(path)
		if err != nil {
			return nil, fmt.Errorf("read label of %s: %w", path, err)
		}
		attr.Label = label
	}
	return attr, nil
}

// setAttr applies attr to path. The mode is skipped for symlinks, whose
// permission bits cannot be changed.
func setAttr(path string, attr *FileAttr) error {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return fmt.Errorf("lstat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFLNK {
		if err := unix.Chmod(path, attr.Mode); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
	}
	if err := unix.Lchown(path, attr.UID, attr.GID); err != nil {
		return fmt.Errorf("chown %s: %w", path, err)
	}
	if attr.Label != "" && selinux.GetEnabled() {
		if err := selinux.LsetFileLabel(path, attr.Label); err != nil {
			return fmt.Errorf("set label of %s: %w", path, err)
		}
	}
	return nil
}

// copyLink recreates the symlink src at dst and carries over its owner and
// label.
func copyLink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("readlink %s: %w", src, err)
	}
	attr, err := getAttr(src)
	if err != nil {
		return err
	}
	if err := unix.Symlink(target, dst); err != nil {
		return fmt.Errorf("symlink %s -> %s: %w", dst, target, err)
	}
	return setAttr(dst, attr)
}
