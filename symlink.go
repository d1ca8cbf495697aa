package magicmount

import (
	"os"

	"github.com/absfs/absfs"
)

// lstat returns file info without following a trailing symlink when the
// filesystem supports it, and falls back to Stat otherwise.
func lstat(fsys absfs.FileSystem, name string) (os.FileInfo, error) {
	if lstater, ok := fsys.(interface {
		Lstat(string) (os.FileInfo, error)
	}); ok {
		return lstater.Lstat(name)
	}
	return fsys.Stat(name)
}
