package magicmount

import (
	"io/fs"
	"os"
	"sort"

	"github.com/absfs/absfs"
)

// listDir returns the entries of the named directory sorted by name.
//
// Filesystems that can list directories directly are asked to; the rest are
// read through Open + Readdir. Entry types must not follow symlinks, which
// holds for both paths on HostFS and memfs.
func listDir(fsys absfs.FileSystem, name string) ([]fs.DirEntry, error) {
	var entries []fs.DirEntry
	if reader, ok := fsys.(interface {
		ReadDir(string) ([]fs.DirEntry, error)
	}); ok {
		var err error
		entries, err = reader.ReadDir(name)
		if err != nil {
			return nil, err
		}
	} else {
		dir, err := fsys.Open(name)
		if err != nil {
			return nil, err
		}
		infos, err := dir.Readdir(-1)
		dir.Close()
		if err != nil {
			return nil, err
		}
		entries = make([]fs.DirEntry, 0, len(infos))
		for _, info := range infos {
			if name := info.Name(); name == "." || name == ".." {
				continue
			}
			entries = append(entries, fs.FileInfoToDirEntry(info))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// isDir reports whether name is a directory that is not a symlink.
func isDir(fsys absfs.FileSystem, name string) bool {
	info, err := lstat(fsys, name)
	return err == nil && info.Mode().IsDir()
}

// exists reports whether name can be lstat'ed.
func exists(fsys absfs.FileSystem, name string) bool {
	_, err := lstat(fsys, name)
	return err == nil || !os.IsNotExist(err)
}
