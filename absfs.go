package magicmount

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/absfs/absfs"
)

// HostFS is an absfs.FileSystem backed by the operating system, rooted at
// a directory. Virtual paths are absolute and always use forward slashes;
// "/system" on a HostFS rooted at "/" is the real /system.
//
// On top of the absfs.FileSystem methods it exposes Lstat and ReadDir,
// which the collector and preparer use so that symlinks are never followed.
type HostFS struct {
	absfs.FileSystem
	root string
}

// hostFiler implements absfs.Filer over the os package.
type hostFiler struct {
	root string
}

// Ensure hostFiler implements absfs.Filer interface at compile time
var _ absfs.Filer = (*hostFiler)(nil)

// NewHostFS returns a HostFS rooted at root. Use "/" for the real root.
func NewHostFS(root string) *HostFS {
	root = filepath.Clean(root)
	return &HostFS{
		FileSystem: absfs.ExtendFiler(&hostFiler{root: root}),
		root:       root,
	}
}

// Root returns the host directory the filesystem is rooted at.
func (h *HostFS) Root() string { return h.root }

// Lstat returns file info without following a trailing symlink.
func (h *HostFS) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(hostPath(h.root, name))
}

// ReadDir lists a directory. Entry types come from the directory itself,
// so symlinks are reported as symlinks.
func (h *HostFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(hostPath(h.root, name))
}

// hostPath maps a virtual path onto the host. Paths cannot escape root.
func hostPath(root, name string) string {
	return filepath.Join(root, filepath.FromSlash(cleanPath(name)))
}

// cleanPath normalizes a virtual path to an absolute, clean form.
func cleanPath(name string) string {
	return filepath.ToSlash(filepath.Clean("/" + name))
}

// OpenFile implements absfs.Filer
func (f *hostFiler) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	return os.OpenFile(hostPath(f.root, name), flag, perm)
}

// Mkdir implements absfs.Filer
func (f *hostFiler) Mkdir(name string, perm os.FileMode) error {
	return os.Mkdir(hostPath(f.root, name), perm)
}

// Remove implements absfs.Filer
func (f *hostFiler) Remove(name string) error {
	return os.Remove(hostPath(f.root, name))
}

// Rename implements absfs.Filer
func (f *hostFiler) Rename(oldpath, newpath string) error {
	return os.Rename(hostPath(f.root, oldpath), hostPath(f.root, newpath))
}

// Stat implements absfs.Filer
func (f *hostFiler) Stat(name string) (os.FileInfo, error) {
	return os.Stat(hostPath(f.root, name))
}

// Chmod implements absfs.Filer
func (f *hostFiler) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(hostPath(f.root, name), mode)
}

// Chtimes implements absfs.Filer
func (f *hostFiler) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return os.Chtimes(hostPath(f.root, name), atime, mtime)
}

// Chown implements absfs.Filer
func (f *hostFiler) Chown(name string, uid, gid int) error {
	return os.Chown(hostPath(f.root, name), uid, gid)
}

// Separator returns the path separator (always forward slash for virtual paths)
func (f *hostFiler) Separator() uint8 {
	return '/'
}

// ListSeparator returns the path list separator (always colon for virtual paths)
func (f *hostFiler) ListSeparator() uint8 {
	return ':'
}

// Truncate changes the size of the named file
func (f *hostFiler) Truncate(name string, size int64) error {
	return os.Truncate(hostPath(f.root, name), size)
}
