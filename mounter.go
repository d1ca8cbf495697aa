package magicmount

import (
	"fmt"
	"strings"
)

// FileAttr is the subset of file metadata carried over when a file is
// replaced: permission bits, ownership and the SELinux label.
type FileAttr struct {
	Mode  uint32
	UID   int
	GID   int
	Label string
}

// Mounter performs every side effect of the mount pass. All paths are real
// paths in the caller's mount namespace.
type Mounter interface {
	// BindMount binds src onto dst.
	BindMount(src, dst string) error
	// MountTmpfs mounts a fresh tmpfs on dst.
	MountTmpfs(dst string) error
	// Mkdir creates a directory. An existing directory is reported as an
	// error wrapping fs.ErrExist.
	Mkdir(path string, mode uint32) error
	// CreateFile creates an empty regular file to serve as a bind target.
	CreateFile(path string) error
	// Symlink creates link pointing at target.
	Symlink(target, link string) error
	// CopyLink recreates the symlink src at dst, including its attributes.
	CopyLink(src, dst string) error
	// GetAttr reads the attributes of path without following symlinks.
	GetAttr(path string) (*FileAttr, error)
	// SetAttr applies attributes to path without following symlinks.
	SetAttr(path string, attr *FileAttr) error
}

// OpKind names a recorded mount operation.
type OpKind string

const (
	OpBind     OpKind = "bind"
	OpTmpfs    OpKind = "tmpfs"
	OpMkdir    OpKind = "mkdir"
	OpCreate   OpKind = "create"
	OpSymlink  OpKind = "symlink"
	OpCopyLink OpKind = "copylink"
	OpSetAttr  OpKind = "setattr"
)

// Op is one operation seen by a Recorder. Src is empty for operations that
// only have a destination.
type Op struct {
	Kind OpKind
	Src  string
	Dst  string
}

func (o Op) String() string {
	if o.Src == "" {
		return fmt.Sprintf("%-8s %s", o.Kind, o.Dst)
	}
	return fmt.Sprintf("%-8s %s <- %s", o.Kind, o.Dst, o.Src)
}

// Recorder is a Mounter that performs nothing and remembers every
// operation in order. It backs dry runs and tests.
//
// Failures can be injected per path through Fail.
type Recorder struct {
	Ops []Op
	// Attr is returned by GetAttr. A zero value yields mode 0755.
	Attr FileAttr
	// Fail maps a path to the error returned for operations on it. It
	// matches the destination of recorded operations and the path read by
	// GetAttr.
	Fail map[string]error
}

var _ Mounter = (*Recorder)(nil)

func (r *Recorder) record(kind OpKind, src, dst string) error {
	if err, ok := r.Fail[dst]; ok {
		return err
	}
	r.Ops = append(r.Ops, Op{Kind: kind, Src: src, Dst: dst})
	return nil
}

func (r *Recorder) BindMount(src, dst string) error {
	return r.record(OpBind, src, dst)
}

func (r *Recorder) MountTmpfs(dst string) error {
	return r.record(OpTmpfs, "tmpfs", dst)
}

func (r *Recorder) CreateFile(path string) error {
	return r.record(OpCreate, "", path)
}

func (r *Recorder) Symlink(target, link string) error {
	return r.record(OpSymlink, target, link)
}

func (r *Recorder) CopyLink(src, dst string) error {
	return r.record(OpCopyLink, src, dst)
}

func (r *Recorder) Mkdir(path string, mode uint32) error {
	return r.record(OpMkdir, "", path)
}

func (r *Recorder) GetAttr(path string) (*FileAttr, error) {
	if err, ok := r.Fail[path]; ok {
		return nil, err
	}
	attr := r.Attr
	if attr.Mode == 0 {
		attr.Mode = 0755
	}
	return &attr, nil
}

func (r *Recorder) SetAttr(path string, attr *FileAttr) error {
	return r.record(OpSetAttr, "", path)
}

// Find returns the index of the first operation of the given kind on dst,
// or -1.
func (r *Recorder) Find(kind OpKind, dst string) int {
	for i, op := range r.Ops {
		if op.Kind == kind && op.Dst == dst {
			return i
		}
	}
	return -1
}

// String renders the recorded plan one operation per line.
func (r *Recorder) String() string {
	var b strings.Builder
	for _, op := range r.Ops {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}
