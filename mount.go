package magicmount

import (
	"errors"
	"io/fs"

	"github.com/hashicorp/go-multierror"
)

// mount performs the mount action of n and then visits its children, so an
// ancestor is always mounted before any descendant.
func (m *MagicMount) mount(n *Node) {
	switch n.typ {
	case TypeRoot, TypeInter:
		m.mountChildren(n)
	case TypeMirror:
		m.createAndMount(n, m.mirrorPath(n))
	case TypeSkeleton:
		m.mountSkeleton(n)
	case TypeModule:
		m.mountModule(n)
	case TypeOverride:
		m.mountOverride(n)
	}
}

func (m *MagicMount) mountChildren(n *Node) {
	for _, c := range n.Children() {
		m.mount(c)
	}
}

// mountSkeleton rebuilds a directory on tmpfs with the attributes of its
// mirrored original. A skeleton below another skeleton lives on the
// parent's tmpfs.
func (m *MagicMount) mountSkeleton(n *Node) {
	if !n.exists {
		m.logger.Debug("skipping missing skeleton", "path", n.Path())
		return
	}
	src := m.mirrorPath(n)
	dst := n.Path()

	attr, err := m.mounter.GetAttr(src)
	if err != nil {
		m.logger.Debug("cannot read skeleton attributes", "src", src, "error", err)
	}
	m.mkdir(dst)
	if n.parent == nil || n.parent.typ != TypeSkeleton {
		if err := m.mounter.MountTmpfs(dst); err != nil {
			m.fail("mnt_tmp", "tmpfs", dst, err)
		} else {
			m.report.Tmpfs++
			m.logger.Debug("mnt_tmp", "src", "tmpfs", "dst", dst)
		}
	}
	if attr != nil {
		if err := m.mounter.SetAttr(dst, attr); err != nil {
			m.fail("setattr", src, dst, err)
		}
	}
	m.mountChildren(n)
}

// mountModule binds the module's copy of n. Inside a skeleton a placeholder
// is created first; elsewhere the copy is bound straight over the real
// path. The directory bind hides anything below it, so children of a Module
// directory are not mounted.
func (m *MagicMount) mountModule(n *Node) {
	src := m.moduleSource(n)
	dst := n.Path()
	if n.exists {
		m.cloneAttr(m.mirrorPath(n), src)
	}
	if n.parent != nil && n.parent.typ == TypeSkeleton {
		m.createAndMount(n, src)
	} else if n.IsDir() || n.IsFile() {
		m.bind(src, dst)
	}
	if n.Len() > 0 {
		m.logger.Debug("children shadowed by module directory", "path", dst, "module", n.module, "count", n.Len())
	}
}

// mountOverride creates the applet links of an injected binary and binds
// the relocated binary beside them.
func (m *MagicMount) mountOverride(n *Node) {
	dir := n.parent.Path()
	target := "./" + n.name
	for _, applet := range n.applets {
		dst := dir + "/" + applet
		if err := m.mounter.Symlink(target, dst); err != nil {
			m.fail("create", target, dst, err)
			continue
		}
		m.report.Symlinks++
		m.logger.Debug("create", "src", target, "dst", dst)
	}
	m.createAndMount(n, m.binDir+"/"+n.name)
}

// createAndMount makes a placeholder for n and binds src onto it. Symlinks
// are copied instead, since a symlink cannot be a bind target.
func (m *MagicMount) createAndMount(n *Node, src string) {
	dst := n.Path()
	switch n.kind {
	case KindLink:
		if err := m.mounter.CopyLink(src, dst); err != nil {
			m.fail("cp_link", src, dst, err)
			return
		}
		m.report.Symlinks++
		m.logger.Debug("cp_link", "src", src, "dst", dst)
	case KindDir:
		m.mkdir(dst)
		m.bind(src, dst)
	case KindFile:
		if err := m.mounter.CreateFile(dst); err != nil {
			m.fail("create", src, dst, err)
			return
		}
		m.bind(src, dst)
	}
}

func (m *MagicMount) bind(src, dst string) {
	if err := m.mounter.BindMount(src, dst); err != nil {
		m.fail("bind_mnt", src, dst, err)
		return
	}
	m.report.Binds++
	m.logger.Debug("bind_mnt", "src", src, "dst", dst)
}

// mkdir creates dst, accepting an existing directory.
func (m *MagicMount) mkdir(dst string) {
	if err := m.mounter.Mkdir(dst, 0); err != nil && !errors.Is(err, fs.ErrExist) {
		m.fail("mkdir", "", dst, err)
	}
}

// cloneAttr copies the attributes of the original file onto the module's
// copy. A missing original is not an error.
func (m *MagicMount) cloneAttr(from, to string) {
	attr, err := m.mounter.GetAttr(from)
	if err != nil {
		m.logger.Debug("cannot read original attributes", "src", from, "error", err)
		return
	}
	if err := m.mounter.SetAttr(to, attr); err != nil {
		m.fail("clone_attr", from, to, err)
	}
}

// fail records a failed operation. The walk always continues.
func (m *MagicMount) fail(op, src, dst string, err error) {
	m.logger.Error("mount operation failed", "op", op, "src", src, "dst", dst, "error", err)
	m.errs = multierror.Append(m.errs, err)
}
