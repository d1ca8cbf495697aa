package magicmount

import "io/fs"

// prepare checks every child of dir against the real filesystem and
// promotes directories that cannot host a direct bind mount to skeletons.
//
// It returns false when dir itself has to become a skeleton. Children that
// would need one under a directory ranked above TypeSkeleton are dropped.
func (m *MagicMount) prepare(dir *Node) bool {
	toSkeleton := false
	for _, name := range dir.childNames() {
		child := dir.Child(name)
		if child == nil {
			continue
		}

		if m.needSkeleton(child) {
			if dir.Rank() > TypeSkeleton.Rank() {
				dir.extract(name)
				m.report.Dropped++
				m.logger.Warn("unable to add, dropping", "path", child.Path(), "parent", dir.Type().String())
				continue
			}
			toSkeleton = true
			if child.typ == TypeInter {
				dir.upgrade(name, TypeModule, child.module)
				continue
			}
		}

		if child.IsDir() && isStructural(child) && !m.prepare(child) {
			m.promote(dir, name)
		}
	}
	return !toSkeleton
}

// isStructural reports whether n is a directory variant whose children are
// mounted one by one.
func isStructural(n *Node) bool {
	switch n.typ {
	case TypeInter, TypeSkeleton, TypeRoot:
		return true
	default:
		return false
	}
}

// needSkeleton reports whether child cannot be bind mounted in place: its
// real path is missing, or either side is a symlink. A successful lookup
// marks child as existing.
func (m *MagicMount) needSkeleton(child *Node) bool {
	info, err := m.cache.lstat(child.Path())
	if err != nil {
		return true
	}
	child.exists = true
	return child.IsLink() || info.Mode()&fs.ModeSymlink != 0
}

// promote upgrades the child called name to a skeleton and populates it.
func (m *MagicMount) promote(dir *Node, name string) {
	if sk := dir.upgrade(name, TypeSkeleton, ""); sk != nil {
		m.populate(sk)
	}
}

// populate adds a Mirror node for every entry of the mirrored directory
// that is not overridden, then promotes intermediate children. A skeleton
// without a mirror directory is marked missing and skipped at mount time.
// Entries named like an applet of an injected binary are left out, so the
// applet links cannot be shadowed.
func (m *MagicMount) populate(sk *Node) {
	mirror := m.mirrorPath(sk)
	entries, err := listDir(m.fsys, mirror)
	if err != nil {
		// Possible with nested mount points.
		m.logger.Debug("no mirror for skeleton", "path", sk.Path(), "mirror", mirror, "error", err)
		sk.exists = false
		return
	}
	sk.exists = true

	applets := make(map[string]bool)
	for _, c := range sk.Children() {
		if c.typ == TypeOverride {
			for _, name := range c.applets {
				applets[name] = true
			}
		}
	}

	for _, entry := range entries {
		kind := kindOf(entry.Type())
		if kind == KindUnknown {
			continue
		}
		if applets[entry.Name()] {
			m.logger.Debug("skipping mirror entry shadowing an applet", "path", sk.Path()+"/"+entry.Name())
			continue
		}
		sk.emplace(newMirror(entry.Name(), kind))
	}

	for _, name := range sk.childNames() {
		if c := sk.Child(name); c != nil && c.typ == TypeInter {
			m.promote(sk, name)
		}
	}
}
