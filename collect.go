package magicmount

// collect merges the module directory src into dir on behalf of module.
//
// It returns false when src carries a replace marker, in which case nothing
// was inserted and the caller is expected to turn dir into a Module node.
// A directory that cannot be read contributes nothing.
func (m *MagicMount) collect(dir *Node, module, src string) bool {
	entries, err := listDir(m.fsys, src)
	if err != nil {
		m.logger.Debug("cannot read module directory", "module", module, "path", src, "error", err)
		return true
	}

	for _, entry := range entries {
		if entry.Name() == ReplaceMarker {
			return false
		}
	}

	for _, entry := range entries {
		name := entry.Name()
		switch kind := kindOf(entry.Type()); kind {
		case KindDir:
			// Rejected when an earlier module already replaced this directory.
			child := dir.emplaceOrGet(newInter(name, module))
			if child != nil && !m.collect(child, module, src+"/"+name) {
				dir.upgrade(name, TypeModule, module)
			}
		case KindFile, KindLink:
			dir.emplace(newModule(name, kind, module))
		default:
			m.logger.Debug("skipping special file", "module", module, "path", src+"/"+name)
		}
	}
	return true
}
