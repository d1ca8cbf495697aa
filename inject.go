package magicmount

// Binary is a framework executable injected into /system/bin together with
// the applet links that point at it.
type Binary struct {
	Name    string
	Applets []string
}

// DefaultBinaries are the framework's main binary and its alternate entry
// point.
var DefaultBinaries = []Binary{
	{Name: "magisk", Applets: []string{"su", "resetprop", "magiskhide"}},
	{Name: "magiskinit", Applets: []string{"magiskpolicy", "supolicy"}},
}

// injectBinaries inserts an Override node for every configured binary under
// system/bin and removes whatever modules placed at the applet names, so no
// module can shadow them.
func (m *MagicMount) injectBinaries(system *Node) {
	bin := system.Child("bin")
	if bin == nil {
		bin = system.emplace(newInter("bin", ""))
	}
	if bin.typ != TypeInter {
		m.logger.Warn("bin directory replaced by a module, not injecting binaries", "type", bin.Type().String())
		return
	}

	for _, b := range m.binaries {
		if !bin.insertNode(newOverride(b.Name, b.Applets)) {
			m.logger.Warn("cannot inject binary", "name", b.Name)
		}
	}
	for _, b := range m.binaries {
		for _, applet := range b.Applets {
			if old := bin.extract(applet); old != nil {
				m.logger.Debug("removed module applet", "name", applet, "module", old.module)
			}
		}
	}
}
