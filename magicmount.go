package magicmount

import (
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/absfs/absfs"
	"github.com/hashicorp/go-multierror"
)

const (
	// ReplaceMarker inside a module directory replaces the whole directory
	// instead of merging into it.
	ReplaceMarker = ".replace"

	// MirrorDir is the mirror snapshot location relative to the runtime dir.
	MirrorDir = ".magisk/mirror"
	// ModuleMountDir is the module staging location relative to the runtime dir.
	ModuleMountDir = ".magisk/modules"

	// DefaultModuleStore is where installed modules live.
	DefaultModuleStore = "/data/adb/modules"
	// DefaultRuntimeDir is the runtime directory when the framework runs
	// from its default install location.
	DefaultRuntimeDir = "/sbin"

	// systemPrefix is the payload prefix of split partitions.
	systemPrefix = "/system"
	// systemDir is the payload directory of a module.
	systemDir = "system"
)

// Module markers.
const (
	SkipMountMarker = "skip_mount"
	DisableMarker   = "disable"
	RemoveMarker    = "remove"
)

var (
	// ErrNoSystemDir is returned for a module that has no system directory.
	ErrNoSystemDir = errors.New("module has no system directory")
	// ErrModuleSkipped is returned for a module carrying a skip marker.
	ErrModuleSkipped = errors.New("module is skipped")
	// ErrInvalidModuleID is returned for an id that does not name a
	// directory directly inside the module store.
	ErrInvalidModuleID = errors.New("invalid module id")
	// ErrUnsupported is returned by mount operations on platforms without
	// bind mounts.
	ErrUnsupported = errors.New("mounting is not supported on this platform")
)

// DefaultPartitions are the partitions that may be split out of /system.
var DefaultPartitions = []string{"/vendor", "/product", "/system_ext"}

// MagicMount merges module trees and mounts them over the real partitions.
//
// A MagicMount is used for a single pass from a single goroutine.
type MagicMount struct {
	fsys       absfs.FileSystem
	mounter    Mounter
	logger     *slog.Logger
	runtimeDir string
	partitions []string
	binDir     string
	binaries   []Binary
	useCache   bool

	cache  *statCache
	report *Report
	errs   *multierror.Error
}

// Report summarizes one pass.
type Report struct {
	Modules  int
	Nodes    int
	Binds    int
	Tmpfs    int
	Symlinks int
	Dropped  int
	Cache    CacheStats
	// Err aggregates every failed mount operation, nil if none failed.
	Err error
}

// Option is a functional option for configuring MagicMount
type Option func(*MagicMount)

// WithSource sets the filesystem that modules, the mirror and the real
// partitions are read from. Paths on it are absolute real paths.
func WithSource(fsys absfs.FileSystem) Option {
	return func(m *MagicMount) {
		m.fsys = fsys
	}
}

// WithMounter sets the Mounter that performs side effects.
func WithMounter(mounter Mounter) Option {
	return func(m *MagicMount) {
		m.mounter = mounter
	}
}

// WithLogger sets the logger. Logging is discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(m *MagicMount) {
		m.logger = logger
	}
}

// WithRuntimeDir sets the runtime directory holding the mirror and the
// module staging area.
func WithRuntimeDir(dir string) Option {
	return func(m *MagicMount) {
		m.runtimeDir = path.Clean(dir)
	}
}

// WithPartitions replaces the list of split partitions.
func WithPartitions(partitions ...string) Option {
	return func(m *MagicMount) {
		m.partitions = partitions
	}
}

// WithBinaries injects the framework binaries found in binDir into
// /system/bin. DefaultBinaries is used when bins is empty.
func WithBinaries(binDir string, bins ...Binary) Option {
	return func(m *MagicMount) {
		if len(bins) == 0 {
			bins = DefaultBinaries
		}
		m.binDir = path.Clean(binDir)
		m.binaries = bins
	}
}

// WithStatCache enables or disables memoization of real-path lstat calls.
func WithStatCache(enabled bool) Option {
	return func(m *MagicMount) {
		m.useCache = enabled
	}
}

// New creates a new MagicMount with the specified options
func New(opts ...Option) *MagicMount {
	m := &MagicMount{
		runtimeDir: DefaultRuntimeDir,
		partitions: DefaultPartitions,
		useCache:   true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fsys == nil {
		m.fsys = NewHostFS("/")
	}
	if m.mounter == nil {
		m.mounter = NewMounter()
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m.reset()
	return m
}

func (m *MagicMount) reset() {
	m.cache = newStatCache(m.fsys, m.useCache)
	m.report = &Report{}
	m.errs = nil
}

// MirrorRoot returns the directory holding the mirror snapshot.
func (m *MagicMount) MirrorRoot() string {
	return m.runtimeDir + "/" + MirrorDir
}

// ModuleRoot returns the directory holding the staged modules.
func (m *MagicMount) ModuleRoot() string {
	return m.runtimeDir + "/" + ModuleMountDir
}

func (m *MagicMount) mirrorPath(n *Node) string {
	return m.MirrorRoot() + n.Path()
}

// moduleSource is where the file behind a Module node is staged. Module
// payload is always rooted at /system, so split partitions carry the
// "/system" prefix.
func (m *MagicMount) moduleSource(n *Node) string {
	return m.ModuleRoot() + "/" + n.module + n.Prefix() + n.Path()
}

// Build collects every module into a fresh tree and returns its top root.
// The /system partition root is the child named "system". Modules are
// processed in order; on conflicts the first module wins.
func (m *MagicMount) Build(modules []Module) *Node {
	m.reset()

	root := newRoot("", "")
	system := root.emplace(newRoot(systemDir, ""))

	for _, mod := range modules {
		m.logger.Info("loading mount files", "module", mod.ID)
		if !m.collect(system, mod.ID, mod.Path+"/"+systemDir) {
			m.logger.Warn("ignoring replace marker on partition root", "module", mod.ID)
		}
		m.report.Modules++
	}

	if len(m.binaries) > 0 {
		m.injectBinaries(system)
	}

	if system.Len() > 0 {
		m.splitPartitions(root, system)
	}
	return root
}

// Prepare promotes directories that cannot host direct bind mounts to
// skeletons and fills them from the mirror.
func (m *MagicMount) Prepare(root *Node) {
	m.prepare(root)
	m.report.Cache = m.cache.Stats()
	m.report.Nodes = 0
	root.Walk(func(n *Node) bool {
		if n != root {
			m.report.Nodes++
		}
		return true
	})
}

// Mount walks the tree parent first and performs every mount. Failures do
// not stop the walk; they are returned together.
func (m *MagicMount) Mount(root *Node) error {
	m.mount(root)
	m.report.Err = m.errs.ErrorOrNil()
	return m.report.Err
}

// Run builds, prepares and mounts the given modules. Nothing is mounted
// when no module contributes any file.
func (m *MagicMount) Run(modules []Module) *Report {
	root := m.Build(modules)
	if isEmpty(root) {
		m.logger.Info("nothing to mount")
		return m.report
	}

	m.Prepare(root)
	if err := m.Mount(root); err != nil {
		m.logger.Error("some mounts failed", "count", len(m.errs.Errors))
	}
	return m.report
}

// splitPartitions moves partitions that are real directories out of the
// /system subtree into roots of their own.
func (m *MagicMount) splitPartitions(root, system *Node) {
	for _, part := range m.partitions {
		name := strings.TrimPrefix(path.Clean("/"+part), "/")
		if name == "" || strings.Contains(name, "/") {
			m.logger.Warn("ignoring nested partition", "partition", part)
			continue
		}
		child := system.Child(name)
		if child == nil || !child.IsDir() {
			continue
		}
		// The preparer looks the partition up again through the cache.
		info, err := m.cache.lstat("/" + name)
		if err != nil || !info.Mode().IsDir() {
			continue
		}
		root.emplace(promoteRoot(system.extract(name), systemPrefix))
		m.logger.Debug("split partition", "partition", "/"+name)
	}
}

// isEmpty reports whether no partition root under root has any child.
func isEmpty(root *Node) bool {
	for _, part := range root.Children() {
		if part.Len() > 0 {
			return false
		}
	}
	return true
}
