package magicmount

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/absfs/absfs"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/hashicorp/go-multierror"
)

// coreDir is the directory in the module store reserved for the framework.
const coreDir = ".core"

// Module is one enabled module handed to the collector.
type Module struct {
	// ID is the directory name of the module in the store.
	ID string
	// Path is the module directory on the source filesystem.
	Path string
}

// LoadModules lists the module store and returns every module that should
// be mounted, sorted by ID. Modules carrying a skip marker or lacking a
// system directory are left out.
func LoadModules(fsys absfs.FileSystem, store string, logger *slog.Logger) ([]Module, error) {
	entries, err := listDir(fsys, store)
	if err != nil {
		return nil, fmt.Errorf("list module store %s: %w", store, err)
	}

	var modules []Module
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == coreDir {
			continue
		}
		mod := Module{ID: entry.Name(), Path: store + "/" + entry.Name()}
		if err := checkModule(fsys, mod); err != nil {
			logger.Info("skipping module", "module", mod.ID, "reason", err)
			continue
		}
		modules = append(modules, mod)
	}
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].ID < modules[j].ID
	})
	return modules, nil
}

// ResolveModules returns the modules named by ids, in the given order. Each
// id is confined to the store and must name a directory directly inside it.
// Unusable modules are skipped and reported in the returned error; the
// usable ones are still returned.
func ResolveModules(fsys absfs.FileSystem, store string, ids []string, logger *slog.Logger) ([]Module, error) {
	var (
		modules []Module
		errs    *multierror.Error
		seen    = make(map[string]bool)
	)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		dir, err := securejoin.SecureJoin(store, id)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("module %s: %w", id, err))
			continue
		}
		rel := strings.TrimPrefix(filepath.ToSlash(dir), path.Clean(store)+"/")
		if rel == "" || strings.Contains(rel, "/") {
			errs = multierror.Append(errs, fmt.Errorf("module %s: %w", id, ErrInvalidModuleID))
			continue
		}
		mod := Module{ID: rel, Path: path.Clean(store) + "/" + rel}
		if err := checkModule(fsys, mod); err != nil {
			logger.Warn("skipping module", "module", id, "reason", err)
			errs = multierror.Append(errs, fmt.Errorf("module %s: %w", id, err))
			continue
		}
		modules = append(modules, mod)
	}
	return modules, errs.ErrorOrNil()
}

// checkModule returns ErrModuleSkipped when a marker disables mounting and
// ErrNoSystemDir when there is nothing to mount. A missing module directory
// wraps fs.ErrNotExist.
func checkModule(fsys absfs.FileSystem, mod Module) error {
	if !isDir(fsys, mod.Path) {
		return fmt.Errorf("%s: %w", mod.Path, fs.ErrNotExist)
	}
	for _, marker := range []string{RemoveMarker, DisableMarker, SkipMountMarker} {
		if exists(fsys, mod.Path+"/"+marker) {
			return fmt.Errorf("%s present: %w", marker, ErrModuleSkipped)
		}
	}
	if !isDir(fsys, mod.Path+"/"+systemDir) {
		return ErrNoSystemDir
	}
	return nil
}
