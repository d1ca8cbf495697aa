package magicmount

import (
	"os"
	"strings"
	"testing"

	"github.com/absfs/absfs"
	"github.com/absfs/memfs"
)

const (
	testStore   = "/data/adb/modules"
	testRuntime = "/dev/tmp"
)

// mustNewMemFS creates a new memfs or panics
func mustNewMemFS() absfs.FileSystem {
	mfs, err := memfs.NewFS()
	if err != nil {
		panic(err)
	}
	return mfs
}

// writeFile writes data to a file in a filesystem
func writeFile(fs interface {
	OpenFile(string, int, os.FileMode) (absfs.File, error)
	MkdirAll(string, os.FileMode) error
}, name string, data []byte, perm os.FileMode) error {
	// Create parent directory if needed
	dir := name[:lastSlash(name)]
	if dir != "" && dir != "/" {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// lastSlash finds the last slash in a path
func lastSlash(path string) int {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return i
		}
	}
	return 0
}

func mustWrite(t testing.TB, fsys absfs.FileSystem, name string) {
	t.Helper()
	if err := writeFile(fsys, name, []byte(name), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func mustMkdir(t testing.TB, fsys absfs.FileSystem, name string) {
	t.Helper()
	if err := fsys.MkdirAll(name, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", name, err)
	}
}

// mirrorOf returns where the mirror copy of a real path lives.
func mirrorOf(real string) string {
	return testRuntime + "/" + MirrorDir + real
}

// realFile creates a file on the real tree and in the mirror.
func realFile(t testing.TB, fsys absfs.FileSystem, name string) {
	t.Helper()
	mustWrite(t, fsys, name)
	mustWrite(t, fsys, mirrorOf(name))
}

// realDir creates a directory on the real tree and in the mirror.
func realDir(t testing.TB, fsys absfs.FileSystem, name string) {
	t.Helper()
	mustMkdir(t, fsys, name)
	mustMkdir(t, fsys, mirrorOf(name))
}

// moduleFile adds a file below system/ of a module.
func moduleFile(t testing.TB, fsys absfs.FileSystem, id, rel string) {
	t.Helper()
	mustWrite(t, fsys, testStore+"/"+id+"/system/"+rel)
}

func testModule(id string) Module {
	return Module{ID: id, Path: testStore + "/" + id}
}

func testModules(ids ...string) []Module {
	modules := make([]Module, len(ids))
	for i, id := range ids {
		modules[i] = testModule(id)
	}
	return modules
}

func newTestMount(fsys absfs.FileSystem, rec *Recorder, opts ...Option) *MagicMount {
	base := []Option{
		WithSource(fsys),
		WithMounter(rec),
		WithRuntimeDir(testRuntime),
	}
	return New(append(base, opts...)...)
}

// lookup follows a slash separated path from n.
func lookup(n *Node, path string) *Node {
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		if n = n.Child(part); n == nil {
			return nil
		}
	}
	return n
}

func mustLookup(t testing.TB, root *Node, path string) *Node {
	t.Helper()
	n := lookup(root, path)
	if n == nil {
		t.Fatalf("no node at %s", path)
	}
	return n
}
