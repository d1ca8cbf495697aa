package magicmount

import (
	"io/fs"
	"testing"
)

func TestRankOrder(t *testing.T) {
	order := []NodeType{TypeMirror, TypeInter, TypeSkeleton, TypeModule, TypeRoot, TypeOverride}
	want := []int{1, 2, 4, 8, 16, 32}
	for i, typ := range order {
		if typ.Rank() != want[i] {
			t.Errorf("%s rank = %d, want %d", typ, typ.Rank(), want[i])
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		mode fs.FileMode
		want Kind
	}{
		{fs.ModeDir | 0755, KindDir},
		{0644, KindFile},
		{fs.ModeSymlink | 0777, KindLink},
		{fs.ModeNamedPipe, KindUnknown},
		{fs.ModeDevice | fs.ModeCharDevice, KindUnknown},
	}
	for _, tt := range tests {
		if got := kindOf(tt.mode); got != tt.want {
			t.Errorf("kindOf(%v) = %s, want %s", tt.mode, got, tt.want)
		}
	}
}

func TestPathCaching(t *testing.T) {
	root := newRoot("", "")
	system := root.emplace(newRoot("system", ""))
	app := system.emplace(newInter("app", "a"))
	apk := app.emplace(newModule("Foo.apk", KindFile, "a"))

	first := apk.Path()
	if first != "/system/app/Foo.apk" {
		t.Fatalf("Path() = %q, want /system/app/Foo.apk", first)
	}

	// The cached value is returned without walking the parents again.
	app.name = "renamed"
	if second := apk.Path(); second != first {
		t.Errorf("second Path() = %q, want cached %q", second, first)
	}

	if root.Path() != "" {
		t.Errorf("top root path = %q, want empty", root.Path())
	}
	if system.Path() != "/system" {
		t.Errorf("system path = %q, want /system", system.Path())
	}
}

func TestRootLookup(t *testing.T) {
	root := newRoot("", "")
	vendor := root.emplace(newRoot("vendor", systemPrefix))
	lib := vendor.emplace(newInter("lib", "a"))
	so := lib.emplace(newModule("libfoo.so", KindFile, "a"))

	if so.Root() != vendor {
		t.Errorf("Root() = %v, want vendor root", so.Root().Name())
	}
	if so.Prefix() != "/system" {
		t.Errorf("Prefix() = %q, want /system", so.Prefix())
	}
	if vendor.Root() != vendor {
		t.Error("a partition root is its own root")
	}
}

func TestChildrenSorted(t *testing.T) {
	dir := newInter("etc", "a")
	for _, name := range []string{"hosts", "apns.xml", "init", "fstab"} {
		dir.emplace(newModule(name, KindFile, "a"))
	}

	var got []string
	for _, c := range dir.Children() {
		got = append(got, c.Name())
	}
	want := []string{"apns.xml", "fstab", "hosts", "init"}
	if len(got) != len(want) {
		t.Fatalf("Children() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Children()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestWalkSkipsSubtree(t *testing.T) {
	root := newRoot("", "")
	system := root.emplace(newRoot("system", ""))
	etc := system.emplace(newInter("etc", "a"))
	etc.emplace(newModule("hosts", KindFile, "a"))
	system.emplace(newModule("build.prop", KindFile, "a"))

	var visited []string
	root.Walk(func(n *Node) bool {
		visited = append(visited, n.Path())
		return n != etc
	})

	want := []string{"", "/system", "/system/build.prop", "/system/etc"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}
