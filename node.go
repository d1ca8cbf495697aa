package magicmount

import (
	"io/fs"

	"github.com/tidwall/btree"
)

// Kind is the file type a node stands for on the target filesystem.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDir
	KindFile
	KindLink
)

// kindOf maps a file mode to a node kind. Anything other than a directory,
// regular file or symlink is KindUnknown.
func kindOf(mode fs.FileMode) Kind {
	switch {
	case mode.IsDir():
		return KindDir
	case mode&fs.ModeSymlink != 0:
		return KindLink
	case mode.IsRegular():
		return KindFile
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// NodeType is the variant of a node. The set is closed; every behavior that
// differs between variants switches on it.
type NodeType uint8

const (
	// TypeMirror binds the original file from the mirror (passthrough).
	TypeMirror NodeType = iota
	// TypeInter is a structural directory whose children are mounted individually.
	TypeInter
	// TypeSkeleton is a directory rebuilt on tmpfs and repopulated.
	TypeSkeleton
	// TypeModule is a file or directory supplied by a single module.
	TypeModule
	// TypeRoot is the top of one partition.
	TypeRoot
	// TypeOverride is an injected framework binary. It outranks everything.
	TypeOverride
)

// Rank is the precedence used to resolve insertion conflicts.
func (t NodeType) Rank() int {
	switch t {
	case TypeMirror:
		return 1
	case TypeInter:
		return 2
	case TypeSkeleton:
		return 4
	case TypeModule:
		return 8
	case TypeRoot:
		return 16
	case TypeOverride:
		return 32
	default:
		return 0
	}
}

func (t NodeType) String() string {
	switch t {
	case TypeMirror:
		return "mirror"
	case TypeInter:
		return "inter"
	case TypeSkeleton:
		return "skeleton"
	case TypeModule:
		return "module"
	case TypeRoot:
		return "root"
	case TypeOverride:
		return "override"
	default:
		return "invalid"
	}
}

// Node is one path segment of the merged tree.
//
// A node exclusively owns its children. The parent pointer is only used to
// rebuild paths and find the enclosing partition root.
type Node struct {
	name   string
	kind   Kind
	typ    NodeType
	exists bool

	parent   *Node
	children btree.Map[string, *Node]

	// module owns TypeModule nodes; TypeInter nodes remember the module
	// that created them so they can be upgraded to TypeModule later.
	module string
	// prefix is the source prefix of a TypeRoot node.
	prefix string
	// applets are the symlinks created beside a TypeOverride node.
	applets []string

	path     string
	pathDone bool
	root     *Node
}

func newRoot(name, prefix string) *Node {
	return &Node{name: name, kind: KindDir, typ: TypeRoot, prefix: prefix, exists: true}
}

func newInter(name, module string) *Node {
	return &Node{name: name, kind: KindDir, typ: TypeInter, module: module}
}

func newModule(name string, kind Kind, module string) *Node {
	return &Node{name: name, kind: kind, typ: TypeModule, module: module}
}

func newMirror(name string, kind Kind) *Node {
	return &Node{name: name, kind: kind, typ: TypeMirror}
}

func newOverride(name string, applets []string) *Node {
	return &Node{name: name, kind: KindFile, typ: TypeOverride, applets: applets}
}

// Name returns the last element of the node's path.
func (n *Node) Name() string {
	return n.name
}

// Kind returns the file type the node stands for.
func (n *Node) Kind() Kind {
	return n.kind
}

// Type returns the node variant.
func (n *Node) Type() NodeType {
	return n.typ
}

// Rank returns the precedence of the node's variant.
func (n *Node) Rank() int {
	return n.typ.Rank()
}

// IsDir reports whether the node stands for a directory.
func (n *Node) IsDir() bool {
	return n.kind == KindDir
}

// IsFile reports whether the node stands for a regular file.
func (n *Node) IsFile() bool {
	return n.kind == KindFile
}

// IsLink reports whether the node stands for a symlink.
func (n *Node) IsLink() bool {
	return n.kind == KindLink
}

// Parent returns the containing directory node, or nil for the top root
// and extracted nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// Module returns the id of the module that supplied the node. Intermediate
// nodes report the module that created them; other variants report "".
func (n *Node) Module() string {
	return n.module
}

// Applets returns the applet link names of an injected binary.
func (n *Node) Applets() []string {
	return n.applets
}

// Exists reports whether the node's path exists on the real filesystem.
// Only meaningful once the tree has been prepared.
func (n *Node) Exists() bool {
	return n.exists
}

// Prefix returns the source prefix of the partition root this node belongs to.
func (n *Node) Prefix() string {
	if r := n.Root(); r != nil {
		return r.prefix
	}
	return ""
}

// Path returns the absolute path of the node on the target filesystem.
// The top root has the empty path, so "/system" is the path of the system
// partition root. The result is computed once.
func (n *Node) Path() string {
	if !n.pathDone {
		if n.parent != nil {
			n.path = n.parent.Path() + "/" + n.name
		}
		n.pathDone = true
	}
	return n.path
}

// Root returns the nearest enclosing partition root, the node itself if it
// is one.
func (n *Node) Root() *Node {
	if n.root == nil {
		if n.typ == TypeRoot {
			n.root = n
		} else if n.parent != nil {
			n.root = n.parent.Root()
		}
	}
	return n.root
}

// Child returns the child with the given name or nil.
func (n *Node) Child(name string) *Node {
	c, _ := n.children.Get(name)
	return c
}

// Len returns the number of children.
func (n *Node) Len() int { return n.children.Len() }

// Children returns the children ordered by name.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, n.children.Len())
	n.children.Scan(func(_ string, c *Node) bool {
		out = append(out, c)
		return true
	})
	return out
}

func (n *Node) childNames() []string {
	names := make([]string, 0, n.children.Len())
	n.children.Scan(func(name string, _ *Node) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Walk visits n and then its descendants in pre-order. Returning false from
// fn skips the subtree of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}
