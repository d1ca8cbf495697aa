package magicmount

// builder produces the node to store at a name. It receives the node
// currently stored there, or nil, and may return nil to reject the insertion.
type builder func(existing *Node) *Node

// insert stores the node produced by build under name.
//
//   - No child with that name: the built node is inserted.
//   - Existing child of lower rank: the built node replaces it and absorbs
//     its children.
//   - Existing child of the same type and allowSame: the existing child is
//     returned untouched.
//   - Anything else: the insertion is rejected and nil is returned.
func (n *Node) insert(name string, typ NodeType, allowSame bool, build builder) *Node {
	existing, ok := n.children.Get(name)
	if !ok {
		node := build(nil)
		if node == nil {
			return nil
		}
		node.name = name
		n.attach(node)
		return node
	}

	if existing.Rank() < typ.Rank() {
		node := build(existing)
		if node == nil {
			return nil
		}
		node.consume(existing)
		n.attach(node)
		return node
	}

	if allowSame && existing.typ == typ {
		return existing
	}
	return nil
}

// attach stores node as a child of n.
func (n *Node) attach(node *Node) {
	node.parent = n
	node.path, node.pathDone = "", false
	node.root = nil
	n.children.Set(node.name, node)
}

// consume takes over the identity and the subtree of old. old must not be
// used afterwards.
func (n *Node) consume(old *Node) {
	n.name = old.name
	n.parent = old.parent
	n.exists = n.exists || old.exists
	if n.IsDir() {
		old.children.Scan(func(name string, c *Node) bool {
			if _, taken := n.children.Get(name); !taken {
				c.parent = n
				n.children.Set(name, c)
			}
			return true
		})
	}
	old.parent = nil
}

// emplace inserts a freshly constructed node, upgrading a lower-rank child.
func (n *Node) emplace(node *Node) *Node {
	return n.insert(node.name, node.typ, false, func(*Node) *Node { return node })
}

// emplaceOrGet is emplace, except an existing child of the same type is
// returned instead of rejecting the candidate.
func (n *Node) emplaceOrGet(node *Node) *Node {
	return n.insert(node.name, node.typ, true, func(*Node) *Node { return node })
}

// insertNode inserts a prebuilt node. It reports whether the node was kept.
func (n *Node) insertNode(node *Node) bool {
	return node != nil && n.emplace(node) != nil
}

// upgrade converts the existing child called name into the variant typ,
// keeping its kind and subtree. It returns nil when there is no such child
// or the child already ranks at or above typ.
func (n *Node) upgrade(name string, typ NodeType, module string) *Node {
	return n.insert(name, typ, false, func(existing *Node) *Node {
		if existing == nil {
			return nil
		}
		node := &Node{kind: existing.kind, typ: typ}
		if typ == TypeModule {
			node.module = module
		}
		return node
	})
}

// promoteRoot turns a detached directory node into a partition root whose
// module payload lives under prefix.
func promoteRoot(old *Node, prefix string) *Node {
	node := newRoot(old.name, prefix)
	node.consume(old)
	node.Walk(func(c *Node) bool {
		c.path, c.pathDone = "", false
		c.root = nil
		return true
	})
	return node
}

// extract removes and returns the child called name, or nil.
func (n *Node) extract(name string) *Node {
	c, ok := n.children.Delete(name)
	if !ok {
		return nil
	}
	c.parent = nil
	return c
}
