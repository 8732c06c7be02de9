package container

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-lnqm/internal/message"
	"github.com/robert-malhotra/go-lnqm/internal/object"
)

// Group represents a container group.
type Group struct {
	file   *File
	path   string
	header *object.Header // set when read from disk
	node   *groupNode     // set while the file is being written
}

// groupNode is a group whose header has not been written yet.
type groupNode struct {
	members []*member
	attrs   []*message.Attribute
}

// member is one named entry of a pending group: either a subgroup that is
// still pending or a blob whose header is already on disk.
type member struct {
	name  string
	group *groupNode
	addr  uint64
}

func (n *groupNode) lookup(name string) *member {
	for _, m := range n.members {
		if m.name == name {
			return m
		}
	}
	return nil
}

// Name returns the group name (last component of path).
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

// Path returns the full path to this group.
func (g *Group) Path() string {
	return g.path
}

// Members returns the names of the group's members in insertion order.
func (g *Group) Members() ([]string, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	var names []string
	if g.node != nil {
		for _, m := range g.node.members {
			names = append(names, m.name)
		}
		return names, nil
	}
	for _, l := range g.header.Links() {
		names = append(names, l.Name)
	}
	return names, nil
}

// HasMember reports whether the group has a direct member called name.
func (g *Group) HasMember(name string) bool {
	if g.node != nil {
		return g.node.lookup(name) != nil
	}
	for _, l := range g.header.Links() {
		if l.Name == name {
			return true
		}
	}
	return false
}

// OpenGroup opens a subgroup by relative path.
func (g *Group) OpenGroup(relativePath string) (*Group, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}
	group, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%s: %w", relativePath, ErrNotGroup)
	}
	return group, nil
}

// OpenBlob opens a blob by relative path.
func (g *Group) OpenBlob(relativePath string) (*Blob, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}
	blob, ok := obj.(*Blob)
	if !ok {
		return nil, fmt.Errorf("%s: %w", relativePath, ErrNotBlob)
	}
	return blob, nil
}

// open opens an object by relative path; the result is a *Group or *Blob.
func (g *Group) open(relativePath string) (any, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	current := g
	parts := SplitPath(relativePath)
	for i, name := range parts {
		child, err := current.child(name)
		if err != nil {
			return nil, err
		}
		if i == len(parts)-1 {
			return child, nil
		}
		next, ok := child.(*Group)
		if !ok {
			return nil, fmt.Errorf("%s: %w", joinPath(current.path, name), ErrNotGroup)
		}
		current = next
	}
	return current, nil
}

// child opens the direct member called name.
func (g *Group) child(name string) (any, error) {
	childPath := joinPath(g.path, name)

	if g.node != nil {
		m := g.node.lookup(name)
		switch {
		case m == nil:
			return nil, fmt.Errorf("%s: %w", childPath, ErrNotFound)
		case m.group != nil:
			return &Group{file: g.file, path: childPath, node: m.group}, nil
		default:
			return g.file.openBlobAt(m.addr, childPath)
		}
	}

	for _, l := range g.header.Links() {
		if l.Name != name {
			continue
		}
		header, err := g.file.readHeader(l.ObjectAddress)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", childPath, err)
		}
		if header.IsGroup() {
			return &Group{file: g.file, path: childPath, header: header}, nil
		}
		return newBlob(g.file, childPath, header)
	}
	return nil, fmt.Errorf("%s: %w", childPath, ErrNotFound)
}

// Attrs returns the attribute names for this group.
func (g *Group) Attrs() []string {
	var names []string
	for _, a := range g.attributes() {
		names = append(names, a.Name)
	}
	return names
}

// Attr returns an attribute by name, or nil if not found.
func (g *Group) Attr(name string) *Attribute {
	for _, a := range g.attributes() {
		if a.Name == name {
			return &Attribute{msg: a}
		}
	}
	return nil
}

func (g *Group) attributes() []*message.Attribute {
	if g.node != nil {
		return g.node.attrs
	}
	return g.header.Attributes()
}

// CreateGroup creates a new subgroup with the given name.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.prepareMember(name); err != nil {
		return nil, err
	}
	node := &groupNode{}
	g.node.members = append(g.node.members, &member{name: name, group: node})
	return &Group{file: g.file, path: joinPath(g.path, name), node: node}, nil
}

// SetAttr attaches an attribute to the group, replacing any existing
// attribute of the same name. See WithAttribute for accepted values.
func (g *Group) SetAttr(name string, value any) error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	if g.node == nil {
		return ErrReadOnly
	}
	attr, err := newAttribute(name, value)
	if err != nil {
		return err
	}
	for i, a := range g.node.attrs {
		if a.Name == name {
			g.node.attrs[i] = attr
			return nil
		}
	}
	g.node.attrs = append(g.node.attrs, attr)
	return nil
}

// prepareMember checks that name can be added to g.
func (g *Group) prepareMember(name string) error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	if g.node == nil {
		return ErrReadOnly
	}
	if err := validName(name); err != nil {
		return err
	}
	if g.node.lookup(name) != nil {
		return fmt.Errorf("%s: %w", joinPath(g.path, name), ErrExists)
	}
	return nil
}
