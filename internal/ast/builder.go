package ast

import (
	"cppsema/internal/source"
)

type Hints struct{ Nodes, Names uint }

// Builder owns every arena of one translation unit's syntax tree.
type Builder struct {
	Nodes    *Arena[Node]
	Names    *Names
	Payloads *Payloads
	Strings  *source.Interner
	Root     NodeID
}

func NewBuilder(hints Hints, strings *source.Interner) *Builder {
	if hints.Nodes == 0 {
		hints.Nodes = 1 << 10
	}
	if hints.Names == 0 {
		hints.Names = 1 << 8
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Builder{
		Nodes:    NewArena[Node](hints.Nodes),
		Names:    NewNames(hints.Names),
		Payloads: NewPayloads(hints.Nodes / 16),
		Strings:  strings,
	}
}

func (b *Builder) Node(id NodeID) *Node {
	return b.Nodes.Get(uint32(id))
}

func (b *Builder) Name(id NameID) *Name {
	return b.Names.Get(id)
}

func (b *Builder) NewNode(kind NodeKind, sp source.Span) NodeID {
	return NodeID(b.Nodes.Allocate(Node{Kind: kind, Span: sp}))
}

// AddKid appends kid to parent's children and sets its parent link.
func (b *Builder) AddKid(parent, kid NodeID) {
	if !kid.IsValid() {
		return
	}
	p := b.Node(parent)
	p.Kids = append(p.Kids, kid)
	b.Node(kid).Parent = parent
}

// NewName allocates a name together with the NodeName node that holds it.
func (b *Builder) NewName(name Name) (NameID, NodeID) {
	node := b.NewNode(NodeName, name.Span)
	name.Node = node
	id := b.Names.New(name)
	b.Node(node).Name = id
	return id, node
}

// NewImplicitName allocates an implicit name attached to owner. It is not
// linked into owner's children, so tree walks do not see it.
func (b *Builder) NewImplicitName(owner NodeID, spelling source.StringID, sp source.Span) NameID {
	return b.Names.New(Name{
		Kind:     NameIdent,
		Spelling: spelling,
		Span:     sp,
		Node:     owner,
		Implicit: true,
	})
}

// NameOf returns the name held by a NodeName node.
func (b *Builder) NameOf(node NodeID) NameID {
	if n := b.Node(node); n != nil && n.Kind == NodeName {
		return n.Name
	}
	return NoNameID
}

// Spelling returns the text of a name.
func (b *Builder) Spelling(id NameID) string {
	n := b.Names.Get(id)
	if n == nil {
		return ""
	}
	s, _ := b.Strings.Lookup(n.Spelling)
	return s
}

// Owner returns the node a name belongs to: the parent of its NodeName
// node, skipping enclosing composite names.
func (b *Builder) Owner(id NameID) NodeID {
	n := b.Names.Get(id)
	if n == nil {
		return NoNodeID
	}
	if n.Implicit {
		return n.Node
	}
	node := b.Node(n.Node).Parent
	for node.IsValid() && b.Node(node).Kind == NodeName {
		node = b.Node(node).Parent
	}
	return node
}

// Composite returns the qualified name or template-id directly containing
// name id, if any.
func (b *Builder) Composite(id NameID) NameID {
	n := b.Names.Get(id)
	if n == nil || n.Implicit {
		return NoNameID
	}
	parent := b.Node(b.Node(n.Node).Parent)
	if parent != nil && parent.Kind == NodeName {
		return parent.Name
	}
	return NoNameID
}

// Replace moves node with into the slot of node slot, keeping slot's parent
// link. Ambiguity resolution uses it to put the chosen alternative where the
// ambiguity node was; every reference to slot then sees the alternative.
func (b *Builder) Replace(slot, with NodeID) {
	s := b.Node(slot)
	w := b.Node(with)
	parent := s.Parent
	*s = *w
	s.Parent = parent
	for _, k := range s.Kids {
		b.Node(k).Parent = slot
	}
	if s.Kind == NodeName {
		b.Names.Get(s.Name).Node = slot
	}
	*w = Node{Kind: NodeDiscarded, Span: w.Span}
}

// Discard detaches an unused alternative.
func (b *Builder) Discard(id NodeID) {
	if n := b.Node(id); n != nil {
		n.Kind = NodeDiscarded
	}
}

// Enclosing walks parent links from id (exclusive) to the first node whose
// kind is one of kinds.
func (b *Builder) Enclosing(id NodeID, kinds ...NodeKind) NodeID {
	for cur := b.Node(id).Parent; cur.IsValid(); cur = b.Node(cur).Parent {
		k := b.Node(cur).Kind
		for _, want := range kinds {
			if k == want {
				return cur
			}
		}
	}
	return NoNodeID
}

func (b *Builder) DeclSpec(id NodeID) *DeclSpecData {
	return payload(b, id, NodeDeclSpec, b.Payloads.DeclSpecs)
}

func (b *Builder) Declarator(id NodeID) *DeclaratorData {
	return payload(b, id, NodeDeclarator, b.Payloads.Declarators)
}

func (b *Builder) FunctionDef(id NodeID) *FunctionDefData {
	return payload(b, id, NodeFunctionDef, b.Payloads.FunctionDefs)
}

func (b *Builder) ClassSpec(id NodeID) *ClassSpecData {
	return payload(b, id, NodeClassSpec, b.Payloads.Classes)
}

func (b *Builder) EnumSpec(id NodeID) *EnumSpecData {
	return payload(b, id, NodeEnumSpec, b.Payloads.Enums)
}

func (b *Builder) Template(id NodeID) *TemplateData {
	return payload(b, id, NodeTemplateDecl, b.Payloads.Templates)
}

func (b *Builder) TemplateParam(id NodeID) *TemplateParamData {
	return payload(b, id, NodeTemplateParam, b.Payloads.TParams)
}

func (b *Builder) NewExpr(id NodeID) *NewData {
	return payload(b, id, NodeNew, b.Payloads.News)
}

func (b *Builder) Lambda(id NodeID) *LambdaData {
	return payload(b, id, NodeLambda, b.Payloads.Lambdas)
}

func (b *Builder) Literal(id NodeID) *LiteralData {
	return payload(b, id, NodeLiteral, b.Payloads.Literals)
}

// Control returns the control payload of if/while/do/for/range-for/switch.
func (b *Builder) Control(id NodeID) *ControlData {
	n := b.Node(id)
	if n == nil || !n.Payload.IsValid() {
		return nil
	}
	switch n.Kind {
	case NodeIf, NodeWhile, NodeDo, NodeFor, NodeRangeFor, NodeSwitch:
		return b.Payloads.Controls.Get(uint32(n.Payload))
	}
	return nil
}

func payload[T any](b *Builder, id NodeID, kind NodeKind, arena *Arena[T]) *T {
	n := b.Node(id)
	if n == nil || n.Kind != kind || !n.Payload.IsValid() {
		return nil
	}
	return arena.Get(uint32(n.Payload))
}

// NewWithPayload allocates a node and stores data in arena as its payload.
func NewWithPayload[T any](b *Builder, kind NodeKind, sp source.Span, arena *Arena[T], data T) NodeID {
	id := b.NewNode(kind, sp)
	b.Node(id).Payload = PayloadID(arena.Allocate(data))
	return id
}
