package query

// Node is a parsed query. The set of node kinds is closed: only the types in
// this package implement it.
type Node interface {
	node()
	String() string
}

// TermNode matches documents containing Term. Term is already normalized.
type TermNode struct {
	Term string
}

// AndNode matches documents matched by both sides.
type AndNode struct {
	Left  Node
	Right Node
}

// OrNode matches documents matched by either side.
type OrNode struct {
	Left  Node
	Right Node
}

// NotNode matches every known document not matched by Operand.
type NotNode struct {
	Operand Node
}

func (*TermNode) node() {}
func (*AndNode) node()  {}
func (*OrNode) node()   {}
func (*NotNode) node()  {}

func (n *TermNode) String() string {
	return "TERM(" + n.Term + ")"
}

func (n *AndNode) String() string {
	return "(" + n.Left.String() + " AND " + n.Right.String() + ")"
}

func (n *OrNode) String() string {
	return "(" + n.Left.String() + " OR " + n.Right.String() + ")"
}

func (n *NotNode) String() string {
	return "NOT(" + n.Operand.String() + ")"
}

func Term(term string) *TermNode    { return &TermNode{Term: term} }
func And(left, right Node) *AndNode { return &AndNode{Left: left, Right: right} }
func Or(left, right Node) *OrNode   { return &OrNode{Left: left, Right: right} }
func Not(operand Node) *NotNode     { return &NotNode{Operand: operand} }
