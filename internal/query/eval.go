package query

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
)

// EvaluationServices carries helpers shared by every evaluation. It is empty
// today; index-specific lookups such as prefix expansion would live here.
type EvaluationServices struct{}

// Evaluate computes the documents matched by n against acc. It never mutates
// acc and every call returns a set the caller owns.
//
// An AND whose left side matches nothing returns without evaluating its
// right side.
func Evaluate(n Node, acc index.Accessor, svc *EvaluationServices) index.DocSet {
	switch n := n.(type) {
	case *TermNode:
		return acc.DocumentsForTerm(n.Term)
	case *AndNode:
		left := Evaluate(n.Left, acc, svc)
		if left.Len() == 0 {
			return index.NewDocSet()
		}
		return left.Intersect(Evaluate(n.Right, acc, svc))
	case *OrNode:
		return Evaluate(n.Left, acc, svc).Union(Evaluate(n.Right, acc, svc))
	case *NotNode:
		operand := Evaluate(n.Operand, acc, svc)
		return acc.AllDocumentIDs().Difference(operand)
	default:
		panic(fmt.Sprintf("query: unknown node type %T", n))
	}
}
