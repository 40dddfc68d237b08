// Package search answers boolean queries against the posting stores.
package search

import (
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
)

// Service evaluates parsed queries. It holds no per-query state and is safe
// for concurrent use once the stores are built.
type Service struct {
	services *query.EvaluationServices
}

func NewService() *Service {
	return &Service{services: &query.EvaluationServices{}}
}

// ExecuteQuery evaluates root against acc.
func (s *Service) ExecuteQuery(root query.Node, acc index.Accessor) (index.DocSet, error) {
	if !validNode(root) {
		return nil, apperrors.InvalidArgument("query root is required")
	}
	if !validAccessor(acc) {
		return nil, apperrors.InvalidArgument("index accessor is required")
	}
	return query.Evaluate(root, acc, s.services), nil
}

// validNode reports whether n and all of its operands are non-nil pointers.
func validNode(n query.Node) bool {
	switch n := n.(type) {
	case *query.TermNode:
		return n != nil
	case *query.AndNode:
		return n != nil && validNode(n.Left) && validNode(n.Right)
	case *query.OrNode:
		return n != nil && validNode(n.Left) && validNode(n.Right)
	case *query.NotNode:
		return n != nil && validNode(n.Operand)
	}
	return false
}

func validAccessor(acc index.Accessor) bool {
	switch acc := acc.(type) {
	case nil:
		return false
	case *index.InvertedIndex:
		return acc != nil
	case *index.TermDocumentMatrix:
		return acc != nil
	}
	return true
}
