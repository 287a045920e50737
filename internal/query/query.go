package query

import (
	"slices"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/pkg/failure"
	"golang.org/x/net/html"
)

// Evaluator runs a selector against a document, either from the root
// (ctx == dom.NoNode) or from a context element. Matches come back in
// document order without duplicates. A selector that matches nothing is not
// an error at this level.
type Evaluator interface {
	Evaluate(expr string, ctx dom.NodeID) ([]dom.NodeID, failure.ClassifiedError)
}

// HTMLQuery evaluates XPath over a dom.Document with antchfx/xpath.
// Compiled expressions are cached per instance.
type HTMLQuery struct {
	doc   *dom.Document
	mu    sync.Mutex
	cache map[string]*xpath.Expr
}

func NewHTMLQuery(doc *dom.Document) *HTMLQuery {
	return &HTMLQuery{
		doc:   doc,
		cache: make(map[string]*xpath.Expr),
	}
}

func (q *HTMLQuery) Evaluate(expr string, ctx dom.NodeID) ([]dom.NodeID, failure.ClassifiedError) {
	compiled, err := q.compile(expr)
	if err != nil {
		return nil, err
	}

	var top *html.Node
	if ctx == dom.NoNode {
		top = q.doc.Root()
	} else {
		top = q.doc.Node(ctx)
		if top == nil {
			return nil, &QueryError{
				Message:    "context node is not part of the document",
				Cause:      ErrCauseUnknownContext,
				Expression: expr,
			}
		}
	}

	matched := htmlquery.QuerySelectorAll(top, compiled)
	ids := make([]dom.NodeID, 0, len(matched))
	for _, n := range matched {
		if id, ok := q.doc.ID(n); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (q *HTMLQuery) compile(expr string) (*xpath.Expr, failure.ClassifiedError) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if compiled, ok := q.cache[expr]; ok {
		return compiled, nil
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, &QueryError{
			Message:    err.Error(),
			Cause:      ErrCauseMalformedExpression,
			Expression: expr,
		}
	}
	q.cache[expr] = compiled
	return compiled, nil
}

// Count returns the number of matches of expr from the document root.
func Count(e Evaluator, expr string) (int, failure.ClassifiedError) {
	ids, err := e.Evaluate(expr, dom.NoNode)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Select evaluates expr from the document root and reports an empty match
// as ErrCauseEmptyResult.
func Select(e Evaluator, expr string) ([]dom.NodeID, failure.ClassifiedError) {
	ids, err := e.Evaluate(expr, dom.NoNode)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, &QueryError{
			Message:    "selector matched no nodes",
			Cause:      ErrCauseEmptyResult,
			Expression: expr,
		}
	}
	return ids, nil
}
