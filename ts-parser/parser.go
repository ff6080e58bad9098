// Package tsparser checks JavaScript syntax with tree-sitter, independently
// of the parser package. It is used to cross-check parse results and
// serializer output.
package tsparser

import (
	"context"
	"fmt"
	"io"

	ts "github.com/smacker/go-tree-sitter"
	javascript "github.com/smacker/go-tree-sitter/javascript"
)

// SyntaxError points at the first node tree-sitter could not fit into the
// grammar.
type SyntaxError struct {
	Path string
	// 1-based
	Line, Column int
	// "ERROR" or "MISSING <kind>"
	Kind string
	Text string
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: tree-sitter: %s near %q", err.Path, err.Line, err.Column, err.Kind, err.Text)
}

func ParseReader(path string, rdr io.Reader) (err error) {
	bytes, err := io.ReadAll(rdr)
	if err == nil {
		err = ParseBytes(path, bytes)
	}
	return
}

func ParseBytes(path string, bytes []byte) error {
	return ParseBytesCtx(context.Background(), path, bytes)
}

// ParseBytesCtx parses bytes and returns a *SyntaxError if the tree has
// error or missing nodes. Parsing stops early when ctx is done.
func ParseBytesCtx(ctx context.Context, path string, bytes []byte) error {
	parser := ts.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, bytes)
	if err != nil {
		return fmt.Errorf("tree-sitter: %s: %w", path, err)
	}

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	if bad := findError(root); bad != nil {
		kind := "ERROR"
		if bad.IsMissing() {
			kind = "MISSING " + bad.Type()
		}
		text := bad.Content(bytes)
		if len(text) > 40 {
			text = text[:40]
		}
		start := bad.StartPoint()
		return &SyntaxError{
			Path:   path,
			Line:   int(start.Row) + 1,
			Column: int(start.Column) + 1,
			Kind:   kind,
			Text:   text,
		}
	}
	return &SyntaxError{Path: path, Line: 1, Column: 1, Kind: "ERROR"}
}

// findError returns the first error or missing node, depth-first.
func findError(node *ts.Node) *ts.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if bad := findError(node.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}
