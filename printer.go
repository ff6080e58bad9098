package treejs

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
)

// PrintAST writes an indented dump of the tree, one node per line: its
// type, position and source text (omitted when it spans several lines).
func PrintAST(w io.Writer, script *ast.Script) error {
	walker := &printer{
		w:      w,
		script: script,
	}
	ast.Walk(walker, script)
	return walker.err
}

type printer struct {
	w      io.Writer
	script *ast.Script
	indent int
	err    error
}

func (p *printer) Enter(n ast.Node) (v ast.Visitor) {
	if p.err != nil {
		return nil
	}

	t := reflect.TypeOf(n)
	subSrc := p.script.Source(n)
	if strings.Contains(subSrc, "\n") {
		subSrc = ""
	}

	pos := "?"
	if position := p.script.Position(n.Idx0()); position != nil {
		pos = position.String()
	}

	_, p.err = fmt.Fprintf(p.w, "%s%s:  %s  %s\n", strings.Repeat("|   ", p.indent), t.String(), pos, subSrc)
	p.indent++
	return p
}

func (p *printer) Exit(n ast.Node) {
	p.indent--
}
