package treejs

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/lexer"
)

// Check runs the static checks the parser leaves out, mostly strict mode
// rules. All errors are reported, combined with multierr; each one is a
// *lexer.SyntaxError. Warnings go to logger.
func Check(script *ast.Script, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	chk := &checker{
		script: script,
		logger: logger,
	}
	ast.Walk(chk, script)
	return chk.errs
}

type checker struct {
	script *ast.Script
	logger *zap.Logger
	errs   error
	ctx    []checkerContext
}

type checkerContext struct {
	node      ast.Node
	setStrict bool
}

func (c *checker) isStrictHere() bool {
	cl := len(c.ctx)
	for i := 0; i < cl; i++ {
		if c.ctx[cl-1-i].setStrict {
			return true
		}
	}
	return false
}

func (c *checker) syntaxError(node ast.Node, msg string) *lexer.SyntaxError {
	serr := &lexer.SyntaxError{Message: msg}
	span := node.Span()
	serr.Start, serr.End = span.Start, span.End
	if pos := c.script.Position(node.Idx0()); pos != nil {
		serr.Filename = pos.Filename
		serr.Line = pos.Line
		serr.Column = pos.Column
	}
	if c.script.File != nil {
		serr.Source = c.script.File.Source()
	}
	return serr
}

func (c *checker) emitErr(node ast.Node, msg string) {
	c.errs = multierr.Append(c.errs, c.syntaxError(node, msg))
}

func (c *checker) Enter(node ast.Node) (v ast.Visitor) {
	c.ctx = append(c.ctx, checkerContext{node: node})

	switch node := node.(type) {
	case *ast.Script:
		// function bodies are scripts too
		if hasUseStrict(node.Body) {
			c.ctx[len(c.ctx)-1].setStrict = true
		}

	case *ast.VariableDeclaration:
		c.checkBinding(node.Target)

	case *ast.CatchClause:
		c.checkBinding(node.Parameter)

	case *ast.FunctionLiteral:
		if node.Name != nil {
			c.checkBindingIn(node.Name, node.Body)
		}
		for _, param := range node.Parameters {
			c.checkBindingIn(param, node.Body)
		}

	case *ast.WithStatement:
		if c.isStrictHere() {
			c.emitErr(node, "with statement can't appear in strict mode")
		} else {
			serr := c.syntaxError(node, "with statement")
			c.logger.Warn("deprecated with statement",
				zap.String("file", serr.Filename),
				zap.Int("line", serr.Line),
				zap.Int("column", serr.Column),
			)
		}

	case *ast.ForStatement:
		c.forbidFuncDecl(node.Body)
	case *ast.ForInStatement:
		c.forbidFuncDecl(node.Body)
	case *ast.WhileStatement:
		c.forbidFuncDecl(node.Body)
	case *ast.DoWhileStatement:
		c.forbidFuncDecl(node.Body)
	case *ast.IfStatement:
		c.forbidFuncDecl(node.Consequent)
		c.forbidFuncDecl(node.Alternate)
	}

	// keep using the same visitor
	return c
}

// checkBindingIn checks a function's name or parameter, which is strict if
// the function's own body is.
func (c *checker) checkBindingIn(target ast.Expression, body *ast.Script) {
	if body != nil && hasUseStrict(body.Body) {
		c.ctx = append(c.ctx, checkerContext{node: body, setStrict: true})
		defer func() { c.ctx = c.ctx[:len(c.ctx)-1] }()
	}
	c.checkBinding(target)
}

// checkBinding rejects strict-reserved words bound by a declaration,
// including inside destructuring patterns.
func (c *checker) checkBinding(target ast.Expression) {
	if !c.isStrictHere() {
		return
	}

	switch target := target.(type) {
	case *ast.Identifier:
		if isStrictReservedKw(target.Name) || target.Name == "eval" || target.Name == "arguments" {
			c.emitErr(target, fmt.Sprintf("variable can't be named %s in strict mode", target.Name))
		}
	case *ast.ArrayLiteral:
		for _, item := range target.Value {
			if item != nil {
				c.checkBinding(item)
			}
		}
	case *ast.ObjectLiteral:
		for _, prop := range target.Value {
			if prop.Value == nil {
				c.checkBinding(prop.Key)
			} else {
				c.checkBinding(prop.Value)
			}
		}
	}
}

// forbidFuncDecl rejects function statements nested directly in a loop or
// if statement, in strict code.
func (c *checker) forbidFuncDecl(node ast.Statement) {
	if _, isFnStmt := node.(*ast.FunctionStatement); isFnStmt && c.isStrictHere() {
		c.emitErr(node, "function declaration cannot appear in statement position")
	}
}

// Returns true iff the given string corresponds to a keyword that is reserved in strict mode only.
func isStrictReservedKw(s string) bool {
	switch s {
	case "implements", "let", "private", "public", "interface", "package", "protected", "static", "yield":
		return true
	}
	return false
}

func (c *checker) Exit(node ast.Node) {
	if c.ctx[len(c.ctx)-1].node != node {
		panic("bug: Check: inconsistent context")
	}
	c.ctx = c.ctx[:len(c.ctx)-1]
}
