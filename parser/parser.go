// Package parser is a recursive-descent parser producing an *ast.Script.
//
// The grammar is that of Narcissus-era SpiderMonkey: on top of ES3 it
// accepts let blocks and expressions, destructuring, expression closures,
// guarded catch clauses, for each..in, array comprehensions, generator
// expressions and yield.
//
// Parsing stops at the first error, which is always a *lexer.SyntaxError.
package parser

import (
	"gopkg.in/sourcemap.v1"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/lexer"
	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

type parser struct {
	tz           *lexer.Tokenizer
	firstLine    int
	sourceMapped bool
}

// Parse parses a complete program. line is the line number of the first
// line of source, for scripts embedded in larger documents.
func Parse(source, filename string, line int) (*ast.Script, error) {
	return parse(lexer.New(source, filename, line), line, false)
}

// ParseWithSourceMap is like Parse, but positions resolved through the
// returned script are translated through sm.
func ParseWithSourceMap(source, filename string, line int, sm *sourcemap.Consumer) (*ast.Script, error) {
	return parse(lexer.NewWithSourceMap(source, filename, line, sm), line, sm != nil)
}

// ParseFunction parses the parameter list and body handed to the Function
// constructor, returning the function literal and the script wrapping it.
func ParseFunction(params, body string) (*ast.FunctionLiteral, *ast.Script, error) {
	const filename = "anonymous"
	source := "(function anonymous(" + params + "\n) {\n" + body + "\n})"
	script, err := Parse(source, filename, 1)
	if err != nil {
		return nil, nil, err
	}

	// reject parameter lists or bodies that close the function early
	if len(script.Body) == 1 {
		if stmt, ok := script.Body[0].(*ast.ExpressionStatement); ok {
			if fn, ok := stmt.Expression.(*ast.FunctionLiteral); ok && fn.Start == 1 && fn.End == len(source)-1 {
				return fn, script, nil
			}
		}
	}
	return nil, nil, &lexer.SyntaxError{
		Message:  "Invalid function definition",
		Filename: filename,
		Line:     1,
		Column:   1,
		End:      len(source),
		Source:   source,
	}
}

func parse(tz *lexer.Tokenizer, line int, sourceMapped bool) (script *ast.Script, err error) {
	defer func() {
		if r := recover(); r != nil {
			serr, isSyntaxErr := r.(*lexer.SyntaxError)
			if !isSyntaxErr {
				panic(r)
			}
			script = nil
			err = serr
		}
	}()

	if line < 1 {
		line = 1
	}
	p := &parser{tz: tz, firstLine: line, sourceMapped: sourceMapped}
	script = p.script(false)
	if !tz.Done() {
		p.fail("Syntax error")
	}
	script.Start = 0
	script.End = len(tz.Source())
	script.Line = line
	return script, nil
}

func (p *parser) fail(msg string) {
	panic(p.tz.NewSyntaxError(msg))
}

// begin returns the span of the current token.
func (p *parser) begin() ast.Base {
	tok := p.tz.Token()
	return ast.Base{Start: tok.Start, End: tok.End, Line: tok.Line}
}

// from returns a span starting where n starts.
func from(n ast.Node) ast.Base {
	span := n.Span()
	return ast.Base{Start: span.Start, End: span.End, Line: span.Line}
}

// finish extends the span of n to the end of the current token.
func (p *parser) finish(n ast.Node) {
	n.Span().End = p.tz.Token().End
}

func (p *parser) identifier() *ast.Identifier {
	return &ast.Identifier{Base: p.begin(), Name: p.tz.Token().Value}
}

// script parses statements up to the end of input or an unmatched '}'.
func (p *parser) script(inFunction bool) *ast.Script {
	s := &ast.Script{
		File:         p.tz.File(),
		FirstLine:    p.firstLine,
		SourceMapped: p.sourceMapped,
	}
	s.Base = p.begin()
	x := newContext(s, inFunction)
	s.Body = p.statements(x)
	p.finish(s)
	return s
}

func (p *parser) statements(x staticContext) []ast.Statement {
	var list []ast.Statement
	for !p.tz.Done() && p.tz.Peek(true) != token.RIGHT_BRACE {
		list = append(list, p.statement(x))
	}
	return list
}

func (p *parser) block(x staticContext) *ast.BlockStatement {
	p.tz.MustMatch(token.LEFT_BRACE)
	n := &ast.BlockStatement{Base: p.begin()}
	x2 := x.withLetDecls(&n.VarDecls).pushTarget(n)
	n.List = p.statements(x2)
	p.tz.MustMatch(token.RIGHT_BRACE)
	p.finish(n)
	return n
}

// magicalSemicolon implements automatic semicolon insertion: a statement
// must be followed by ';', a newline, '}' or the end of input.
func (p *parser) magicalSemicolon() {
	switch p.tz.PeekOnSameLine(false) {
	case token.END, token.NEWLINE, token.SEMICOLON, token.RIGHT_BRACE:
	default:
		p.fail("Missing ; before statement")
	}
	p.tz.Match(token.SEMICOLON)
}

func (p *parser) statement(x staticContext) ast.Statement {
	tt := p.tz.Next(true)

	// Statements ending in '}' return early, skipping semicolon insertion.
	var n ast.Statement
	switch tt {
	case token.FUNCTION:
		form := ast.FormDeclared
		if x.nesting != nestingTop {
			form = ast.FormStatement
		}
		fn := p.functionDefinition(x, true, form)
		return &ast.FunctionStatement{Base: from(fn), Function: fn}

	case token.LEFT_BRACE:
		block := &ast.BlockStatement{Base: p.begin()}
		x2 := x.withLetDecls(&block.VarDecls).pushTarget(block).nest(nestingShallow)
		block.List = p.statements(x2)
		p.tz.MustMatch(token.RIGHT_BRACE)
		p.finish(block)
		return block

	case token.IF:
		ifStmt := &ast.IfStatement{Base: p.begin()}
		ifStmt.Test = p.headExpression(x)
		x2 := x.pushTarget(ifStmt).nest(nestingDeep)
		ifStmt.Consequent = p.statement(x2)
		if p.tz.Match(token.ELSE) {
			ifStmt.Alternate = p.statement(x2)
		}
		p.finish(ifStmt)
		return ifStmt

	case token.SWITCH:
		return p.switchStatement(x)

	case token.FOR:
		return p.forStatement(x)

	case token.WHILE:
		loop := &ast.WhileStatement{Base: p.begin()}
		loop.Test = p.headExpression(x)
		x2 := x.pushTarget(loop).nest(nestingDeep)
		loop.Body = p.statement(x2)
		p.finish(loop)
		return loop

	case token.DO:
		loop := &ast.DoWhileStatement{Base: p.begin()}
		x2 := x.pushTarget(loop).nest(nestingDeep)
		loop.Body = p.statement(x2)
		p.tz.MustMatch(token.WHILE)
		loop.Test = p.headExpression(x)
		// do-while may be followed by another statement on the same line
		p.tz.Match(token.SEMICOLON)
		p.finish(loop)
		return loop

	case token.BREAK, token.CONTINUE:
		n = p.branchStatement(x, tt)

	case token.TRY:
		return p.tryStatement(x)

	case token.CATCH, token.FINALLY:
		p.fail(tt.String() + " without preceding try")

	case token.THROW:
		throw := &ast.ThrowStatement{Base: p.begin()}
		throw.Argument = p.expression(x)
		n = throw

	case token.RETURN:
		n = p.returnStatement(x)

	case token.WITH:
		with := &ast.WithStatement{Base: p.begin()}
		with.Object = p.headExpression(x)
		x2 := x.pushTarget(with).nest(nestingDeep)
		with.Body = p.statement(x2)
		p.finish(with)
		return with

	case token.VAR, token.CONST:
		n = p.variables(x, tt, &x.parentScript.VarDecls)

	case token.LET:
		if p.tz.Peek(false) == token.LEFT_PARENTHESIS {
			letNode := p.letBlock(x, true)
			if letStmt, isBlock := letNode.(*ast.LetStatement); isBlock {
				return letStmt
			}
			n = letNode.(ast.Statement)
		} else {
			n = p.variables(x, tt, x.letDecls)
		}

	case token.DEBUGGER:
		n = &ast.DebuggerStatement{Base: p.begin()}

	case token.SEMICOLON:
		return &ast.EmptyStatement{Base: p.begin()}

	default:
		if tt == token.IDENTIFIER && p.tz.Peek(false) == token.COLON {
			label := p.identifier()
			if containsLabel(x.allLabels, label.Name) {
				p.fail("Duplicate label")
			}
			p.tz.Next(false)
			labelled := &ast.LabelledStatement{Base: from(label), Label: label}
			labelled.Statement = p.statement(x.pushLabel(label.Name).nest(nestingShallow))
			p.finish(labelled)
			return labelled
		}

		p.tz.Unget()
		expr := p.expression(x)
		n = &ast.ExpressionStatement{Base: from(expr), Expression: expr}
	}

	p.magicalSemicolon()
	p.finish(n)
	return n
}

// headExpression parses the parenthesized head of if, while, switch, with.
func (p *parser) headExpression(x staticContext) ast.Expression {
	p.tz.MustMatch(token.LEFT_PARENTHESIS)
	n := p.parenExpression(x)
	p.tz.MustMatch(token.RIGHT_PARENTHESIS)
	return n
}

func (p *parser) switchStatement(x staticContext) *ast.SwitchStatement {
	// CASEs are allowed after DEFAULT.
	n := &ast.SwitchStatement{Base: p.begin(), Default: -1}
	n.Discriminant = p.headExpression(x)
	x2 := x.pushTarget(n).nest(nestingDeep)
	p.tz.MustMatch(token.LEFT_BRACE)

	for {
		tt := p.tz.Next(false)
		if tt == token.RIGHT_BRACE {
			break
		}

		clause := &ast.CaseClause{Base: p.begin()}
		switch tt {
		case token.DEFAULT:
			if n.Default >= 0 {
				p.fail("More than one switch default")
			}
			n.Default = len(n.Body)
		case token.CASE:
			clause.Test = p.expression(x2)
		default:
			p.fail("Invalid switch case")
		}
		p.tz.MustMatch(token.COLON)

		for {
			tt := p.tz.Peek(true)
			if tt == token.CASE || tt == token.DEFAULT || tt == token.RIGHT_BRACE {
				break
			}
			clause.Consequent = append(clause.Consequent, p.statement(x2))
		}
		p.finish(clause)
		n.Body = append(n.Body, clause)
	}

	p.finish(n)
	return n
}

func (p *parser) forStatement(x staticContext) ast.Statement {
	start := p.begin()
	each := false
	if p.tz.Match(token.IDENTIFIER) {
		if p.tz.Token().Value == "each" {
			each = true
		} else {
			p.tz.Unget()
		}
	}
	p.tz.MustMatch(token.LEFT_PARENTHESIS)

	// a let head gets an implicit block around the rest of the loop
	var letDecls []*ast.Identifier
	x3 := x.withForLoopInit(true)

	var init ast.Node
	switch tt := p.tz.Peek(true); tt {
	case token.SEMICOLON:
	case token.VAR, token.CONST:
		p.tz.Next(true)
		init = p.variables(x3, tt, &x.parentScript.VarDecls)
	case token.LET:
		p.tz.Next(true)
		if p.tz.Peek(false) == token.LEFT_PARENTHESIS {
			init = p.letBlock(x3, false)
		} else {
			init = p.variables(x3.withLetDecls(&letDecls), tt, &letDecls)
		}
	default:
		init = p.expression(x3)
	}

	if init != nil && p.tz.Match(token.IN) {
		n := &ast.ForInStatement{Base: start, Each: each, Into: init}
		switch init := init.(type) {
		case *ast.VariableStatement:
			// destructuring turns one declaration into many, so only one
			// declaration is allowed
			if len(init.List) != 1 {
				p.fail("Invalid for..in left-hand side")
			}
		case *ast.ArrayLiteral, *ast.ObjectLiteral:
			p.destructuredNames(init.(ast.Expression), false)
		case *ast.Identifier, *ast.DotExpression, *ast.BracketExpression, *ast.CallExpression:
		default:
			p.fail("Invalid for..in left-hand side")
		}
		n.Source = p.expression(x)
		p.tz.MustMatch(token.RIGHT_PARENTHESIS)
		n.VarDecls = letDecls
		n.Body = p.statement(x.pushTarget(n).nest(nestingDeep))
		p.finish(n)
		return n
	}

	n := &ast.ForStatement{Base: start, Initializer: init}
	p.tz.MustMatch(token.SEMICOLON)
	if each {
		p.fail("Invalid for each..in loop")
	}
	if p.tz.Peek(true) != token.SEMICOLON {
		n.Test = p.expression(x)
	}
	p.tz.MustMatch(token.SEMICOLON)
	if p.tz.Peek(true) != token.RIGHT_PARENTHESIS {
		n.Update = p.expression(x)
	}
	p.tz.MustMatch(token.RIGHT_PARENTHESIS)
	n.VarDecls = letDecls
	n.Body = p.statement(x.pushTarget(n).nest(nestingDeep))
	p.finish(n)
	return n
}

func (p *parser) branchStatement(x staticContext, tt token.Token) *ast.BranchStatement {
	n := &ast.BranchStatement{Base: p.begin(), Token: tt}

	// handles the |foo: break foo| corner case
	x2 := x.pushTarget(n)

	if p.tz.PeekOnSameLine(false) == token.IDENTIFIER {
		p.tz.Next(false)
		n.Label = p.identifier()
	}

	if n.Label != nil {
		target, found := x2.labeledTargets.find(func(t labeledTarget) bool {
			return containsLabel(t.labels, n.Label.Name)
		})
		if found {
			n.Target = target.node
		}
	} else {
		n.Target = x2.defaultTarget
	}

	if n.Target == nil {
		p.fail("Invalid " + tt.String())
	}
	if tt == token.CONTINUE && !isLoop(n.Target) {
		p.fail("Invalid continue")
	}
	return n
}

func (p *parser) tryStatement(x staticContext) *ast.TryStatement {
	n := &ast.TryStatement{Base: p.begin()}
	n.Body = p.block(x)

	for p.tz.Match(token.CATCH) {
		clause := &ast.CatchClause{Base: p.begin()}
		p.tz.MustMatch(token.LEFT_PARENTHESIS)
		switch p.tz.Next(false) {
		case token.LEFT_BRACKET, token.LEFT_BRACE:
			p.tz.Unget()
			clause.Parameter, _ = p.destructuringExpression(x, true)
		case token.IDENTIFIER:
			clause.Parameter = p.identifier()
		default:
			p.fail("missing identifier in catch")
		}

		if p.tz.Match(token.IF) {
			if len(n.Catches) > 0 && n.Catches[len(n.Catches)-1].Guard == nil {
				p.fail("Guarded catch after unguarded")
			}
			clause.Guard = p.expression(x)
		}
		p.tz.MustMatch(token.RIGHT_PARENTHESIS)
		clause.Body = p.block(x)
		p.finish(clause)
		n.Catches = append(n.Catches, clause)
	}

	if p.tz.Match(token.FINALLY) {
		n.Finally = p.block(x)
	}
	if len(n.Catches) == 0 && n.Finally == nil {
		p.fail("Invalid try statement")
	}
	p.finish(n)
	return n
}

// checkGenerator rejects a function that both yields and returns a value.
func (p *parser) checkGenerator(script *ast.Script) {
	if script.HasReturnWithValue && script.IsGenerator {
		p.fail("Generator returns a value")
	}
}

func (p *parser) returnStatement(x staticContext) *ast.ReturnStatement {
	if !x.inFunction {
		p.fail("Return not in function")
	}

	n := &ast.ReturnStatement{Base: p.begin()}
	switch p.tz.PeekOnSameLine(true) {
	case token.END, token.NEWLINE, token.SEMICOLON, token.RIGHT_BRACE:
		x.parentScript.HasEmptyReturn = true
	default:
		n.Argument = p.expression(x)
		x.parentScript.HasReturnWithValue = true
	}
	p.checkGenerator(x.parentScript)
	return n
}

func (p *parser) yieldExpression(x staticContext) *ast.YieldExpression {
	if !x.inFunction {
		p.fail("Yield not in function")
	}
	x.parentScript.IsGenerator = true

	n := &ast.YieldExpression{Base: p.begin()}
	switch p.tz.PeekOnSameLine(true) {
	case token.END, token.NEWLINE, token.SEMICOLON, token.RIGHT_BRACE,
		token.YIELD, token.RIGHT_BRACKET, token.RIGHT_PARENTHESIS, token.COLON, token.COMMA:
	default:
		n.Argument = p.assignExpression(x)
	}
	p.checkGenerator(x.parentScript)
	p.finish(n)
	return n
}

// functionDefinition parses a function after the 'function' keyword.
func (p *parser) functionDefinition(x staticContext, requireName bool, form ast.FunctionForm) *ast.FunctionLiteral {
	fn := &ast.FunctionLiteral{Base: p.begin(), Form: form}
	if p.tz.Match(token.IDENTIFIER) {
		fn.Name = p.identifier()
	} else if requireName {
		p.fail("missing function identifier")
	}

	p.functionRest(fn)
	if form == ast.FormDeclared {
		x.parentScript.FunDecls = append(x.parentScript.FunDecls, fn)
	}
	return fn
}

// functionRest parses the parameter list and body of fn.
func (p *parser) functionRest(fn *ast.FunctionLiteral) {
	// Functions start from a fresh context: labels and break targets of
	// the enclosing code are not visible inside.
	body := &ast.Script{
		File:         p.tz.File(),
		FirstLine:    p.firstLine,
		SourceMapped: p.sourceMapped,
	}
	x2 := newContext(body, true)

	p.tz.MustMatch(token.LEFT_PARENTHESIS)
	if !p.tz.Match(token.RIGHT_PARENTHESIS) {
		for {
			switch p.tz.Next(false) {
			case token.LEFT_BRACKET, token.LEFT_BRACE:
				p.tz.Unget()
				param, _ := p.destructuringExpression(x2, true)
				fn.Parameters = append(fn.Parameters, param)
			case token.IDENTIFIER:
				fn.Parameters = append(fn.Parameters, p.identifier())
			default:
				p.fail("missing formal parameter")
			}
			if !p.tz.Match(token.COMMA) {
				break
			}
		}
		p.tz.MustMatch(token.RIGHT_PARENTHESIS)
	}

	// expression closure or a normal body?
	if p.tz.Next(false) != token.LEFT_BRACE {
		p.tz.Unget()
		fn.ExprBody = p.assignExpression(x2)
		if body.IsGenerator {
			p.fail("Generator returns a value")
		}
	} else {
		body.Base = p.begin()
		body.Body = p.statements(x2)
		p.tz.MustMatch(token.RIGHT_BRACE)
		p.finish(body)
		fn.Body = body
	}
	p.finish(fn)
}

// variables parses a comma-separated list of declarations after var, let,
// const, or the '(' of a let block. Bound names are appended to decls.
func (p *parser) variables(x staticContext, kind token.Token, decls *[]*ast.Identifier) *ast.VariableStatement {
	n := &ast.VariableStatement{Base: p.begin(), Token: kind}

	for {
		decl := &ast.VariableDeclaration{}
		switch p.tz.Next(false) {
		case token.LEFT_BRACKET, token.LEFT_BRACE:
			// need to unget to parse the full destructuring pattern
			p.tz.Unget()
			pattern, names := p.destructuringExpression(x, true)
			decl.Base = from(pattern)
			decl.Target = pattern
			*decls = append(*decls, names...)

			if !(x.inForLoopInit && p.tz.Peek(false) == token.IN) {
				p.tz.MustMatch(token.ASSIGN)
				if p.tz.Token().AssignOp != 0 {
					p.fail("Invalid variable initialization")
				}
				decl.Initializer = p.assignExpression(x)
			}

		case token.IDENTIFIER:
			name := p.identifier()
			decl.Base = from(name)
			decl.Target = name
			*decls = append(*decls, name)

			if p.tz.Match(token.ASSIGN) {
				if p.tz.Token().AssignOp != 0 {
					p.fail("Invalid variable initialization")
				}
				decl.Initializer = p.assignExpression(x)
			}

		default:
			p.fail("missing variable name")
		}

		p.finish(decl)
		n.List = append(n.List, decl)
		if !p.tz.Match(token.COMMA) {
			break
		}
	}

	p.finish(n)
	return n
}

// letBlock parses a let block or let expression after the 'let' keyword.
// As a statement, a let block not followed by '{' is a let expression
// wrapped in an expression statement.
func (p *parser) letBlock(x staticContext, isStatement bool) ast.Node {
	start := p.begin()
	p.tz.MustMatch(token.LEFT_PARENTHESIS)
	var decls []*ast.Identifier
	vars := p.variables(x, token.LET, &decls)
	p.tz.MustMatch(token.RIGHT_PARENTHESIS)

	if isStatement && p.tz.Peek(false) == token.LEFT_BRACE {
		n := &ast.LetStatement{Base: start, Variables: vars, VarDecls: decls}
		n.Body = p.block(x)
		p.finish(n)
		return n
	}

	n := &ast.LetExpression{Base: start, Variables: vars, VarDecls: decls}
	n.Expression = p.assignExpression(x)
	p.finish(n)
	if isStatement {
		return &ast.ExpressionStatement{Base: from(n), Expression: n}
	}
	return n
}
