package parser

import (
	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

// binary operator levels, loosest first
var binaryLevels = [][]token.Token{
	{token.LOGICAL_OR},
	{token.LOGICAL_AND},
	{token.OR},
	{token.EXCLUSIVE_OR},
	{token.AND},
	{token.EQUAL, token.NOT_EQUAL, token.STRICT_EQUAL, token.STRICT_NOT_EQUAL},
	{token.LESS, token.LESS_OR_EQUAL, token.GREATER_OR_EQUAL, token.GREATER, token.INSTANCEOF, token.IN},
	{token.SHIFT_LEFT, token.SHIFT_RIGHT, token.UNSIGNED_SHIFT_RIGHT},
	{token.PLUS, token.MINUS},
	{token.MULTIPLY, token.SLASH, token.REMAINDER},
}

const relationalLevel = 6

// matchAny consumes the next token if it is one of kinds.
func (p *parser) matchAny(kinds []token.Token, exclude token.Token) (token.Token, bool) {
	tt := p.tz.Next(false)
	if tt != exclude {
		for _, kind := range kinds {
			if tt == kind {
				return tt, true
			}
		}
	}
	p.tz.Unget()
	return 0, false
}

// parenExpression parses an expression in a context where it is
// unambiguously delimited, followed by an optional generator tail.
func (p *parser) parenExpression(x staticContext) ast.Expression {
	// 'in' is always accepted inside parentheses, even in a for-loop head
	x2 := x.withForLoopInit(false)
	n := p.expression(x2)

	if p.tz.Match(token.FOR) {
		if yield, ok := n.(*ast.YieldExpression); ok && !yield.Parenthesized {
			p.fail("Yield expression must be parenthesized")
		}
		if seq, ok := n.(*ast.SequenceExpression); ok && !seq.Parenthesized {
			p.fail("Generator expression must be parenthesized")
		}
		n = p.generatorExpression(x2, n)
	}
	return n
}

func (p *parser) generatorExpression(x staticContext, e ast.Expression) *ast.GeneratorExpression {
	n := &ast.GeneratorExpression{Base: from(e), Expression: e}
	n.Tail = p.comprehensionTail(x)
	p.finish(n)
	return n
}

// comprehensionTail parses one or more for..in clauses and an optional
// guard, after the first 'for'.
func (p *parser) comprehensionTail(x staticContext) *ast.ComprehensionTail {
	tail := &ast.ComprehensionTail{Base: p.begin()}

	for {
		clause := &ast.ComprehensionFor{Base: p.begin()}
		if p.tz.Match(token.IDENTIFIER) {
			if p.tz.Token().Value == "each" {
				clause.Each = true
			} else {
				p.tz.Unget()
			}
		}

		p.tz.MustMatch(token.LEFT_PARENTHESIS)
		switch p.tz.Next(false) {
		case token.LEFT_BRACKET, token.LEFT_BRACE:
			p.tz.Unget()
			clause.Iterator, _ = p.destructuringExpression(x, false)
		case token.IDENTIFIER:
			clause.Iterator = p.identifier()
		default:
			p.fail("missing identifier")
		}
		p.tz.MustMatch(token.IN)
		clause.Source = p.expression(x)
		p.tz.MustMatch(token.RIGHT_PARENTHESIS)
		p.finish(clause)
		tail.For = append(tail.For, clause)

		if !p.tz.Match(token.FOR) {
			break
		}
	}

	if p.tz.Match(token.IF) {
		tail.Guard = p.headExpression(x)
	}
	p.finish(tail)
	return tail
}

func (p *parser) expression(x staticContext) ast.Expression {
	n := p.assignExpression(x)
	if !p.tz.Match(token.COMMA) {
		return n
	}

	seq := &ast.SequenceExpression{Base: from(n), Sequence: []ast.Expression{n}}
	for {
		last := seq.Sequence[len(seq.Sequence)-1]
		if yield, ok := last.(*ast.YieldExpression); ok && !yield.Parenthesized {
			p.fail("Yield expression must be parenthesized")
		}
		seq.Sequence = append(seq.Sequence, p.assignExpression(x))
		if !p.tz.Match(token.COMMA) {
			break
		}
	}
	p.finish(seq)
	return seq
}

func (p *parser) assignExpression(x staticContext) ast.Expression {
	// yield is treated like an operand, since it can be the leftmost
	// operand of the expression
	if p.tz.Match(token.YIELD, true) {
		return p.yieldExpression(x)
	}

	lhs := p.conditionalExpression(x)
	if !p.tz.Match(token.ASSIGN) {
		return lhs
	}

	op := p.tz.Token().AssignOp
	switch lhs.(type) {
	case *ast.ArrayLiteral, *ast.ObjectLiteral:
		if op != 0 {
			p.fail("Bad left-hand side of assignment")
		}
		p.destructuredNames(lhs, false)
	case *ast.Identifier, *ast.DotExpression, *ast.BracketExpression, *ast.CallExpression:
	default:
		p.fail("Bad left-hand side of assignment")
	}

	if op == 0 {
		op = token.ASSIGN
	}
	n := &ast.AssignExpression{Base: from(lhs), Operator: op, Left: lhs}
	n.Right = p.assignExpression(x)
	p.finish(n)
	return n
}

func (p *parser) conditionalExpression(x staticContext) ast.Expression {
	n := p.binaryExpression(x, 0)
	if !p.tz.Match(token.QUESTION_MARK) {
		return n
	}

	cond := &ast.ConditionalExpression{Base: from(n), Test: n}
	// 'in' is unambiguous in the middle clause, even in a for-loop head
	cond.Consequent = p.assignExpression(x.withForLoopInit(false))
	if !p.tz.Match(token.COLON) {
		p.fail("missing : after ?")
	}
	cond.Alternate = p.assignExpression(x)
	p.finish(cond)
	return cond
}

func (p *parser) binaryExpression(x staticContext, level int) ast.Expression {
	if level == len(binaryLevels) {
		return p.unaryExpression(x)
	}

	// operands of relational operators may always use 'in'; the operator
	// itself is suppressed in a for-loop head
	operandCtx := x
	var exclude token.Token
	if level == relationalLevel {
		operandCtx = x.withForLoopInit(false)
		if x.inForLoopInit {
			exclude = token.IN
		}
	}

	n := p.binaryExpression(operandCtx, level+1)
	for {
		op, ok := p.matchAny(binaryLevels[level], exclude)
		if !ok {
			return n
		}
		bin := &ast.BinaryExpression{Base: from(n), Operator: op, Left: n}
		bin.Right = p.binaryExpression(operandCtx, level+1)
		p.finish(bin)
		n = bin
	}
}

func isSimpleTarget(n ast.Expression) bool {
	switch n.(type) {
	case *ast.Identifier, *ast.DotExpression, *ast.BracketExpression, *ast.CallExpression:
		return true
	}
	return false
}

func (p *parser) unaryExpression(x staticContext) ast.Expression {
	tt := p.tz.Next(true)
	switch tt {
	case token.DELETE, token.VOID, token.TYPEOF, token.NOT, token.BITWISE_NOT, token.PLUS, token.MINUS:
		n := &ast.UnaryExpression{Base: p.begin(), Operator: tt}
		n.Operand = p.unaryExpression(x)
		p.finish(n)
		return n

	case token.INCREMENT, token.DECREMENT:
		n := &ast.UpdateExpression{Base: p.begin(), Operator: tt}
		n.Operand = p.memberExpression(x, true)
		if !isSimpleTarget(n.Operand) {
			p.fail("Invalid increment operand")
		}
		p.finish(n)
		return n
	}

	p.tz.Unget()
	n := p.memberExpression(x, true)

	// no postfix increment across a line break
	if tt := p.tz.PeekOnSameLine(false); tt == token.INCREMENT || tt == token.DECREMENT {
		p.tz.Next(false)
		if !isSimpleTarget(n) {
			p.fail("Invalid increment operand")
		}
		update := &ast.UpdateExpression{Base: from(n), Operator: tt, Operand: n, Postfix: true}
		p.finish(update)
		return update
	}
	return n
}

func (p *parser) memberExpression(x staticContext, allowCall bool) ast.Expression {
	var n ast.Expression
	if p.tz.Match(token.NEW, true) {
		newExpr := &ast.NewExpression{Base: p.begin()}
		newExpr.Callee = p.memberExpression(x, false)
		if p.tz.Match(token.LEFT_PARENTHESIS) {
			newExpr.HasArguments = true
			newExpr.ArgumentList = p.argumentList(x)
		}
		p.finish(newExpr)
		n = newExpr
	} else {
		n = p.primaryExpression(x)
	}

	inner := x.withForLoopInit(false)
	for {
		switch p.tz.Next(false) {
		case token.PERIOD:
			// keywords are valid property names after '.'
			if tt := p.tz.Next(false); tt != token.IDENTIFIER && !tt.IsKeyword() {
				p.fail("Missing identifier")
			}
			n = &ast.DotExpression{Base: from(n), Left: n, Identifier: p.identifier()}

		case token.LEFT_BRACKET:
			index := &ast.BracketExpression{Base: from(n), Left: n}
			index.Member = p.expression(inner)
			p.tz.MustMatch(token.RIGHT_BRACKET)
			n = index

		case token.LEFT_PARENTHESIS:
			if !allowCall {
				p.tz.Unget()
				return n
			}
			call := &ast.CallExpression{Base: from(n), Callee: n}
			call.ArgumentList = p.argumentList(inner)
			n = call

		default:
			p.tz.Unget()
			return n
		}
		p.finish(n)
	}
}

// argumentList parses call arguments after the '('.
func (p *parser) argumentList(x staticContext) []ast.Expression {
	var args []ast.Expression
	if p.tz.Match(token.RIGHT_PARENTHESIS, true) {
		return args
	}

	for {
		arg := p.assignExpression(x)
		if yield, ok := arg.(*ast.YieldExpression); ok && !yield.Parenthesized && p.tz.Peek(false) == token.COMMA {
			p.fail("Yield expression must be parenthesized")
		}
		if p.tz.Match(token.FOR) {
			arg = p.generatorExpression(x, arg)
			if len(args) > 0 || p.tz.Peek(true) == token.COMMA {
				p.fail("Generator expression must be parenthesized")
			}
		}
		args = append(args, arg)
		if !p.tz.Match(token.COMMA) {
			break
		}
	}
	p.tz.MustMatch(token.RIGHT_PARENTHESIS)
	return args
}

func (p *parser) primaryExpression(x staticContext) ast.Expression {
	tt := p.tz.Next(true)
	tok := p.tz.Token()

	switch tt {
	case token.FUNCTION:
		return p.functionDefinition(x, false, ast.FormExpressed)

	case token.LEFT_BRACKET:
		return p.arrayLiteral(x.withForLoopInit(false))

	case token.LEFT_BRACE:
		return p.objectLiteral(x.withForLoopInit(false))

	case token.LEFT_PARENTHESIS:
		n := p.parenExpression(x)
		p.tz.MustMatch(token.RIGHT_PARENTHESIS)
		n.Span().Parenthesized = true
		return n

	case token.LET:
		return p.letBlock(x, false).(ast.Expression)

	case token.NULL:
		return &ast.NullLiteral{Base: p.begin()}
	case token.THIS:
		return &ast.ThisExpression{Base: p.begin()}
	case token.TRUE, token.FALSE:
		return &ast.BooleanLiteral{Base: p.begin(), Value: tt == token.TRUE}
	case token.IDENTIFIER:
		return p.identifier()
	case token.NUMBER:
		return &ast.NumberLiteral{Base: p.begin(), Value: tok.Number, IsInteger: tok.IsInteger, IsHex: tok.IsHex}
	case token.STRING:
		return &ast.StringLiteral{Base: p.begin(), Value: tok.Value}
	case token.REGEXP:
		return &ast.RegExpLiteral{Base: p.begin(), Pattern: tok.Pattern, Flags: tok.Flags}
	}

	p.fail("missing operand")
	return nil
}

func (p *parser) arrayLiteral(x staticContext) ast.Expression {
	n := &ast.ArrayLiteral{Base: p.begin()}
	for {
		tt := p.tz.Peek(true)
		if tt == token.RIGHT_BRACKET {
			break
		}
		if tt == token.COMMA {
			p.tz.Next(true)
			n.Value = append(n.Value, nil)
			continue
		}
		n.Value = append(n.Value, p.assignExpression(x))
		if !p.tz.Match(token.COMMA) {
			break
		}
	}

	// exactly one element followed by 'for' is an array comprehension
	if len(n.Value) == 1 && n.Value[0] != nil && p.tz.Match(token.FOR) {
		comp := &ast.ArrayComprehension{Base: n.Base, Expression: n.Value[0]}
		comp.Tail = p.comprehensionTail(x)
		p.tz.MustMatch(token.RIGHT_BRACKET)
		p.finish(comp)
		return comp
	}
	p.tz.MustMatch(token.RIGHT_BRACKET)
	p.finish(n)
	return n
}

// propertyKey builds the key of an object literal property from the
// current token.
func (p *parser) propertyKey() ast.Expression {
	tok := p.tz.Token()
	switch tok.Kind {
	case token.NUMBER:
		return &ast.NumberLiteral{Base: p.begin(), Value: tok.Number, IsInteger: tok.IsInteger, IsHex: tok.IsHex}
	case token.STRING:
		return &ast.StringLiteral{Base: p.begin(), Value: tok.Value}
	}
	return p.identifier()
}

func isPropertyName(tt token.Token) bool {
	return tt == token.IDENTIFIER || tt == token.NUMBER || tt == token.STRING || tt.IsKeyword()
}

func (p *parser) objectLiteral(x staticContext) ast.Expression {
	n := &ast.ObjectLiteral{Base: p.begin()}
	if p.tz.Match(token.RIGHT_BRACE) {
		p.finish(n)
		return n
	}

properties:
	for {
		tt := p.tz.Next(false)
		prop := &ast.Property{Base: p.begin(), Kind: ast.PropertyInit}
		name := p.tz.Token().Value

		switch {
		case tt == token.IDENTIFIER && (name == "get" || name == "set") && isPropertyName(p.tz.Peek(false)):
			prop.Kind = ast.PropertyGet
			if name == "set" {
				prop.Kind = ast.PropertySet
			}
			p.tz.Next(false)
			prop.Key = p.propertyKey()
			fn := &ast.FunctionLiteral{Base: from(prop.Key), Form: ast.FormExpressed}
			p.functionRest(fn)
			prop.Value = fn

		case isPropertyName(tt):
			prop.Key = p.propertyKey()
			if p.tz.Match(token.COLON) {
				prop.Value = p.assignExpression(x)
				break
			}
			// {x, y} is shorthand for {x: x, y: y}, mostly useful in
			// destructuring patterns
			_, isIdent := prop.Key.(*ast.Identifier)
			if next := p.tz.Peek(false); !isIdent || tt != token.IDENTIFIER || (next != token.COMMA && next != token.RIGHT_BRACE) {
				p.fail("missing : after property")
			}

		case tt == token.RIGHT_BRACE:
			// trailing comma
			p.tz.Unget()
			break properties

		default:
			p.fail("Invalid property name")
		}

		p.finish(prop)
		n.Value = append(n.Value, prop)
		if !p.tz.Match(token.COMMA) {
			break
		}
	}

	p.tz.MustMatch(token.RIGHT_BRACE)
	p.finish(n)
	return n
}

// destructuringExpression parses an array or object pattern and returns
// it with the names it binds.
func (p *parser) destructuringExpression(x staticContext, simpleNamesOnly bool) (ast.Expression, []*ast.Identifier) {
	n := p.primaryExpression(x)
	return n, p.destructuredNames(n, simpleNamesOnly)
}

// destructuredNames validates a destructuring pattern and collects the
// identifiers it binds. In declarations every leaf must be a simple name.
func (p *parser) destructuredNames(n ast.Expression, simpleNamesOnly bool) []*ast.Identifier {
	var names []*ast.Identifier

	var leaf func(sub ast.Expression)
	leaf = func(sub ast.Expression) {
		switch sub := sub.(type) {
		case *ast.ArrayLiteral, *ast.ObjectLiteral, *ast.ArrayComprehension:
			names = append(names, p.destructuredNames(sub, simpleNamesOnly)...)
		case *ast.Identifier:
			names = append(names, sub)
		default:
			if simpleNamesOnly {
				p.fail("missing name in pattern")
			}
		}
	}

	switch n := n.(type) {
	case *ast.ArrayComprehension:
		p.fail("Invalid array comprehension left-hand side")
	case *ast.ArrayLiteral:
		for _, elem := range n.Value {
			if elem != nil {
				leaf(elem)
			}
		}
	case *ast.ObjectLiteral:
		for _, prop := range n.Value {
			if prop.Kind != ast.PropertyInit {
				p.fail("missing name in pattern")
			}
			if prop.Value == nil {
				leaf(prop.Key)
			} else {
				leaf(prop.Value)
			}
		}
	}
	return names
}
