// Package serializer turns a syntax tree back into source text that the
// parser accepts.
//
// Every node handler declares the fields it consults. After a node is
// serialized, the declared fields are compared through reflection with the
// fields the node struct actually has, and the number of children that were
// serialized is compared with ast.Children. A mismatch means a handler went
// out of date with the ast package, and is reported as a *ProgrammerError.
package serializer

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/internal/jsnum"
	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

const tab = "  "

// UnknownNodeKindError is returned when the tree contains a node type that
// has no handler.
type UnknownNodeKindError struct {
	Node ast.Node
}

func (err *UnknownNodeKindError) Error() string {
	return fmt.Sprintf("serializer: unknown node kind %T", err.Node)
}

// ProgrammerError is a disagreement between a handler and the shape of the
// node it handled.
type ProgrammerError struct {
	Node    ast.Node
	Message string
}

func (err *ProgrammerError) Error() string {
	return fmt.Sprintf("serializer: %s on node %T", err.Message, err.Node)
}

// Serialize returns the source text for node. A *ast.Script is rendered as a
// sequence of top-level statements ending in a newline. All self-check
// failures are combined in the returned error.
func Serialize(node ast.Node) (out string, err error) {
	s := &serializer{}
	defer func() {
		if r := recover(); r != nil {
			unk, ok := r.(*UnknownNodeKindError)
			if !ok {
				panic(r)
			}
			out, err = "", unk
		}
	}()

	if script, isScript := node.(*ast.Script); isScript {
		out = s.visit(script, "", s.topLevel)
	} else {
		out = s.visit(node, "", s.dispatch)
	}
	if s.errs != nil {
		return "", s.errs
	}
	return out, nil
}

type frame struct {
	node     ast.Node
	fields   map[string]bool
	children int
}

type serializer struct {
	stack []*frame
	errs  error
	// inside the head of a for loop, where a bare 'in' would end the
	// initializer
	noIn bool
}

type handler func(n ast.Node, ind string) string

// o serializes a child of the node being handled.
func (s *serializer) o(n ast.Node, ind string) string {
	if ast.IsNil(n) {
		return ""
	}
	s.stack[len(s.stack)-1].children++
	return s.visit(n, ind, s.dispatch)
}

// child serializes a child with a handler other than the default one.
func (s *serializer) child(n ast.Node, ind string, h handler) string {
	s.stack[len(s.stack)-1].children++
	return s.visit(n, ind, h)
}

func (s *serializer) visit(n ast.Node, ind string, h handler) string {
	fr := &frame{node: n, fields: map[string]bool{}}
	s.stack = append(s.stack, fr)
	out := h(n, ind)
	s.stack = s.stack[:len(s.stack)-1]
	s.verify(fr)

	if n.Span().Parenthesized {
		out = "(" + out + ")"
	}
	return out
}

// check declares the fields of the current node that its handler consults.
func (s *serializer) check(fields ...string) {
	fr := s.stack[len(s.stack)-1]
	for _, f := range fields {
		fr.fields[f] = true
	}
}

func (s *serializer) progError(n ast.Node, format string, args ...any) {
	s.errs = multierr.Append(s.errs, &ProgrammerError{Node: n, Message: fmt.Sprintf(format, args...)})
}

func (s *serializer) verify(fr *frame) {
	owned := ast.OwnedFields(reflect.TypeOf(fr.node).Elem())
	known := make(map[string]bool, len(owned))
	for _, field := range owned {
		known[field.Name] = true
		if !fr.fields[field.Name] {
			s.progError(fr.node, "field %s unchecked", field.Name)
		}
	}
	for name := range fr.fields {
		if !known[name] {
			s.progError(fr.node, "field %s checked unnecessarily", name)
		}
	}
	if want := len(ast.Children(fr.node)); fr.children != want {
		s.progError(fr.node, "%d children out of %d serialized", fr.children, want)
	}
}

func (s *serializer) topLevel(n ast.Node, ind string) string {
	script := n.(*ast.Script)
	s.check("Body")
	var sb strings.Builder
	for _, stmt := range script.Body {
		sb.WriteString(s.statement(stmt, ind))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (s *serializer) dispatch(n ast.Node, ind string) string {
	switch n := n.(type) {
	case *ast.Script:
		s.check("Body")
		return s.block(n.Body, ind)

	// ====== statements

	case *ast.BlockStatement:
		s.check("List")
		return s.block(n.List, ind)

	case *ast.EmptyStatement:
		return ";"

	case *ast.DebuggerStatement:
		return "debugger"

	case *ast.ExpressionStatement:
		s.check("Expression")
		out := s.o(n.Expression, ind)
		if startsAmbiguously(n.Expression) {
			out = "(" + out + ")"
		}
		return out

	case *ast.IfStatement:
		s.check("Test", "Consequent", "Alternate")
		out := "if (" + s.o(n.Test, ind) + ")"
		if n.Alternate == nil {
			return out + s.body(n.Consequent, ind)
		}
		if _, isIf := n.Consequent.(*ast.IfStatement); isIf {
			// keep the else from attaching to the inner if
			out += " {\n" + ind + tab + s.statement(n.Consequent, ind+tab) + "\n" + ind + "}"
		} else {
			out += s.body(n.Consequent, ind)
		}
		if isBlock(n.Consequent) {
			out += " else"
		} else {
			out += "\n" + ind + "else"
		}
		return out + s.body(n.Alternate, ind)

	case *ast.SwitchStatement:
		s.check("Discriminant", "Body", "Default")
		var sb strings.Builder
		sb.WriteString("switch (" + s.o(n.Discriminant, ind) + ") {\n")
		for i, clause := range n.Body {
			isDefault := i == n.Default
			sb.WriteString(ind)
			sb.WriteString(s.child(clause, ind, func(n ast.Node, ind string) string {
				return s.caseClause(n.(*ast.CaseClause), ind, isDefault)
			}))
			sb.WriteString("\n")
		}
		sb.WriteString(ind + "}")
		return sb.String()

	case *ast.ForStatement:
		s.check("Initializer", "Test", "Update", "Body")
		saved := s.noIn
		s.noIn = true
		init := s.o(n.Initializer, ind)
		s.noIn = saved
		head := init + ";"
		if n.Test != nil {
			head += " " + s.o(n.Test, ind)
		}
		head += ";"
		if n.Update != nil {
			head += " " + s.o(n.Update, ind)
		}
		return "for (" + head + ")" + s.body(n.Body, ind)

	case *ast.ForInStatement:
		s.check("Each", "Into", "Source", "Body")
		out := "for "
		if n.Each {
			out += "each "
		}
		saved := s.noIn
		s.noIn = true
		into := s.o(n.Into, ind)
		s.noIn = saved
		return out + "(" + into + " in " + s.o(n.Source, ind) + ")" + s.body(n.Body, ind)

	case *ast.WhileStatement:
		s.check("Test", "Body")
		return "while (" + s.o(n.Test, ind) + ")" + s.body(n.Body, ind)

	case *ast.DoWhileStatement:
		s.check("Test", "Body")
		body := s.body(n.Body, ind)
		if !isBlock(n.Body) {
			body += "\n" + ind
		} else {
			body += " "
		}
		return "do" + body + "while (" + s.o(n.Test, ind) + ")"

	case *ast.BranchStatement:
		s.check("Token", "Label")
		out := n.Token.String()
		if n.Label != nil {
			out += " " + s.o(n.Label, ind)
		}
		return out

	case *ast.TryStatement:
		s.check("Body", "Catches", "Finally")
		out := "try " + s.o(n.Body, ind)
		for _, clause := range n.Catches {
			out += " " + s.o(clause, ind)
		}
		if n.Finally != nil {
			out += " finally " + s.o(n.Finally, ind)
		}
		return out

	case *ast.CatchClause:
		s.check("Parameter", "Guard", "Body")
		out := "catch (" + s.o(n.Parameter, ind)
		if n.Guard != nil {
			out += " if " + s.o(n.Guard, ind)
		}
		return out + ") " + s.o(n.Body, ind)

	case *ast.ThrowStatement:
		s.check("Argument")
		return "throw " + s.o(n.Argument, ind)

	case *ast.ReturnStatement:
		s.check("Argument")
		if n.Argument == nil {
			return "return"
		}
		return "return " + s.o(n.Argument, ind)

	case *ast.WithStatement:
		s.check("Object", "Body")
		return "with (" + s.o(n.Object, ind) + ")" + s.body(n.Body, ind)

	case *ast.VariableStatement:
		s.check("Token", "List")
		return n.Token.String() + " " + s.declarations(n.List, ind)

	case *ast.VariableDeclaration:
		s.check("Target", "Initializer")
		out := s.o(n.Target, ind)
		if n.Initializer != nil {
			out += " = " + s.operand(n.Initializer, ind, precAssign)
		}
		return out

	case *ast.LabelledStatement:
		s.check("Label", "Statement")
		return s.o(n.Label, ind) + ":\n" + ind + s.statement(n.Statement, ind)

	case *ast.LetStatement:
		s.check("Variables", "Body")
		return "let (" + s.child(n.Variables, ind, s.letHead) + ") " + s.o(n.Body, ind)

	case *ast.FunctionStatement:
		s.check("Function")
		return s.o(n.Function, ind)

	// ====== expressions

	case *ast.FunctionLiteral:
		s.check("Name")
		out := "function "
		if n.Name != nil {
			out += s.o(n.Name, ind)
		}
		return out + s.functionRest(n, ind)

	case *ast.LetExpression:
		s.check("Variables", "Expression")
		return "let (" + s.child(n.Variables, ind, s.letHead) + ") " + s.bodyExpression(n.Expression, ind)

	case *ast.AssignExpression:
		s.check("Operator", "Left", "Right")
		op := "="
		if n.Operator != token.ASSIGN {
			op = n.Operator.String() + "="
		}
		return s.operand(n.Left, ind, precCall) + " " + op + " " + s.operand(n.Right, ind, precAssign)

	case *ast.ConditionalExpression:
		s.check("Test", "Consequent", "Alternate")
		return s.operand(n.Test, ind, precLogicalOr) + " ? " +
			s.operand(n.Consequent, ind, precAssign) + " : " +
			s.operand(n.Alternate, ind, precAssign)

	case *ast.BinaryExpression:
		s.check("Operator", "Left", "Right")
		prec := binaryPrecedence(n.Operator)
		out := s.operand(n.Left, ind, prec) + " " + n.Operator.String() + " " + s.operand(n.Right, ind, prec+1)
		if n.Operator == token.IN && s.noIn && !n.Parenthesized {
			out = "(" + out + ")"
		}
		return out

	case *ast.UnaryExpression:
		s.check("Operator", "Operand")
		operand := s.operand(n.Operand, ind, precUnary)
		switch n.Operator {
		case token.DELETE, token.VOID, token.TYPEOF:
			return n.Operator.String() + " " + operand
		}
		op := n.Operator.String()
		if (n.Operator == token.PLUS || n.Operator == token.MINUS) && strings.HasPrefix(operand, op) {
			// - -x, not --x
			op += " "
		}
		return op + operand

	case *ast.UpdateExpression:
		s.check("Operator", "Operand", "Postfix")
		operand := s.operand(n.Operand, ind, precCall)
		if n.Postfix {
			return operand + n.Operator.String()
		}
		return n.Operator.String() + operand

	case *ast.SequenceExpression:
		s.check("Sequence")
		return s.list(n.Sequence, ind)

	case *ast.NewExpression:
		s.check("Callee", "ArgumentList", "HasArguments")
		callee := s.operand(n.Callee, ind, precMember)
		if hasCallInChain(n.Callee) {
			callee = "(" + callee + ")"
		}
		out := "new " + callee
		if n.HasArguments {
			out += "(" + s.list(n.ArgumentList, ind) + ")"
		}
		return out

	case *ast.CallExpression:
		s.check("Callee", "ArgumentList")
		return s.operand(n.Callee, ind, precCall) + "(" + s.list(n.ArgumentList, ind) + ")"

	case *ast.DotExpression:
		s.check("Left", "Identifier")
		left := s.operand(n.Left, ind, precCall)
		if num, isNum := n.Left.(*ast.NumberLiteral); isNum && !num.Parenthesized && !strings.ContainsAny(left, ".eExX") {
			// 1.toString is a syntax error
			left = "(" + left + ")"
		}
		return left + "." + s.o(n.Identifier, ind)

	case *ast.BracketExpression:
		s.check("Left", "Member")
		return s.operand(n.Left, ind, precCall) + "[" + s.o(n.Member, ind) + "]"

	case *ast.ArrayLiteral:
		s.check("Value")
		items := make([]string, len(n.Value))
		for i, item := range n.Value {
			if item != nil {
				items[i] = s.operand(item, ind, precAssign)
			}
		}
		out := strings.Join(items, ", ")
		if len(n.Value) > 0 && n.Value[len(n.Value)-1] == nil {
			// a trailing hole needs its own comma
			out += ","
		}
		return "[" + out + "]"

	case *ast.ArrayComprehension:
		s.check("Expression", "Tail")
		return "[" + s.operand(n.Expression, ind, precAssign) + " " + s.o(n.Tail, ind) + "]"

	case *ast.GeneratorExpression:
		s.check("Expression", "Tail")
		out := s.operand(n.Expression, ind, precAssign) + " " + s.o(n.Tail, ind)
		if !n.Parenthesized {
			out = "(" + out + ")"
		}
		return out

	case *ast.ComprehensionTail:
		s.check("For", "Guard")
		clauses := make([]string, len(n.For))
		for i, clause := range n.For {
			clauses[i] = s.o(clause, ind)
		}
		out := strings.Join(clauses, " ")
		if n.Guard != nil {
			guard := s.o(n.Guard, ind)
			if !n.Guard.Span().Parenthesized {
				guard = "(" + guard + ")"
			}
			out += " if " + guard
		}
		return out

	case *ast.ComprehensionFor:
		s.check("Each", "Iterator", "Source")
		out := "for "
		if n.Each {
			out += "each "
		}
		return out + "(" + s.o(n.Iterator, ind) + " in " + s.o(n.Source, ind) + ")"

	case *ast.ObjectLiteral:
		s.check("Value")
		if len(n.Value) == 0 {
			return "{}"
		}
		props := make([]string, len(n.Value))
		for i, prop := range n.Value {
			props[i] = s.o(prop, ind)
		}
		return "{" + strings.Join(props, ", ") + "}"

	case *ast.Property:
		s.check("Kind", "Key", "Value")
		key := s.o(n.Key, ind)
		switch {
		case n.Kind == ast.PropertyGet || n.Kind == ast.PropertySet:
			fn, isFn := n.Value.(*ast.FunctionLiteral)
			if !isFn {
				s.progError(n, "accessor value is %T", n.Value)
				return key
			}
			return string(n.Kind) + " " + key + s.child(fn, ind, s.accessor)
		case n.Value == nil:
			return key
		}
		return key + ": " + s.operand(n.Value, ind, precAssign)

	case *ast.Identifier:
		s.check("Name")
		return n.Name

	case *ast.NumberLiteral:
		s.check("Value", "IsInteger", "IsHex")
		return formatNumber(n.Value, n.IsInteger && n.IsHex)

	case *ast.StringLiteral:
		s.check("Value")
		return Quote(n.Value)

	case *ast.RegExpLiteral:
		s.check("Pattern", "Flags")
		return "/" + n.Pattern + "/" + n.Flags

	case *ast.NullLiteral:
		return "null"

	case *ast.BooleanLiteral:
		s.check("Value")
		return strconv.FormatBool(n.Value)

	case *ast.ThisExpression:
		return "this"

	case *ast.YieldExpression:
		s.check("Argument")
		if n.Argument == nil {
			return "yield"
		}
		return "yield " + s.operand(n.Argument, ind, precAssign)
	}

	panic(&UnknownNodeKindError{Node: n})
}

// statement serializes a statement with its terminating semicolon, if it
// needs one.
func (s *serializer) statement(stmt ast.Statement, ind string) string {
	out := s.o(stmt, ind)
	switch stmt.(type) {
	case *ast.ExpressionStatement, *ast.VariableStatement, *ast.DoWhileStatement,
		*ast.BranchStatement, *ast.ReturnStatement, *ast.ThrowStatement, *ast.DebuggerStatement:
		out += ";"
	}
	return out
}

func (s *serializer) block(list []ast.Statement, ind string) string {
	if len(list) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, stmt := range list {
		sb.WriteString(ind + tab)
		sb.WriteString(s.statement(stmt, ind+tab))
		sb.WriteString("\n")
	}
	sb.WriteString(ind + "}")
	return sb.String()
}

// body serializes the statement governed by if, while, for or with.
func (s *serializer) body(stmt ast.Statement, ind string) string {
	if isBlock(stmt) {
		return " " + s.statement(stmt, ind)
	}
	return "\n" + ind + tab + s.statement(stmt, ind+tab)
}

func isBlock(stmt ast.Statement) bool {
	_, ok := stmt.(*ast.BlockStatement)
	return ok
}

func (s *serializer) caseClause(n *ast.CaseClause, ind string, isDefault bool) string {
	s.check("Test", "Consequent")
	var out string
	if isDefault || n.Test == nil {
		out = "default:"
	} else {
		out = "case " + s.o(n.Test, ind) + ":"
	}
	for _, stmt := range n.Consequent {
		out += "\n" + ind + tab + s.statement(stmt, ind+tab)
	}
	return out
}

func (s *serializer) declarations(list []*ast.VariableDeclaration, ind string) string {
	decls := make([]string, len(list))
	for i, decl := range list {
		decls[i] = s.o(decl, ind)
	}
	return strings.Join(decls, ", ")
}

// letHead serializes the declarations in let (...), without the keyword.
func (s *serializer) letHead(n ast.Node, ind string) string {
	s.check("Token", "List")
	return s.declarations(n.(*ast.VariableStatement).List, ind)
}

// accessor serializes a getter or setter: the function without its
// keyword.
func (s *serializer) accessor(n ast.Node, ind string) string {
	fn := n.(*ast.FunctionLiteral)
	s.check("Name")
	return s.functionRest(fn, ind)
}

func (s *serializer) functionRest(fn *ast.FunctionLiteral, ind string) string {
	s.check("Parameters", "Body", "ExprBody")
	params := make([]string, len(fn.Parameters))
	for i, param := range fn.Parameters {
		params[i] = s.o(param, ind)
	}

	// a function body starts a new for-loop context
	saved := s.noIn
	s.noIn = false
	defer func() { s.noIn = saved }()

	out := "(" + strings.Join(params, ", ") + ") "
	if fn.Body != nil {
		return out + s.o(fn.Body, ind)
	}
	return out + s.bodyExpression(fn.ExprBody, ind)
}

// bodyExpression serializes the expression after a function head or a let
// head, where a leading '{' would start a block.
func (s *serializer) bodyExpression(e ast.Expression, ind string) string {
	out := s.operand(e, ind, precAssign)
	if startsAmbiguously(e) {
		out = "(" + out + ")"
	}
	return out
}

func (s *serializer) list(items []ast.Expression, ind string) string {
	strs := make([]string, len(items))
	for i, item := range items {
		strs[i] = s.operand(item, ind, precAssign)
	}
	return strings.Join(strs, ", ")
}

// operand serializes n, adding parentheses if it binds less tightly than
// minPrec.
func (s *serializer) operand(n ast.Expression, ind string, minPrec int) string {
	out := s.o(n, ind)
	if !n.Span().Parenthesized && precedence(n) < minPrec {
		out = "(" + out + ")"
	}
	return out
}

// formatNumber renders a numeric literal. Integers written in hex stay in
// hex.
func formatNumber(f float64, hex bool) string {
	switch {
	case math.IsInf(f, +1):
		return "1e999"
	case hex && f >= 0 && f < 1<<63:
		return "0x" + strconv.FormatUint(uint64(f), 16)
	}
	return jsnum.Format(f)
}

// Quote returns s as a double-quoted JS string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\x%02x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
