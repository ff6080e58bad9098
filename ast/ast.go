// Package ast declares the syntax tree produced by the parser and consumed by
// the evaluator and the serializer.
//
// Fields tagged `js:"ref"` are references into the tree (hoisting tables,
// jump targets) or metadata, not owned children: Children and Walk skip
// them.
package ast

import (
	"github.com/robertkrimen/otto/file"

	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

type Node interface {
	Idx0() file.Idx // first byte of the node
	Idx1() file.Idx // first byte past the node
	Span() *Base
}

type Statement interface {
	Node
	_statementNode()
}

type Expression interface {
	Node
	_expressionNode()
}

// Base holds the source span shared by every node. Start and End are byte
// offsets into the script source; Line is the line of the first token,
// counted from the script's starting line.
type Base struct {
	Start, End    int
	Line          int
	Parenthesized bool
}

func (b *Base) Idx0() file.Idx { return file.Idx(b.Start + 1) }
func (b *Base) Idx1() file.Idx { return file.Idx(b.End + 1) }
func (b *Base) Span() *Base    { return b }

// FunctionForm tells how a function literal appeared in the source.
type FunctionForm uint8

const (
	// a function declaration at the top level of a script or function
	// body; hoisted
	FormDeclared FunctionForm = iota
	// a function expression
	FormExpressed
	// a function declaration nested in a block or other statement; bound
	// when executed
	FormStatement
)

type PropertyKind string

const (
	PropertyInit PropertyKind = "init"
	PropertyGet  PropertyKind = "get"
	PropertySet  PropertyKind = "set"
)

// Script is the root of a program, and the body of every function.
type Script struct {
	Base
	Body []Statement

	FunDecls           []*FunctionLiteral `js:"ref"`
	VarDecls           []*Identifier      `js:"ref"`
	HasEmptyReturn     bool               `js:"ref"`
	HasReturnWithValue bool               `js:"ref"`
	IsGenerator        bool               `js:"ref"`

	File         *file.File `js:"ref"`
	FirstLine    int        `js:"ref"`
	SourceMapped bool       `js:"ref"`
}

// Position resolves idx to a source position. Unless the file is mapped
// through a source map, lines are shifted by the script's starting line.
func (s *Script) Position(idx file.Idx) *file.Position {
	if s.File == nil {
		return nil
	}
	pos := s.File.Position(idx)
	if pos == nil {
		return nil
	}
	p := *pos
	if !s.SourceMapped && s.FirstLine > 1 {
		p.Line += s.FirstLine - 1
	}
	return &p
}

// Source returns the text spanned by n.
func (s *Script) Source(n Node) string {
	if s.File == nil {
		return ""
	}
	src := s.File.Source()
	span := n.Span()
	if span.Start < 0 || span.End > len(src) || span.Start > span.End {
		return ""
	}
	return src[span.Start:span.End]
}

// ====== statements

type (
	BlockStatement struct {
		Base
		List     []Statement
		VarDecls []*Identifier `js:"ref"`
	}

	EmptyStatement struct {
		Base
	}

	ExpressionStatement struct {
		Base
		Expression Expression
	}

	IfStatement struct {
		Base
		Test       Expression
		Consequent Statement
		Alternate  Statement
	}

	SwitchStatement struct {
		Base
		Discriminant Expression
		Body         []*CaseClause
		// index into Body of the default clause, or -1
		Default int
	}

	CaseClause struct {
		Base
		Test       Expression // nil for default
		Consequent []Statement
	}

	ForStatement struct {
		Base
		// nil, *VariableStatement or Expression
		Initializer Node
		Test        Expression
		Update      Expression
		Body        Statement

		// names declared by a let head
		VarDecls []*Identifier `js:"ref"`
	}

	ForInStatement struct {
		Base
		Each bool
		// *VariableStatement with a single declaration, or an assignment
		// target expression
		Into   Node
		Source Expression
		Body   Statement

		VarDecls []*Identifier `js:"ref"`
	}

	WhileStatement struct {
		Base
		Test Expression
		Body Statement
	}

	DoWhileStatement struct {
		Base
		Test Expression
		Body Statement
	}

	// BranchStatement is break or continue.
	BranchStatement struct {
		Base
		Token token.Token
		Label *Identifier

		// the loop, switch or labelled statement this jumps out of
		Target Node `js:"ref"`
	}

	TryStatement struct {
		Base
		Body    *BlockStatement
		Catches []*CatchClause
		Finally *BlockStatement
	}

	CatchClause struct {
		Base
		Parameter Expression // Identifier or destructuring pattern
		Guard     Expression
		Body      *BlockStatement
	}

	ThrowStatement struct {
		Base
		Argument Expression
	}

	ReturnStatement struct {
		Base
		Argument Expression
	}

	WithStatement struct {
		Base
		Object Expression
		Body   Statement
	}

	// VariableStatement is a var, let or const declaration list.
	VariableStatement struct {
		Base
		Token token.Token
		List  []*VariableDeclaration
	}

	VariableDeclaration struct {
		Base
		Target      Expression // Identifier or destructuring pattern
		Initializer Expression
	}

	DebuggerStatement struct {
		Base
	}

	LabelledStatement struct {
		Base
		Label     *Identifier
		Statement Statement
	}

	// LetStatement is a let block: let (x = 1) { ... }
	LetStatement struct {
		Base
		Variables *VariableStatement
		Body      *BlockStatement

		VarDecls []*Identifier `js:"ref"`
	}

	FunctionStatement struct {
		Base
		Function *FunctionLiteral
	}
)

// ====== expressions

type (
	FunctionLiteral struct {
		Base
		Name       *Identifier
		Parameters []Expression // Identifier or destructuring pattern

		// exactly one of Body and ExprBody is set; ExprBody for expression
		// closures: function (x) x * x
		Body     *Script
		ExprBody Expression

		Form FunctionForm `js:"ref"`
	}

	// LetExpression is let (x = 1) x + 1
	LetExpression struct {
		Base
		Variables  *VariableStatement
		Expression Expression

		VarDecls []*Identifier `js:"ref"`
	}

	AssignExpression struct {
		Base
		// ASSIGN, or the augmented operator of a compound assignment
		Operator token.Token
		Left     Expression
		Right    Expression
	}

	ConditionalExpression struct {
		Base
		Test       Expression
		Consequent Expression
		Alternate  Expression
	}

	BinaryExpression struct {
		Base
		Operator token.Token
		Left     Expression
		Right    Expression
	}

	UnaryExpression struct {
		Base
		Operator token.Token
		Operand  Expression
	}

	UpdateExpression struct {
		Base
		Operator token.Token // INCREMENT or DECREMENT
		Operand  Expression
		Postfix  bool
	}

	SequenceExpression struct {
		Base
		Sequence []Expression
	}

	NewExpression struct {
		Base
		Callee       Expression
		ArgumentList []Expression
		// distinguishes `new F()` from `new F`
		HasArguments bool
	}

	CallExpression struct {
		Base
		Callee       Expression
		ArgumentList []Expression
	}

	DotExpression struct {
		Base
		Left       Expression
		Identifier *Identifier
	}

	BracketExpression struct {
		Base
		Left   Expression
		Member Expression
	}

	ArrayLiteral struct {
		Base
		Value []Expression // nil entries are holes
	}

	ArrayComprehension struct {
		Base
		Expression Expression
		Tail       *ComprehensionTail
	}

	GeneratorExpression struct {
		Base
		Expression Expression
		Tail       *ComprehensionTail
	}

	ComprehensionTail struct {
		Base
		For   []*ComprehensionFor
		Guard Expression
	}

	ComprehensionFor struct {
		Base
		Each     bool
		Iterator Expression
		Source   Expression
	}

	ObjectLiteral struct {
		Base
		Value []*Property
	}

	Property struct {
		Base
		Kind PropertyKind
		Key  Expression // Identifier, StringLiteral or NumberLiteral
		// nil for the {x, y} shorthand
		Value Expression
	}

	Identifier struct {
		Base
		Name string
	}

	NumberLiteral struct {
		Base
		Value     float64
		IsInteger bool
		IsHex     bool
	}

	StringLiteral struct {
		Base
		Value string
	}

	RegExpLiteral struct {
		Base
		Pattern string
		Flags   string
	}

	NullLiteral struct {
		Base
	}

	BooleanLiteral struct {
		Base
		Value bool
	}

	ThisExpression struct {
		Base
	}

	YieldExpression struct {
		Base
		Argument Expression
	}
)

func (*BlockStatement) _statementNode()      {}
func (*EmptyStatement) _statementNode()      {}
func (*ExpressionStatement) _statementNode() {}
func (*IfStatement) _statementNode()         {}
func (*SwitchStatement) _statementNode()     {}
func (*ForStatement) _statementNode()        {}
func (*ForInStatement) _statementNode()      {}
func (*WhileStatement) _statementNode()      {}
func (*DoWhileStatement) _statementNode()    {}
func (*BranchStatement) _statementNode()     {}
func (*TryStatement) _statementNode()        {}
func (*ThrowStatement) _statementNode()      {}
func (*ReturnStatement) _statementNode()     {}
func (*WithStatement) _statementNode()       {}
func (*VariableStatement) _statementNode()   {}
func (*DebuggerStatement) _statementNode()   {}
func (*LabelledStatement) _statementNode()   {}
func (*LetStatement) _statementNode()        {}
func (*FunctionStatement) _statementNode()   {}

func (*FunctionLiteral) _expressionNode()       {}
func (*LetExpression) _expressionNode()         {}
func (*AssignExpression) _expressionNode()      {}
func (*ConditionalExpression) _expressionNode() {}
func (*BinaryExpression) _expressionNode()      {}
func (*UnaryExpression) _expressionNode()       {}
func (*UpdateExpression) _expressionNode()      {}
func (*SequenceExpression) _expressionNode()    {}
func (*NewExpression) _expressionNode()         {}
func (*CallExpression) _expressionNode()        {}
func (*DotExpression) _expressionNode()         {}
func (*BracketExpression) _expressionNode()     {}
func (*ArrayLiteral) _expressionNode()          {}
func (*ArrayComprehension) _expressionNode()    {}
func (*GeneratorExpression) _expressionNode()   {}
func (*ObjectLiteral) _expressionNode()         {}
func (*Identifier) _expressionNode()            {}
func (*NumberLiteral) _expressionNode()         {}
func (*StringLiteral) _expressionNode()         {}
func (*RegExpLiteral) _expressionNode()         {}
func (*NullLiteral) _expressionNode()           {}
func (*BooleanLiteral) _expressionNode()        {}
func (*ThisExpression) _expressionNode()        {}
func (*YieldExpression) _expressionNode()       {}
