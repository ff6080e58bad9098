package serializer

import (
	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

// binding strength, loosest first
const (
	precSequence = iota
	precAssign
	precConditional
	// the ten binary operator levels follow, || first
	precLogicalOr
	precUnary = precLogicalOr + 10
)

const (
	precUpdate = precUnary + 1 + iota
	// new without an argument list
	precNew
	precCall
	precMember
	precPrimary
)

func binaryPrecedence(op token.Token) int {
	switch op {
	case token.LOGICAL_OR:
		return precLogicalOr
	case token.LOGICAL_AND:
		return precLogicalOr + 1
	case token.OR:
		return precLogicalOr + 2
	case token.EXCLUSIVE_OR:
		return precLogicalOr + 3
	case token.AND:
		return precLogicalOr + 4
	case token.EQUAL, token.NOT_EQUAL, token.STRICT_EQUAL, token.STRICT_NOT_EQUAL:
		return precLogicalOr + 5
	case token.LESS, token.LESS_OR_EQUAL, token.GREATER_OR_EQUAL, token.GREATER, token.INSTANCEOF, token.IN:
		return precLogicalOr + 6
	case token.SHIFT_LEFT, token.SHIFT_RIGHT, token.UNSIGNED_SHIFT_RIGHT:
		return precLogicalOr + 7
	case token.PLUS, token.MINUS:
		return precLogicalOr + 8
	case token.MULTIPLY, token.SLASH, token.REMAINDER:
		return precLogicalOr + 9
	}
	panic("bug: not a binary operator: " + op.String())
}

func precedence(n ast.Expression) int {
	switch n := n.(type) {
	case *ast.SequenceExpression:
		return precSequence
	case *ast.AssignExpression, *ast.YieldExpression, *ast.LetExpression:
		return precAssign
	case *ast.FunctionLiteral:
		// an expression closure's body extends as far as it can
		if n.ExprBody != nil {
			return precAssign
		}
	case *ast.ConditionalExpression:
		return precConditional
	case *ast.BinaryExpression:
		return binaryPrecedence(n.Operator)
	case *ast.UnaryExpression:
		return precUnary
	case *ast.UpdateExpression:
		return precUpdate
	case *ast.NewExpression:
		if !n.HasArguments {
			return precNew
		}
		return precMember
	case *ast.CallExpression:
		return precCall
	case *ast.DotExpression, *ast.BracketExpression:
		return precMember
	}
	return precPrimary
}

// startsAmbiguously reports whether an expression statement would begin
// with 'function' or '{' and so be read as a declaration or a block.
func startsAmbiguously(e ast.Expression) bool {
	for !e.Span().Parenthesized {
		switch n := e.(type) {
		case *ast.FunctionLiteral, *ast.ObjectLiteral:
			return true
		case *ast.AssignExpression:
			e = n.Left
		case *ast.ConditionalExpression:
			e = n.Test
		case *ast.BinaryExpression:
			e = n.Left
		case *ast.UpdateExpression:
			if !n.Postfix {
				return false
			}
			e = n.Operand
		case *ast.SequenceExpression:
			if len(n.Sequence) == 0 {
				return false
			}
			e = n.Sequence[0]
		case *ast.CallExpression:
			e = n.Callee
		case *ast.DotExpression:
			e = n.Left
		case *ast.BracketExpression:
			e = n.Left
		default:
			return false
		}
	}
	return false
}

// hasCallInChain reports whether the member chain under a new callee
// contains a call, as in new (f().g)(). Without parentheses the call's
// argument list would be taken by new.
func hasCallInChain(callee ast.Expression) bool {
	e := callee
	for !e.Span().Parenthesized {
		switch n := e.(type) {
		case *ast.DotExpression:
			e = n.Left
		case *ast.BracketExpression:
			e = n.Left
		case *ast.CallExpression:
			// the callee itself is parenthesized by precedence
			return e != callee
		default:
			return false
		}
	}
	return false
}
