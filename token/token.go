// Package token defines the token kinds produced by the lexer, together with
// the punctuator trie and keyword table used to classify source text.
package token

import (
	"fmt"
	"strings"
)

type Token int

const (
	_ Token = iota

	END
	NEWLINE // only ever reported by PeekOnSameLine

	SEMICOLON
	COMMA
	ASSIGN
	QUESTION_MARK
	COLON
	LOGICAL_OR
	LOGICAL_AND
	OR
	EXCLUSIVE_OR
	AND
	EQUAL
	NOT_EQUAL
	STRICT_EQUAL
	STRICT_NOT_EQUAL
	LESS
	LESS_OR_EQUAL
	GREATER_OR_EQUAL
	GREATER
	SHIFT_LEFT
	SHIFT_RIGHT
	UNSIGNED_SHIFT_RIGHT
	PLUS
	MINUS
	MULTIPLY
	SLASH
	REMAINDER
	NOT
	BITWISE_NOT
	INCREMENT
	DECREMENT
	PERIOD
	LEFT_BRACKET
	RIGHT_BRACKET
	LEFT_BRACE
	RIGHT_BRACE
	LEFT_PARENTHESIS
	RIGHT_PARENTHESIS

	IDENTIFIER
	NUMBER
	STRING
	REGEXP

	firstKeyword
	BREAK
	CASE
	CATCH
	CONST
	CONTINUE
	DEBUGGER
	DEFAULT
	DELETE
	DO
	ELSE
	ENUM
	FALSE
	FINALLY
	FOR
	FUNCTION
	IF
	IN
	INSTANCEOF
	LET
	NEW
	NULL
	RETURN
	SWITCH
	THIS
	THROW
	TRUE
	TRY
	TYPEOF
	VAR
	VOID
	YIELD
	WHILE
	WITH
	lastKeyword
)

var token2string = [...]string{
	END:                  "END",
	NEWLINE:              "NEWLINE",
	SEMICOLON:            ";",
	COMMA:                ",",
	ASSIGN:               "=",
	QUESTION_MARK:        "?",
	COLON:                ":",
	LOGICAL_OR:           "||",
	LOGICAL_AND:          "&&",
	OR:                   "|",
	EXCLUSIVE_OR:         "^",
	AND:                  "&",
	EQUAL:                "==",
	NOT_EQUAL:            "!=",
	STRICT_EQUAL:         "===",
	STRICT_NOT_EQUAL:     "!==",
	LESS:                 "<",
	LESS_OR_EQUAL:        "<=",
	GREATER_OR_EQUAL:     ">=",
	GREATER:              ">",
	SHIFT_LEFT:           "<<",
	SHIFT_RIGHT:          ">>",
	UNSIGNED_SHIFT_RIGHT: ">>>",
	PLUS:                 "+",
	MINUS:                "-",
	MULTIPLY:             "*",
	SLASH:                "/",
	REMAINDER:            "%",
	NOT:                  "!",
	BITWISE_NOT:          "~",
	INCREMENT:            "++",
	DECREMENT:            "--",
	PERIOD:               ".",
	LEFT_BRACKET:         "[",
	RIGHT_BRACKET:        "]",
	LEFT_BRACE:           "{",
	RIGHT_BRACE:          "}",
	LEFT_PARENTHESIS:     "(",
	RIGHT_PARENTHESIS:    ")",
	IDENTIFIER:           "IDENTIFIER",
	NUMBER:               "NUMBER",
	STRING:               "STRING",
	REGEXP:               "REGEXP",
	BREAK:                "break",
	CASE:                 "case",
	CATCH:                "catch",
	CONST:                "const",
	CONTINUE:             "continue",
	DEBUGGER:             "debugger",
	DEFAULT:              "default",
	DELETE:               "delete",
	DO:                   "do",
	ELSE:                 "else",
	ENUM:                 "enum",
	FALSE:                "false",
	FINALLY:              "finally",
	FOR:                  "for",
	FUNCTION:             "function",
	IF:                   "if",
	IN:                   "in",
	INSTANCEOF:           "instanceof",
	LET:                  "let",
	NEW:                  "new",
	NULL:                 "null",
	RETURN:               "return",
	SWITCH:               "switch",
	THIS:                 "this",
	THROW:                "throw",
	TRUE:                 "true",
	TRY:                  "try",
	TYPEOF:               "typeof",
	VAR:                  "var",
	VOID:                 "void",
	YIELD:                "yield",
	WHILE:                "while",
	WITH:                 "with",
}

// String returns the source text of punctuators and keywords, and the
// upper-case kind name for everything else.
func (tkn Token) String() string {
	if tkn > 0 && int(tkn) < len(token2string) && token2string[tkn] != "" {
		return token2string[tkn]
	}
	return fmt.Sprintf("token(%d)", int(tkn))
}

// Name is the spelling used in "Missing ..." diagnostics.
func (tkn Token) Name() string {
	return strings.ToLower(tkn.String())
}

func (tkn Token) IsKeyword() bool {
	return tkn > firstKeyword && tkn < lastKeyword
}

var keywordTable = map[string]Token{}

func init() {
	for tkn := firstKeyword + 1; tkn < lastKeyword; tkn++ {
		keywordTable[token2string[tkn]] = tkn
	}
}

// Keyword returns the keyword token spelled by literal, or IDENTIFIER.
func Keyword(literal string) Token {
	if tkn, ok := keywordTable[literal]; ok {
		return tkn
	}
	return IDENTIFIER
}

var assignOps = map[Token]bool{
	OR:                   true,
	EXCLUSIVE_OR:         true,
	AND:                  true,
	SHIFT_LEFT:           true,
	SHIFT_RIGHT:          true,
	UNSIGNED_SHIFT_RIGHT: true,
	PLUS:                 true,
	MINUS:                true,
	MULTIPLY:             true,
	SLASH:                true,
	REMAINDER:            true,
}

// IsAssignOp reports whether an operator may be followed by '=' to form a
// compound assignment.
func IsAssignOp(tkn Token) bool {
	return assignOps[tkn]
}

var statementStart = map[Token]bool{
	BREAK:    true,
	CONST:    true,
	CONTINUE: true,
	DEBUGGER: true,
	DO:       true,
	FOR:      true,
	IF:       true,
	RETURN:   true,
	SWITCH:   true,
	THROW:    true,
	TRY:      true,
	VAR:      true,
	YIELD:    true,
	WHILE:    true,
	WITH:     true,
}

// IsStatementStart reports whether tkn can only begin a statement.
func IsStatementStart(tkn Token) bool {
	return statementStart[tkn]
}
