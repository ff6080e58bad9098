package lexer

import "fmt"

// SyntaxError is raised for any lexical or grammatical violation. The parser
// never recovers from one: the first error aborts the parse.
type SyntaxError struct {
	Message  string
	Filename string
	Line     int
	Column   int

	// byte offsets into Source
	Start, End int

	Source string
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: SyntaxError: %s", err.Filename, err.Line, err.Column, err.Message)
}
