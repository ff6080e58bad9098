package token

import "fmt"

type trieNode struct {
	next map[byte]*trieNode
	tkn  Token
}

var operators = &trieNode{}

func init() {
	for tkn := SEMICOLON; tkn <= RIGHT_PARENTHESIS; tkn++ {
		// '.' is handled by the lexer, since it may start a number
		if tkn == PERIOD {
			continue
		}

		node := operators
		text := token2string[tkn]
		for i := 0; i < len(text); i++ {
			child, ok := node.next[text[i]]
			if !ok {
				child = &trieNode{}
				if node.next == nil {
					node.next = make(map[byte]*trieNode)
				}
				node.next[text[i]] = child
			}
			node = child
		}
		node.tkn = tkn
	}

	// The lexer never backtracks, so every prefix of an operator must be an
	// operator itself.
	var check func(node *trieNode, prefix string)
	check = func(node *trieNode, prefix string) {
		if prefix != "" && node.tkn == 0 {
			panic(fmt.Sprintf("bug: operator prefix %q is not an operator", prefix))
		}
		for ch, child := range node.next {
			check(child, prefix+string(ch))
		}
	}
	check(operators, "")
}

// IsOperatorStart reports whether ch begins some punctuator.
func IsOperatorStart(ch byte) bool {
	_, ok := operators.next[ch]
	return ok
}

// MatchOperator returns the longest punctuator at the start of src, with
// its length in bytes. It returns (0, 0) if src does not start with one.
func MatchOperator(src string) (Token, int) {
	node := operators
	length := 0
	for length < len(src) {
		child, ok := node.next[src[length]]
		if !ok {
			break
		}
		node = child
		length++
	}
	return node.tkn, length
}
