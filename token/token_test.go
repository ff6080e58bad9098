package token

import "testing"

func TestMatchOperator(t *testing.T) {
	cases := []struct {
		src    string
		tkn    Token
		length int
	}{
		{"+", PLUS, 1},
		{"++x", INCREMENT, 2},
		{">>>=", UNSIGNED_SHIFT_RIGHT, 3},
		{">>=", SHIFT_RIGHT, 2},
		{"!==", STRICT_NOT_EQUAL, 3},
		{"!=x", NOT_EQUAL, 2},
		{"===", STRICT_EQUAL, 3},
		{"&&", LOGICAL_AND, 2},
		{"a", 0, 0},
		{".", 0, 0},
	}

	for _, tc := range cases {
		tkn, length := MatchOperator(tc.src)
		if tkn != tc.tkn || length != tc.length {
			t.Errorf("MatchOperator(%q) = %v, %d; want %v, %d", tc.src, tkn, length, tc.tkn, tc.length)
		}
	}
}

func TestKeyword(t *testing.T) {
	if Keyword("instanceof") != INSTANCEOF {
		t.Errorf("instanceof not recognized")
	}
	if Keyword("each") != IDENTIFIER {
		t.Errorf("each must be a plain identifier")
	}
	if !Keyword("yield").IsKeyword() {
		t.Errorf("yield must be a keyword")
	}
	if PLUS.IsKeyword() {
		t.Errorf("+ is not a keyword")
	}
}

func TestGroupings(t *testing.T) {
	for _, tkn := range []Token{PLUS, UNSIGNED_SHIFT_RIGHT, REMAINDER} {
		if !IsAssignOp(tkn) {
			t.Errorf("%v should form a compound assignment", tkn)
		}
	}
	if IsAssignOp(LOGICAL_AND) {
		t.Errorf("&& must not form a compound assignment")
	}
	if !IsStatementStart(WHILE) || IsStatementStart(FUNCTION) {
		t.Errorf("unexpected statement starters")
	}
}

func TestName(t *testing.T) {
	if got := RIGHT_PARENTHESIS.Name(); got != ")" {
		t.Errorf("got %q", got)
	}
	if got := IDENTIFIER.Name(); got != "identifier" {
		t.Errorf("got %q", got)
	}
}
