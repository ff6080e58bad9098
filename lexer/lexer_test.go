package lexer

import (
	"errors"
	"testing"

	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

// lexAll scans every token of src, always in operator position.
func lexAll(t *testing.T, src string) (toks []Token) {
	t.Helper()
	tz := New(src, "<test>", 1)
	for {
		kind := tz.Next(false)
		toks = append(toks, *tz.Token())
		if kind == token.END {
			return
		}
	}
}

func catchSyntaxError(action func()) (serr *SyntaxError) {
	defer func() {
		if r := recover(); r != nil {
			err, isErr := r.(error)
			if !isErr || !errors.As(err, &serr) {
				panic(r)
			}
		}
	}()
	action()
	return nil
}

func TestUngetIsInverseOfNext(t *testing.T) {
	tz := New("a + b * c", "<test>", 1)

	if tz.Next(true) != token.IDENTIFIER {
		t.Fatalf("expected identifier")
	}
	first := *tz.Token()

	tz.Next(false)
	tz.Next(true)
	tz.Unget()
	tz.Unget()

	if got := *tz.Token(); got != first {
		t.Fatalf("after two ungets, current token is %+v; want %+v", got, first)
	}
	if tz.Next(false) != token.PLUS {
		t.Fatalf("expected + after unget")
	}
	if tz.Next(true) != token.IDENTIFIER || tz.Token().Value != "b" {
		t.Fatalf("expected b after unget")
	}
}

func TestTooMuchLookahead(t *testing.T) {
	tz := New("a b c d e", "<test>", 1)
	for i := 0; i < 4; i++ {
		tz.Next(true)
	}
	tz.Unget()
	tz.Unget()
	tz.Unget()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("4th unget did not panic")
		}
		if msg, ok := r.(string); !ok || msg != "bug: too much lookahead" {
			t.Fatalf("unexpected panic value: %#v", r)
		}
	}()
	tz.Unget()
}

func TestRegexpVersusDivision(t *testing.T) {
	tz := New("a / b / g", "<test>", 1)
	tz.Next(true)
	if kind := tz.Next(false); kind != token.SLASH {
		t.Fatalf("in operator position, '/' lexed as %v", kind)
	}

	tz = New("/ b /g", "<test>", 1)
	if kind := tz.Next(true); kind != token.REGEXP {
		t.Fatalf("in operand position, '/' lexed as %v", kind)
	}
	tok := tz.Token()
	if tok.Pattern != " b " || tok.Flags != "g" {
		t.Fatalf("got pattern %q flags %q", tok.Pattern, tok.Flags)
	}

	tz = New(`/[/\]]+\//im.x`, "<test>", 1)
	if kind := tz.Next(true); kind != token.REGEXP {
		t.Fatalf("got %v", kind)
	}
	if tok := tz.Token(); tok.Pattern != `[/\]]+\/` || tok.Flags != "im" {
		t.Fatalf("got pattern %q flags %q", tok.Pattern, tok.Flags)
	}
	if tz.Next(false) != token.PERIOD {
		t.Fatalf("flags must stop at the first non-letter")
	}
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		src       string
		value     float64
		isInteger bool
		isHex     bool
	}{
		{"0", 0, true, false},
		{"42", 42, true, false},
		{"0x1F", 31, true, true},
		{"0XfF", 255, true, true},
		{"017", 15, true, false},
		{"09", 9, true, false},
		{"3.25", 3.25, false, false},
		{".5", 0.5, false, false},
		{"0.5", 0.5, false, false},
		{"1e3", 1000, false, false},
		{"2E-2", 0.02, false, false},
		{"0e1", 0, false, false},
		{"1.", 1, false, false},
	}

	for _, tc := range cases {
		toks := lexAll(t, tc.src)
		if len(toks) != 2 {
			t.Errorf("%s: lexed %d tokens, want 2", tc.src, len(toks))
			continue
		}
		tok := toks[0]
		if tok.Kind != token.NUMBER {
			t.Errorf("%s: kind %v", tc.src, tok.Kind)
		}
		if tok.Number != tc.value || tok.IsInteger != tc.isInteger || tok.IsHex != tc.isHex {
			t.Errorf("%s: got (%v, int=%v, hex=%v); want (%v, int=%v, hex=%v)",
				tc.src, tok.Number, tok.IsInteger, tok.IsHex, tc.value, tc.isInteger, tc.isHex)
		}
		if tok.Literal != tc.src {
			t.Errorf("%s: literal %q", tc.src, tok.Literal)
		}
	}
}

func TestStrings(t *testing.T) {
	cases := []struct{ src, value string }{
		{`"abc"`, "abc"},
		{`'a"b'`, `a"b`},
		{`"a\'b\"c"`, `a'b"c`},
		{`"\n\t\r\b\f\v"`, "\n\t\r\b\f\v"},
		{`"\x41B"`, "AB"},
		{`"\0"`, "\x00"},
		{`"\101"`, "A"},
		{`"😀"`, "\U0001F600"},
		{`"\q\\"`, `q\`},
		{"\"a\\\nb\"", "ab"},
		{`"héllo"`, "héllo"},
	}

	for _, tc := range cases {
		toks := lexAll(t, tc.src)
		if toks[0].Kind != token.STRING {
			t.Errorf("%s: kind %v", tc.src, toks[0].Kind)
			continue
		}
		if toks[0].Value != tc.value {
			t.Errorf("%s: value %q, want %q", tc.src, toks[0].Value, tc.value)
		}
	}
}

func TestOperatorsAndAssignOps(t *testing.T) {
	toks := lexAll(t, "a >>>= b <<= c !== d += e == f")
	want := []struct {
		kind     token.Token
		assignOp token.Token
	}{
		{token.IDENTIFIER, 0},
		{token.ASSIGN, token.UNSIGNED_SHIFT_RIGHT},
		{token.IDENTIFIER, 0},
		{token.ASSIGN, token.SHIFT_LEFT},
		{token.IDENTIFIER, 0},
		{token.STRICT_NOT_EQUAL, 0},
		{token.IDENTIFIER, 0},
		{token.ASSIGN, token.PLUS},
		{token.IDENTIFIER, 0},
		{token.EQUAL, 0},
		{token.IDENTIFIER, 0},
		{token.END, 0},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].AssignOp != w.assignOp {
			t.Errorf("token %d: got (%v, %v), want (%v, %v)", i, toks[i].Kind, toks[i].AssignOp, w.kind, w.assignOp)
		}
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := lexAll(t, "function $x _y z9 ünï")
	kinds := []token.Token{token.FUNCTION, token.IDENTIFIER, token.IDENTIFIER, token.IDENTIFIER, token.IDENTIFIER, token.END}
	for i, kind := range kinds {
		if toks[i].Kind != kind {
			t.Errorf("token %d: %v, want %v", i, toks[i].Kind, kind)
		}
	}
	if toks[4].Value != "ünï" {
		t.Errorf("got %q", toks[4].Value)
	}
}

func TestLineCounting(t *testing.T) {
	src := "a /* one\ntwo */ b // three\n c\n\n 'x\\\ny' d"
	toks := lexAll(t, src)
	lines := []int{1, 2, 3, 5, 6}
	for i, line := range lines {
		if toks[i].Line != line {
			t.Errorf("token %d (%q): line %d, want %d", i, toks[i].Literal, toks[i].Line, line)
		}
	}
	if toks[3].EndLine != 6 {
		t.Errorf("string with line continuation ends on line %d", toks[3].EndLine)
	}
}

func TestStartingLine(t *testing.T) {
	tz := New("\nx", "page.html", 10)
	tz.Next(true)
	if tz.Token().Line != 11 {
		t.Fatalf("got line %d", tz.Token().Line)
	}
}

func TestPeekOnSameLine(t *testing.T) {
	tz := New("return\nx; return y", "<test>", 1)
	tz.Next(true)
	if kind := tz.PeekOnSameLine(true); kind != token.NEWLINE {
		t.Fatalf("got %v", kind)
	}
	if kind := tz.Peek(true); kind != token.IDENTIFIER {
		t.Fatalf("got %v", kind)
	}
	tz.Next(true)
	tz.Next(false)
	tz.Next(true)
	if kind := tz.PeekOnSameLine(true); kind != token.IDENTIFIER {
		t.Fatalf("got %v", kind)
	}
}

func TestMatch(t *testing.T) {
	tz := New("( x", "<test>", 1)
	if tz.Match(token.LEFT_BRACE) {
		t.Fatalf("matched the wrong token")
	}
	if !tz.Match(token.LEFT_PARENTHESIS) {
		t.Fatalf("did not match (")
	}
	serr := catchSyntaxError(func() { tz.MustMatch(token.RIGHT_PARENTHESIS) })
	if serr == nil || serr.Message != "Missing )" {
		t.Fatalf("got %v", serr)
	}
	if serr.Start != 2 || serr.Line != 1 || serr.Column != 3 {
		t.Fatalf("error at start=%d line=%d column=%d", serr.Start, serr.Line, serr.Column)
	}
}

func TestLexicalErrors(t *testing.T) {
	cases := []struct {
		src, msg string
		operand  bool
	}{
		{`"abc`, "Unterminated string literal", false},
		{"'ab\ncd'", "Unterminated string literal", false},
		{"/* abc", "Unterminated comment", false},
		{"/abc", "Unterminated regex", true},
		{"/[abc/", "Unterminated character class", true},
		{"1e+", "Missing exponent", false},
		{"0x", "Missing hexadecimal digits", false},
		{"#", "Illegal token", false},
		{`"\xZZ"`, "Malformed hexadecimal escape sequence", false},
	}

	for _, tc := range cases {
		tz := New(tc.src, "bad.js", 1)
		serr := catchSyntaxError(func() { tz.Next(tc.operand) })
		if serr == nil {
			t.Errorf("%q: no error", tc.src)
			continue
		}
		if serr.Message != tc.msg {
			t.Errorf("%q: message %q, want %q", tc.src, serr.Message, tc.msg)
		}
		if serr.Filename != "bad.js" || serr.Source != tc.src {
			t.Errorf("%q: error lacks context: %+v", tc.src, serr)
		}
	}
}

func TestDone(t *testing.T) {
	tz := New("  // nothing\n", "<test>", 1)
	if !tz.Done() {
		t.Fatalf("blank source must be done")
	}
}
