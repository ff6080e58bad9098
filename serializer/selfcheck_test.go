package serializer

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/parser"
)

func firstStatement(t *testing.T, src string) ast.Statement {
	t.Helper()
	script, err := parser.Parse(src, "<test>", 1)
	if err != nil {
		t.Fatal(err)
	}
	return script.Body[0]
}

func messages(err error) []string {
	var msgs []string
	for _, e := range multierr.Errors(err) {
		var perr *ProgrammerError
		if errors.As(e, &perr) {
			msgs = append(msgs, perr.Message)
		}
	}
	return msgs
}

func TestSelfCheckSkippedField(t *testing.T) {
	stmt := firstStatement(t, `if (a) b(); else c();`)

	// a handler that forgot about the else branch
	s := &serializer{}
	s.visit(stmt, "", func(n ast.Node, ind string) string {
		ifStmt := n.(*ast.IfStatement)
		s.check("Test", "Consequent")
		return "if (" + s.o(ifStmt.Test, ind) + ")" + s.body(ifStmt.Consequent, ind)
	})

	got := strings.Join(messages(s.errs), "; ")
	for _, want := range []string{"field Alternate unchecked", "2 children out of 3 serialized"} {
		if !strings.Contains(got, want) {
			t.Errorf("errors %q don't mention %q", got, want)
		}
	}
}

func TestSelfCheckUnknownField(t *testing.T) {
	stmt := firstStatement(t, `x;`)

	s := &serializer{}
	s.visit(stmt, "", func(n ast.Node, ind string) string {
		s.check("Expression", "Label")
		return s.o(n.(*ast.ExpressionStatement).Expression, ind)
	})

	msgs := messages(s.errs)
	if len(msgs) != 1 || msgs[0] != "field Label checked unnecessarily" {
		t.Errorf("got %q", msgs)
	}
}

func TestSelfCheckCleanOnParserOutput(t *testing.T) {
	src := `
		var a = 1, b = [a, , {k: a, get g() { return 1; }}];
		function f(x, y) { return x ? y : -x; }
		for (var i in b) { if (i) continue; else break; }
		for (var j = 0; j < 2; j++) l: while (false) break l;
		do { a++; } while (a < 3);
		switch (a) { case 1: case 2: f(); default: }
		try { throw new Error(); } catch (e if e) {} catch (e) {} finally {}
		with (b) { a = typeof a; }
		let (z = 2) { a = z; }
		a = let (z = 2) z;
		b = [z for each (z in b) if (z)];
		a = function () a;
		debugger;
		;
	`
	script, err := parser.Parse(src, "<test>", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Serialize(script); err != nil {
		t.Fatalf("self-check failed: %v", err)
	}
}

func TestQuote(t *testing.T) {
	cases := map[string]string{
		"":         `""`,
		`a"b`:      `"a\"b"`,
		"\\":       `"\\"`,
		"\n\r\t":   `"\n\r\t"`,
		"\x00\x1b": `"\x00\x1b"`,
		"\u2028":   `"\u2028"`,
		"héllo":    `"héllo"`,
	}
	for in, want := range cases {
		if got := Quote(in); got != want {
			t.Errorf("Quote(%q) = %s, want %s", in, got, want)
		}
	}
}
