package serializer_test

import (
	"errors"
	"testing"

	ottoparser "github.com/robertkrimen/otto/parser"

	"com.github.sebastianobarrera.modeledjs/treejs"
	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/parser"
	"com.github.sebastianobarrera.modeledjs/treejs/serializer"
	tsparser "com.github.sebastianobarrera.modeledjs/treejs/ts-parser"
)

func serialize(t *testing.T, src string) string {
	t.Helper()
	script, err := parser.Parse(src, "<test>", 1)
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	out, err := serializer.Serialize(script)
	if err != nil {
		t.Fatalf("serializing %q: %v", src, err)
	}
	return out
}

func TestSerializeOutput(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`x=1+2*3`, "x = 1 + 2 * 3;\n"},
		{`(1+2)*3`, "(1 + 2) * 3;\n"},
		{`a=0x1F`, "a = 0x1f;\n"},
		{`s = 'it\'s'`, "s = \"it's\";\n"},
		{`var a = [1,,3,,]`, "var a = [1, , 3, ,];\n"},
		{`- -x`, "- -x;\n"},
		{`-(-x)`, "-(-x);\n"},
		{`(function(){})()`, "(function () {})();\n"},
		{`var f = function g(x) { return x }`, "var f = function g(x) {\n  return x;\n};\n"},
		{`for (;;) break`, "for (;;)\n  break;\n"},
		{`if (a) b(); else c()`, "if (a)\n  b();\nelse\n  c();\n"},
		{`if (a) { b() } else { c() }`, "if (a) {\n  b();\n} else {\n  c();\n}\n"},
		{`function f(a, b) { return a + b }`, "function f(a, b) {\n  return a + b;\n}\n"},
		{`a = {get x() { return 1 }, y: 2}`, "a = {get x() {\n  return 1;\n}, y: 2};\n"},
		{`new (f().g)()`, "new (f().g)();\n"},
		{`typeof void 0`, "typeof void 0;\n"},
		{`a.b[c](d, e)`, "a.b[c](d, e);\n"},
		{`x = a ? b : c, d`, "x = a ? b : c, d;\n"},
		{`l: while (1) continue l`, "l:\nwhile (1)\n  continue l;\n"},
		{`switch (x) { case 1: a(); break; default: b() }`, "switch (x) {\ncase 1:\n  a();\n  break;\ndefault:\n  b();\n}\n"},
		{`try { a() } catch (e) { b() } finally { c() }`, "try {\n  a();\n} catch (e) {\n  b();\n} finally {\n  c();\n}\n"},
		{`let (x = 1) x + 1`, "let (x = 1) x + 1;\n"},
		{`var sq = function (x) x * x`, "var sq = function (x) x * x;\n"},
	}

	for _, tc := range cases {
		if got := serialize(t, tc.src); got != tc.want {
			t.Errorf("Serialize(%q) = %q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestSerializeExpression(t *testing.T) {
	script, err := parser.Parse(`a = "x\ny" + 1.5`, "<test>", 1)
	if err != nil {
		t.Fatal(err)
	}
	expr := script.Body[0].(*ast.ExpressionStatement).Expression
	out, err := serializer.Serialize(expr)
	if err != nil {
		t.Fatal(err)
	}
	if want := `a = "x\ny" + 1.5`; out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

type roundTripCase struct {
	name string
	src  string
	want string
	// only Mozilla extensions: skip the otto and tree-sitter checks
	extension bool
}

var roundTripCases = []roundTripCase{
	{name: "precedence", src: `var x = 1 + 2 * 3; (x - 1) * 2`, want: "12"},
	{name: "holes", src: `var a = [1, , 3]; a.length`, want: "3"},
	{name: "object keys", src: `var o = {a: 1, "b c": 2, 3: 4}; o.a + o["b c"] + o[3]`, want: "7"},
	{name: "recursion", src: `function f(n) { if (n <= 1) return 1; else return n * f(n - 1); } f(5)`, want: "120"},
	{name: "for", src: `var s = ""; for (var i = 0; i < 3; i++) { s += i; } s`, want: "012"},
	{name: "for in", src: `var s = ""; var o = {x: 1, y: 2}; for (var k in o) s += k; s`, want: "xy"},
	{name: "switch", src: `var r; switch (2) { case 1: r = "one"; break; case 2: r = "two"; break; default: r = "many"; } r`, want: "two"},
	{name: "try", src: `var r = ""; try { throw new Error("e"); } catch (e) { r = e.message; } finally { r += "!"; } r`, want: "e!"},
	{name: "labelled continue", src: `var n = 0; outer: for (var i = 0; i < 3; i++) { for (var j = 0; j < 3; j++) { if (j == 1) continue outer; n++; } } n`, want: "3"},
	{name: "escapes", src: `"a\"b\n\t\\".length`, want: "6"},
	{name: "hex", src: `0x1f + 1`, want: "32"},
	{name: "double minus", src: `var x = 1; - -x`, want: "1"},
	{name: "nested conditional", src: `var a = -1; a ? a > 0 ? "pos" : "neg" : "zero"`, want: "neg"},
	{name: "iife", src: `(function () { return 42; })()`, want: "42"},
	{name: "new", src: `function P(x) { this.x = x; } new P(3).x`, want: "3"},
	{name: "typeof", src: `typeof void 0`, want: "undefined"},
	{name: "do while", src: `var i = 0; do i++; while (i < 5); i`, want: "5"},
	{name: "regexp", src: `/a+b/g.test("xaab")`, want: "true"},
	{name: "bitwise", src: `var x = 5; x >>> 1 | 0`, want: "2"},
	{name: "object statement", src: `var r = ({a: 1}).a; r`, want: "1"},
	{name: "accessor", src: `var o = {get x() { return 7; }}; o.x`, want: "7"},
	{name: "sequence", src: `var a = (1, 2); a`, want: "2"},
	{name: "dangling else", src: `var r = "none"; if (true) { if (false) r = "inner"; } else r = "outer"; r`, want: "none"},
	{name: "let expression", src: `let (x = 2) x * 3`, want: "6", extension: true},
	{name: "expression closure", src: `var sq = function (x) x * x; sq(4)`, want: "16", extension: true},
	{name: "comprehension", src: `[i * 2 for (i in [1, 2])].join(",")`, want: "0,2", extension: true},
	{name: "guarded catch", src: `var r; try { throw 1; } catch (e if e === 2) { r = "two"; } catch (e) { r = "other"; } r`, want: "other", extension: true},
}

func evalToString(t *testing.T, src string) string {
	t.Helper()
	vm := treejs.NewVM()
	value, err := vm.RunString(src)
	if err != nil {
		t.Fatalf("evaluating %q: %v", src, err)
	}
	s, err := vm.ToString(value)
	if err != nil {
		t.Fatalf("converting result of %q: %v", src, err)
	}
	return string(s)
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range roundTripCases {
		t.Run(tc.name, func(t *testing.T) {
			out := serialize(t, tc.src)

			// a second pass must be a fixed point
			if again := serialize(t, out); again != out {
				t.Errorf("not a fixed point:\nfirst:\n%s\nsecond:\n%s", out, again)
			}

			if got := evalToString(t, tc.src); got != tc.want {
				t.Fatalf("original evaluates to %q, want %q", got, tc.want)
			}
			if got := evalToString(t, out); got != tc.want {
				t.Errorf("serialized evaluates to %q, want %q\n%s", got, tc.want, out)
			}
		})
	}
}

func TestOutputAcceptedByOtherParsers(t *testing.T) {
	for _, tc := range roundTripCases {
		if tc.extension {
			continue
		}
		t.Run(tc.name, func(t *testing.T) {
			out := serialize(t, tc.src)
			if _, err := ottoparser.ParseFile(nil, "<serialized>", out, 0); err != nil {
				t.Errorf("otto rejects output: %v\n%s", err, out)
			}
			if err := tsparser.ParseBytes("<serialized>", []byte(out)); err != nil {
				t.Errorf("tree-sitter rejects output: %v\n%s", err, out)
			}
		})
	}
}

type bogusNode struct {
	ast.Base
}

func TestUnknownNodeKind(t *testing.T) {
	_, err := serializer.Serialize(&bogusNode{})
	var unk *serializer.UnknownNodeKindError
	if !errors.As(err, &unk) {
		t.Fatalf("got %v, want *UnknownNodeKindError", err)
	}
	if _, ok := unk.Node.(*bogusNode); !ok {
		t.Errorf("error carries node %T", unk.Node)
	}
}
