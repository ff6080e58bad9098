package parser

import (
	"errors"
	"testing"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/lexer"
	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

func mustParse(t *testing.T, src string) *ast.Script {
	t.Helper()
	script, err := Parse(src, "<test>", 1)
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	return script
}

type collector struct{ nodes []ast.Node }

func (c *collector) Enter(n ast.Node) ast.Visitor {
	c.nodes = append(c.nodes, n)
	return c
}

func (c *collector) Exit(ast.Node) {}

// find returns every node of type T under root, in source order.
func find[T ast.Node](root ast.Node) []T {
	c := &collector{}
	ast.Walk(c, root)
	var found []T
	for _, n := range c.nodes {
		if n, ok := n.(T); ok {
			found = append(found, n)
		}
	}
	return found
}

func names(ids []*ast.Identifier) []string {
	var out []string
	for _, id := range ids {
		out = append(out, id.Name)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSyntaxErrors(t *testing.T) {
	cases := []struct{ src, msg string }{
		{"foo: foo: x;", "Duplicate label"},
		{"break;", "Invalid break"},
		{"continue;", "Invalid continue"},
		{"foo: { continue foo; }", "Invalid continue"},
		{"while (1) { break bar; }", "Invalid break"},
		{"try {} catch (e) {} catch (f if f) {}", "Guarded catch after unguarded"},
		{"try {}", "Invalid try statement"},
		{"catch (e) {}", "catch without preceding try"},
		{"function f() { yield 1; return 2; }", "Generator returns a value"},
		{"function f() { return 2; yield 1; }", "Generator returns a value"},
		{"f = function () yield 1;", "Generator returns a value"},
		{"1 = 2", "Bad left-hand side of assignment"},
		{"a + b = c", "Bad left-hand side of assignment"},
		{"a b", "Missing ; before statement"},
		{"a = 1 }", "Syntax error"},
		{"return 1", "Return not in function"},
		{"yield 1", "Yield not in function"},
		{"x = (1", "Missing )"},
		{"++1", "Invalid increment operand"},
		{"switch (x) { default: default: }", "More than one switch default"},
		{"switch (x) { foo; }", "Invalid switch case"},
		{"var 1", "missing variable name"},
		{"var x += 1", "Invalid variable initialization"},
		{"for each (var i = 0; i < 1; i++) {}", "Invalid for each..in loop"},
		{"for (var a, b in c) {}", "Invalid for..in left-hand side"},
		{"for (a + b in c) {}", "Invalid for..in left-hand side"},
		{"var [a.b] = c", "missing name in pattern"},
		{"x ? y", "missing : after ?"},
		{"({a b})", "missing : after property"},
		{"({+: 1})", "Invalid property name"},
		{"function () {}", "missing function identifier"},
		{"function f(1) {}", "missing formal parameter"},
		{"[x for (1 in y)]", "missing identifier"},
		{"try {} catch (1) {}", "missing identifier in catch"},
		{"f(x for (x in y), 1)", "Generator expression must be parenthesized"},
		{"a.;", "Missing identifier"},
		{"x = ;", "missing operand"},
		{"'abc", "Unterminated string literal"},
	}

	for _, tc := range cases {
		_, err := Parse(tc.src, "bad.js", 1)
		var serr *lexer.SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("%q: expected a syntax error, got %v", tc.src, err)
			continue
		}
		if serr.Message != tc.msg {
			t.Errorf("%q: got %q, want %q", tc.src, serr.Message, tc.msg)
		}
		if serr.Filename != "bad.js" {
			t.Errorf("%q: filename %q", tc.src, serr.Filename)
		}
	}
}

func TestValidPrograms(t *testing.T) {
	programs := []string{
		"",
		"// only a comment\n",
		"var a = 2, b = 3; function add(x,y){ return x + y; } var result = add(a,b);",
		"for (var i=0, sum=0; i<5; i++) sum += i;",
		"for (var k in o) {} for (k in o) ; for each (var v in o) print(v);",
		"for (let i = 0; i < 3; i++) {} for (let k in o) {}",
		"for (;;) break;",
		"do x++; while (x < 10) y()",
		"outer: for (;;) { inner: while (1) { if (a) break outer; continue inner; } }",
		"switch (x) { case 1: case 2: y(); break; default: z(); case 3: }",
		"try { a() } catch (e if e instanceof TypeError) { } catch (e) { } finally { }",
		"try { a() } catch ([a, b]) { }",
		"with (o) { x = 1 }",
		"var [a, {b: c, d}] = o; [x, y] = [y, x];",
		"const K = 1; let q = 2;",
		"let (x = 1, y = 2) { x + y; } let (x = 1) x * 2;",
		"f = function (x) x * x;",
		"o = { get x() { return 1; }, set x(v) {}, 'k': 2, 3: 4, if: 5, };",
		"a.if.class = new F; b = new a.b.C(1)(2);",
		"r = /[/]+/g.test(s) / 2;",
		"[x * 2 for each (x in xs) if (x)]; f(y for (y in ys));",
		"function g() { var t = yield; yield 1; return; }",
		"x = a ? b : c ? d : e; y = !a || b && ~c | d ^ e & f;",
		"x = typeof a === 'undefined' && void 0 == null;",
		"delete o.p, delete o[1];",
		"debugger;",
		"if (a) b(); else if (c) d(); else { e() }",
		"a\n++b",
		"x = (function () { return this; })();",
		"label: { break label; }",
		"foo: break foo;",
		"for (var i = 0 in o) ;",
		"for (x = ('a' in o); x;) break;",
	}

	for _, src := range programs {
		if _, err := Parse(src, "<test>", 1); err != nil {
			t.Errorf("%q: %v", src, err)
		}
	}
}

func TestHoisting(t *testing.T) {
	script := mustParse(t, `
		var a = 1;
		function f(x) {
			var b;
			function g() {}
			if (x) { var c; function h() {} }
		}
		let l = 2;
		{ let q = 1; var r; }
	`)

	if len(script.FunDecls) != 1 || script.FunDecls[0].Name.Name != "f" {
		t.Fatalf("top-level funDecls: %v", script.FunDecls)
	}
	if got := names(script.VarDecls); !equalStrings(got, []string{"a", "l", "r"}) {
		t.Fatalf("top-level varDecls: %v", got)
	}

	f := script.FunDecls[0]
	if got := names(f.Body.VarDecls); !equalStrings(got, []string{"b", "c"}) {
		t.Fatalf("varDecls of f: %v", got)
	}
	if len(f.Body.FunDecls) != 1 || f.Body.FunDecls[0].Name.Name != "g" {
		t.Fatalf("funDecls of f: %v", f.Body.FunDecls)
	}

	var forms []ast.FunctionForm
	for _, fn := range find[*ast.FunctionLiteral](script) {
		forms = append(forms, fn.Form)
	}
	want := []ast.FunctionForm{ast.FormDeclared, ast.FormDeclared, ast.FormStatement}
	if len(forms) != len(want) {
		t.Fatalf("got %d functions", len(forms))
	}
	for i := range want {
		if forms[i] != want[i] {
			t.Errorf("function %d: form %v, want %v", i, forms[i], want[i])
		}
	}

	block := script.Body[len(script.Body)-1].(*ast.BlockStatement)
	if got := names(block.VarDecls); !equalStrings(got, []string{"q"}) {
		t.Fatalf("block varDecls: %v", got)
	}
}

func TestDestructuringDecls(t *testing.T) {
	script := mustParse(t, "var [a, , {b: c, d}] = o;")
	if got := names(script.VarDecls); !equalStrings(got, []string{"a", "c", "d"}) {
		t.Fatalf("got %v", got)
	}
}

func TestLetHeads(t *testing.T) {
	script := mustParse(t, "for (let i = 0; i < 3; i++) {} for (let k in o) {}")
	loop := script.Body[0].(*ast.ForStatement)
	if got := names(loop.VarDecls); !equalStrings(got, []string{"i"}) {
		t.Fatalf("for varDecls: %v", got)
	}
	forIn := script.Body[1].(*ast.ForInStatement)
	if got := names(forIn.VarDecls); !equalStrings(got, []string{"k"}) {
		t.Fatalf("for-in varDecls: %v", got)
	}
	if len(script.VarDecls) != 0 {
		t.Fatalf("let in a loop head leaked: %v", names(script.VarDecls))
	}
}

func TestBranchTargets(t *testing.T) {
	script := mustParse(t, "outer: for (;;) { inner: while (1) { break outer; continue inner; break; } }")
	outer := script.Body[0].(*ast.LabelledStatement).Statement.(*ast.ForStatement)
	inner := find[*ast.WhileStatement](script)[0]

	branches := find[*ast.BranchStatement](script)
	if len(branches) != 3 {
		t.Fatalf("got %d branches", len(branches))
	}
	if branches[0].Target != ast.Node(outer) {
		t.Errorf("break outer targets %T", branches[0].Target)
	}
	if branches[1].Target != ast.Node(inner) || branches[1].Token != token.CONTINUE {
		t.Errorf("continue inner targets %T", branches[1].Target)
	}
	if branches[2].Target != ast.Node(inner) {
		t.Errorf("unlabelled break targets %T", branches[2].Target)
	}

	script = mustParse(t, "foo: break foo;")
	brk := script.Body[0].(*ast.LabelledStatement).Statement.(*ast.BranchStatement)
	if brk.Target != ast.Node(brk) {
		t.Errorf("foo: break foo must target itself")
	}

	script = mustParse(t, "switch (1) { case 1: break; }")
	sw := script.Body[0].(*ast.SwitchStatement)
	if find[*ast.BranchStatement](script)[0].Target != ast.Node(sw) {
		t.Errorf("break in switch must target the switch")
	}
}

func TestAutomaticSemicolons(t *testing.T) {
	script := mustParse(t, "a\nb\n++c")
	if len(script.Body) != 3 {
		t.Fatalf("got %d statements", len(script.Body))
	}
	update := script.Body[2].(*ast.ExpressionStatement).Expression.(*ast.UpdateExpression)
	if update.Postfix {
		t.Fatalf("++ after a newline must be a prefix increment")
	}

	script = mustParse(t, "function f() { return\n1 }")
	body := script.FunDecls[0].Body
	if len(body.Body) != 2 || body.Body[0].(*ast.ReturnStatement).Argument != nil {
		t.Fatalf("return followed by a newline must not take an argument")
	}
	if !body.HasEmptyReturn || body.HasReturnWithValue {
		t.Fatalf("return flags: empty=%v value=%v", body.HasEmptyReturn, body.HasReturnWithValue)
	}
}

func TestExpressionShapes(t *testing.T) {
	script := mustParse(t, "x = 1 + 2 * 3 - 4; y += a.b[c](d); z = new a.b.C(1)(2);")

	assign := script.Body[0].(*ast.ExpressionStatement).Expression.(*ast.AssignExpression)
	minus := assign.Right.(*ast.BinaryExpression)
	if minus.Operator != token.MINUS {
		t.Fatalf("top operator %v", minus.Operator)
	}
	plus := minus.Left.(*ast.BinaryExpression)
	if plus.Operator != token.PLUS || plus.Right.(*ast.BinaryExpression).Operator != token.MULTIPLY {
		t.Fatalf("precedence is wrong")
	}

	compound := script.Body[1].(*ast.ExpressionStatement).Expression.(*ast.AssignExpression)
	if compound.Operator != token.PLUS {
		t.Fatalf("compound operator %v", compound.Operator)
	}
	call := compound.Right.(*ast.CallExpression)
	if _, ok := call.Callee.(*ast.BracketExpression); !ok {
		t.Fatalf("callee is %T", call.Callee)
	}

	outerCall := script.Body[2].(*ast.ExpressionStatement).Expression.(*ast.AssignExpression).Right.(*ast.CallExpression)
	newExpr := outerCall.Callee.(*ast.NewExpression)
	if !newExpr.HasArguments || len(newExpr.ArgumentList) != 1 {
		t.Fatalf("new arguments: %+v", newExpr)
	}
	if _, ok := newExpr.Callee.(*ast.DotExpression); !ok {
		t.Fatalf("new callee is %T", newExpr.Callee)
	}
}

func TestForInLoopInit(t *testing.T) {
	script := mustParse(t, "for (var i = 0 in o) ;")
	loop := script.Body[0].(*ast.ForInStatement)
	decl := loop.Into.(*ast.VariableStatement).List[0]
	if _, ok := decl.Initializer.(*ast.NumberLiteral); !ok {
		t.Fatalf("'in' must not be part of the initializer: %T", decl.Initializer)
	}
}

func TestLiterals(t *testing.T) {
	script := mustParse(t, "o = { get x() { return 1; }, set x(v) {}, 'k': 2, 0x10: 4, if: 5, s }; a = [1,,2,]; r = /ab+/gi")

	obj := find[*ast.ObjectLiteral](script)[0]
	kinds := []ast.PropertyKind{ast.PropertyGet, ast.PropertySet, ast.PropertyInit, ast.PropertyInit, ast.PropertyInit, ast.PropertyInit}
	if len(obj.Value) != len(kinds) {
		t.Fatalf("got %d properties", len(obj.Value))
	}
	for i, kind := range kinds {
		if obj.Value[i].Kind != kind {
			t.Errorf("property %d: kind %v", i, obj.Value[i].Kind)
		}
	}
	if getter := obj.Value[0].Value.(*ast.FunctionLiteral); getter.Name != nil || getter.Body == nil {
		t.Errorf("getter must be an anonymous function with a body")
	}
	if num := obj.Value[3].Key.(*ast.NumberLiteral); num.Value != 16 || !num.IsHex {
		t.Errorf("hex key: %+v", num)
	}
	if obj.Value[5].Value != nil {
		t.Errorf("shorthand property must have no value")
	}

	arr := find[*ast.ArrayLiteral](script)[0]
	if len(arr.Value) != 3 || arr.Value[1] != nil {
		t.Fatalf("array holes: %#v", arr.Value)
	}

	re := find[*ast.RegExpLiteral](script)[0]
	if re.Pattern != "ab+" || re.Flags != "gi" {
		t.Fatalf("regexp: %+v", re)
	}
}

func TestLetBlocks(t *testing.T) {
	script := mustParse(t, "let (x = 1) { x; } let (y = 2) y * 2;")
	stmt := script.Body[0].(*ast.LetStatement)
	if got := names(stmt.VarDecls); !equalStrings(got, []string{"x"}) {
		t.Fatalf("let block decls: %v", got)
	}
	expr := script.Body[1].(*ast.ExpressionStatement).Expression.(*ast.LetExpression)
	if got := names(expr.VarDecls); !equalStrings(got, []string{"y"}) {
		t.Fatalf("let expression decls: %v", got)
	}
}

func TestPositions(t *testing.T) {
	src := "\n  x + y;\nfunction f(a) { return a; }"
	script, err := Parse(src, "page.html", 5)
	if err != nil {
		t.Fatal(err)
	}

	stmt := script.Body[0].(*ast.ExpressionStatement)
	if stmt.Line != 6 || stmt.Start != 3 {
		t.Fatalf("statement at line %d, start %d", stmt.Line, stmt.Start)
	}
	if got := script.Source(stmt); got != "x + y;" {
		t.Fatalf("statement source %q", got)
	}
	if got := script.Source(script.FunDecls[0]); got != "function f(a) { return a; }" {
		t.Fatalf("function source %q", got)
	}

	pos := script.Position(stmt.Idx0())
	if pos.Line != 6 || pos.Column != 3 || pos.Filename != "page.html" {
		t.Fatalf("position %+v", pos)
	}

	_, err = Parse("\n\n a b", "page.html", 5)
	var serr *lexer.SyntaxError
	if !errors.As(err, &serr) || serr.Line != 7 {
		t.Fatalf("error line: %v", err)
	}
}

func TestParseFunction(t *testing.T) {
	fn, script, err := ParseFunction("a, b", "return a + b")
	if err != nil {
		t.Fatal(err)
	}
	if len(fn.Parameters) != 2 || len(fn.Body.Body) != 1 {
		t.Fatalf("unexpected function: %+v", fn)
	}
	if fn.Name == nil || fn.Name.Name != "anonymous" || script == nil {
		t.Fatalf("function must be named anonymous")
	}

	if _, _, err := ParseFunction("", "}); (function () {"); err == nil {
		t.Fatalf("a body closing the function early must be rejected")
	}
	if _, _, err := ParseFunction("a b", ""); err == nil {
		t.Fatalf("bad parameter list must be rejected")
	}
}
