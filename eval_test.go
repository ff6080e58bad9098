package treejs

import (
	"bytes"
	"errors"
	"testing"
)

func newTestVM(opts ...Option) (*VM, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{WithStdout(&out)}, opts...)
	return NewVM(opts...), &out
}

// evalString runs src in a fresh VM and returns its completion value
// converted to a string.
func evalString(t *testing.T, src string, opts ...Option) string {
	t.Helper()
	vm, _ := newTestVM(opts...)
	value, err := vm.RunString(src)
	if err != nil {
		t.Fatalf("running %q: %v", src, err)
	}
	s, err := vm.ToString(value)
	if err != nil {
		t.Fatalf("converting the result of %q: %v", src, err)
	}
	return string(s)
}

// evalException runs src and returns the uncaught JS exception it raises.
func evalException(t *testing.T, src string, opts ...Option) *ProgramException {
	t.Helper()
	vm, _ := newTestVM(opts...)
	_, err := vm.RunString(src)
	var pexc *ProgramException
	if !errors.As(err, &pexc) {
		t.Fatalf("running %q: got %v, want a JS exception", src, err)
	}
	return pexc
}

type evalCase struct {
	src  string
	want string
}

func runEvalCases(t *testing.T, cases []evalCase) {
	t.Helper()
	for _, tc := range cases {
		if got := evalString(t, tc.src); got != tc.want {
			t.Errorf("%s\n  got  %q\n  want %q", tc.src, got, tc.want)
		}
	}
}

func TestCoercion(t *testing.T) {
	runEvalCases(t, []evalCase{
		{`Number("  ")`, "0"},
		{`Number("0x1F")`, "31"},
		{`Number(" 12 ")`, "12"},
		{`+"12px"`, "NaN"},
		{`1/0`, "Infinity"},
		{`-1/0`, "-Infinity"},
		{`0/0`, "NaN"},
		{`"5" + 3`, "53"},
		{`typeof ("5" + 3)`, "string"},
		{`"5" - 3`, "2"},
		{`true + 1`, "2"},
		{`null + 1`, "1"},
		{`undefined + 1`, "NaN"},
		{`[1, 2] + ""`, "1,2"},
		{`({}) + ""`, "[object Object]"},
		{`({valueOf: function () { return 7; }}) * 2`, "14"},
		{`({toString: function () { return "s"; }}) + "!"`, "s!"},
		{`!!""`, "false"},
		{`!!"0"`, "true"},
		{`!!NaN`, "false"},
		{`!!0 + ":" + !!-0 + ":" + !!0.5 + ":" + !!-Infinity`, "false:false:true:true"},
		{`0 ? "t" : "f"`, "f"},
		{`!!{}`, "true"},
		{`String(null) + String(undefined)`, "nullundefined"},
	})
}

func TestNumberFormatting(t *testing.T) {
	runEvalCases(t, []evalCase{
		{`0.1 + 0.2`, "0.30000000000000004"},
		{`1e21`, "1e+21"},
		{`1e-7`, "1e-7"},
		{`1/3`, "0.3333333333333333"},
		{`-0`, "0"},
		{`1 / -0`, "-Infinity"},
		{`(255).toString(16)`, "ff"},
		{`(3.14159).toFixed(2)`, "3.14"},
		{`(-1.5).toFixed(0)`, "-2"},
		{`0xff`, "255"},
	})
}

func TestRemainderAndBitwise(t *testing.T) {
	runEvalCases(t, []evalCase{
		{`5 % -3`, "2"},
		{`-5 % 3`, "-2"},
		{`5.5 % 2`, "1.5"},
		{`~5`, "-6"},
		{`1 << 31`, "-2147483648"},
		{`1 << 32`, "1"},
		{`-1 >>> 0`, "4294967295"},
		{`-16 >> 2`, "-4"},
		{`-16 >>> 28`, "15"},
		{`5 & 3`, "1"},
		{`5 | 3`, "7"},
		{`5 ^ 3`, "6"},
		{`4294967296 | 0`, "0"},
		{`2147483648 | 0`, "-2147483648"},
		{`"7" | 0`, "7"},
	})
}

func TestEquality(t *testing.T) {
	runEvalCases(t, []evalCase{
		{`NaN === NaN`, "false"},
		{`NaN !== NaN`, "true"},
		{`NaN == NaN`, "false"},
		{`null == undefined`, "true"},
		{`null === undefined`, "false"},
		{`({}) === ({})`, "false"},
		{`var o = {}; o === o`, "true"},
		{`"1" == 1`, "true"},
		{`0 == ""`, "true"},
		{`null == 0`, "false"},
		{`undefined == false`, "false"},
		{`[1] == 1`, "true"},
		{`true == 1`, "true"},
		{`new String("a") == "a"`, "true"},
		{`new String("a") === "a"`, "false"},
	})
}

func TestRelational(t *testing.T) {
	runEvalCases(t, []evalCase{
		{`1 < 2`, "true"},
		{`"10" < "9"`, "true"},
		{`"10" < 9`, "false"},
		{`NaN < 1 || NaN >= 1`, "false"},
		{`undefined < 1`, "false"},
		{`null <= 0`, "true"},
		// two objects of different kinds compare by kind
		{`(function () {}) > {}`, "true"},
		{`["z"] > {}`, "false"},
		{`[] < {}`, "true"},
		// same kind: by string value
		{`[1] < [2]`, "true"},
		{`new Number(5) > new Boolean(true)`, "true"},
	})
}

func TestTypeof(t *testing.T) {
	runEvalCases(t, []evalCase{
		{`typeof undefined`, "undefined"},
		{`typeof null`, "object"},
		{`typeof 1`, "number"},
		{`typeof "s"`, "string"},
		{`typeof true`, "boolean"},
		{`typeof {}`, "object"},
		{`typeof []`, "object"},
		{`typeof function () {}`, "function"},
		{`typeof notDeclaredAnywhere`, "undefined"},
		{`typeof /x/`, "object"},
	})
}

func TestScoping(t *testing.T) {
	runEvalCases(t, []evalCase{
		{`function f() { if (true) { var x = 1; } return x; } f()`, "1"},
		{`var r = typeof y; var y = 2; r`, "undefined"},
		{`var r = g(); function g() { return 3; } r`, "3"},
		{`var x = "global"; function f() { return x; var x = "local"; } String(f())`, "undefined"},
		{`var fs = []; for (let i = 0; i < 3; i++) fs.push(function () { return i; }); "" + fs[0]() + fs[1]() + fs[2]()`, "012"},
		{`var fs = []; for (var i = 0; i < 3; i++) fs.push(function () { return i; }); "" + fs[0]() + fs[1]() + fs[2]()`, "333"},
		{`function counter() { var n = 0; return function () { return ++n; }; } var c = counter(); c(); c()`, "2"},
		{`var x = 1; { let x = 2; } x`, "1"},
		{`let (x = 5, y = 6) x * y`, "30"},
		{`var a = 1; let (a = 2) { a = 3; } a`, "1"},
		{`function f(a) { arguments[0] = 9; return arguments.length; } f(1, 2, 3)`, "3"},
		{`var o = {n: 1, get: function () { return this.n; }}; o.get()`, "1"},
		{`var [a, b] = [1, 2]; a + b`, "3"},
		{`var {p: x, q: y} = {p: 3, q: 4}; x * y`, "12"},
		{`implicitGlobal = 4; this.implicitGlobal`, "4"},
		{`var x = 1; delete x`, "false"},
		{`g2 = 1; delete g2; typeof g2`, "undefined"},
	})
}

func TestConstAssignment(t *testing.T) {
	pexc := evalException(t, `const c = 1; c = 2;`)
	if pexc.Name != "TypeError" {
		t.Errorf("got %s: %s", pexc.Name, pexc.Message)
	}
}

func TestControlFlow(t *testing.T) {
	runEvalCases(t, []evalCase{
		{`var n = 0; outer: for (var i = 0; i < 3; i++) { for (var j = 0; j < 3; j++) { if (j == 1) continue outer; n++; } } n`, "3"},
		{`var n = 0; outer: for (var i = 0; i < 3; i++) { for (var j = 0; j < 3; j++) { if (i == 1) break outer; n++; } } n`, "3"},
		{`var n = 0; while (true) { if (++n > 4) break; } n`, "5"},
		{`var i = 0; do { i++; } while (i < 3); i`, "3"},
		{`var r = ""; switch (2) { case 1: r += "a"; case 2: r += "b"; case 3: r += "c"; break; default: r += "d"; } r`, "bc"},
		{`var r = ""; switch (9) { case 1: r += "a"; default: r += "d"; case 2: r += "b"; } r`, "db"},
		{`var r; try { try { throw "x"; } catch (e if e === "y") { r = "inner"; } } catch (e) { r = "outer:" + e; } r`, "outer:x"},
		{`var r; try { throw 2; } catch (e if e === 1) { r = "one"; } catch (e if e === 2) { r = "two"; } r`, "two"},
		{`var log = ""; function f() { try { return 1; } finally { log += "f"; } } f() + log`, "1f"},
		{`function f() { try { return 1; } finally { return 2; } } f()`, "2"},
		{`var r = ""; for (var i = 0; i < 3; i++) { try { continue; } finally { r += i; } } r`, "012"},
		{`var r = ""; for (var k in {a: 1, b: 2}) r += k; r`, "ab"},
		{`var s = 0; for each (var v in [1, 2, 3]) s += v; s`, "6"},
		{`var r = ""; var o = {a: 1}; with (o) { r = a; } r`, "1"},
		{`[x * x for each (x in [1, 2, 3]) if (x > 1)].join()`, "4,9"},
		{`var x = 0; x += 5; x *= 2; x -= 1; x`, "9"},
		{`var i = 5; i++ + ++i`, "12"},
		{`1, 2, 3`, "3"},
		{`true ? "y" : "n"`, "y"},
		{`0 || "d"`, "d"},
		{`1 && 2`, "2"},
		{`var f = function (x) x + 1; f(1)`, "2"},
	})
}

func TestEndToEnd(t *testing.T) {
	cases := []struct {
		src   string
		name  string
		check string
	}{
		{`var a = 2, b = 3; function add(x,y){ return x + y; } var result = add(a,b);`, "result", "5"},
		{`var s = "5" + 3;`, "s", "53"},
		{`for (var i=0, sum=0; i<5; i++) sum += i;`, "sum", "10"},
	}
	for _, tc := range cases {
		vm, _ := newTestVM()
		if _, err := vm.RunString(tc.src); err != nil {
			t.Fatalf("%s: %v", tc.src, err)
		}
		value, err := vm.Get(tc.name)
		if err != nil {
			t.Fatal(err)
		}
		s, err := vm.ToString(value)
		if err != nil {
			t.Fatal(err)
		}
		if string(s) != tc.check {
			t.Errorf("%s: %s = %q, want %q", tc.src, tc.name, s, tc.check)
		}
	}

	vm, _ := newTestVM()
	if _, err := vm.RunString(`var s = "5" + 3;`); err != nil {
		t.Fatal(err)
	}
	s, _ := vm.Get("s")
	if s != JSString("53") {
		t.Errorf(`s = %#v, want the string "53"`, s)
	}
}

func TestRuntimeErrors(t *testing.T) {
	cases := []struct {
		src  string
		name string
	}{
		{`notDefined + 1`, "ReferenceError"},
		{`var x = 1; x()`, "TypeError"},
		{`null.x`, "TypeError"},
		{`undefined.x = 1`, "TypeError"},
		{`new 5`, "TypeError"},
		{`throw new RangeError("r")`, "RangeError"},
		{`({}) instanceof 5`, "TypeError"},
		{`"x" in "y"`, "TypeError"},
		{`new Array(-1)`, "RangeError"},
		{`(1).toString(1)`, "RangeError"},
		{`new RegExp("(")`, "SyntaxError"},
		{`eval("var = 1")`, "SyntaxError"},
	}
	for _, tc := range cases {
		pexc := evalException(t, tc.src)
		if pexc.Name != tc.name {
			t.Errorf("%s: got %s: %s, want %s", tc.src, pexc.Name, pexc.Message, tc.name)
		}
	}

	pexc := evalException(t, "var a = 1;\n\nmissing();")
	if pexc.Line != 3 || pexc.Filename != "<string>" {
		t.Errorf("position: got %s:%d", pexc.Filename, pexc.Line)
	}
	if len(pexc.Frames()) == 0 {
		t.Errorf("no stack frames")
	}

	pexc = evalException(t, `throw {code: 42}`)
	obj, ok := pexc.Value.(*JSObject)
	if !ok {
		t.Fatalf("thrown value is %#v", pexc.Value)
	}
	vm, _ := newTestVM()
	if code, err := vm.getProperty(obj, obj, "code"); err != nil || code != JSNumber(42) {
		t.Errorf("code = %v, %v", code, err)
	}
}

func TestErrorsCatchable(t *testing.T) {
	runEvalCases(t, []evalCase{
		{`try { notDefined; } catch (e) { e instanceof ReferenceError; }`, "true"},
		{`try { null.x; } catch (e) { e.name + (e instanceof Error); }`, "TypeErrortrue"},
		{`try { eval("var"); } catch (e) { e instanceof SyntaxError; }`, "true"},
		{`String(new RangeError("r"))`, "RangeError: r"},
		{`var e = new Error("m"); e.message + e.name`, "mError"},
		{`Error("no new") instanceof Error`, "true"},
	})
}
