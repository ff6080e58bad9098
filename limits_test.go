package treejs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCallDepthLimit(t *testing.T) {
	config := DefaultConfig()
	config.MaxCallDepth = 50

	pexc := evalException(t, `function f() { return f(); } f();`, WithConfig(config))
	if pexc.Name != "RangeError" || !strings.Contains(pexc.Message, "call stack") {
		t.Errorf("got %s: %s", pexc.Name, pexc.Message)
	}

	got := evalString(t, `
		var depth = 0;
		function g() { depth++; g(); }
		try { g(); } catch (e) { (e instanceof RangeError) + ":" + depth; }
	`, WithConfig(config))
	if got != "true:50" {
		t.Errorf("caught overflow: got %q", got)
	}

	// the depth counter is restored after unwinding
	got = evalString(t, `
		function h(n) { return n == 0 ? 0 : 1 + h(n - 1); }
		try { h(100); } catch (e) {}
		h(40);
	`, WithConfig(config))
	if got != "40" {
		t.Errorf("after overflow: got %q", got)
	}
}

func TestPrototypeLimits(t *testing.T) {
	pexc := evalException(t, `var a = {}; var b = Object.create(a); a.__proto__ = b;`)
	if pexc.Name != "TypeError" || pexc.Message != "cyclic __proto__ value" {
		t.Errorf("cycle: got %s: %s", pexc.Name, pexc.Message)
	}

	if got := evalString(t, `var a = {}; try { a.__proto__ = a; "set"; } catch (e) { e.name; }`); got != "TypeError" {
		t.Errorf("self prototype: got %q", got)
	}

	config := DefaultConfig()
	config.MaxProtoDepth = 10
	pexc = evalException(t, `
		var o = {};
		for (var i = 0; i < 20; i++) o = Object.create(o);
		o.missing;
	`, WithConfig(config))
	if pexc.Name != "RangeError" {
		t.Errorf("long chain: got %s: %s", pexc.Name, pexc.Message)
	}

	got := evalString(t, `
		var o = {x: 1};
		for (var i = 0; i < 5; i++) o = Object.create(o);
		o.x;
	`, WithConfig(config))
	if got != "1" {
		t.Errorf("short chain: got %q", got)
	}
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	vm, _ := newTestVM(WithContext(ctx))
	_, err := vm.RunString(`while (true) { try { for (;;) {} } catch (e) {} }`)
	if err == nil {
		t.Fatal("infinite loop returned without error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want a deadline error", err)
	}
	var pexc *ProgramException
	if errors.As(err, &pexc) {
		t.Errorf("interruption surfaced as a JS exception: %v", pexc)
	}

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	vm, _ = newTestVM(WithContext(ctx))
	if _, err := vm.RunString(`1`); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: got %v", err)
	}
}

func TestVMsAreIndependent(t *testing.T) {
	a, _ := newTestVM()
	b, _ := newTestVM()
	if _, err := a.RunString(`Array.prototype.extra = 1; var shared = 2;`); err != nil {
		t.Fatal(err)
	}
	got, err := b.RunString(`typeof [].extra + typeof shared`)
	if err != nil {
		t.Fatal(err)
	}
	if got != JSString("undefinedundefined") {
		t.Errorf("state leaked between VMs: %v", got)
	}
}
