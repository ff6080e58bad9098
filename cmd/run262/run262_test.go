package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"com.github.sebastianobarrera.modeledjs/treejs"
)

func TestParseMetadata(t *testing.T) {
	text := []byte(`// header
/*---
description: something
flags: [onlyStrict]
includes: [compareArray.js]
negative:
  phase: parse
  type: SyntaxError
---*/
var x;
`)
	mt, err := parseMetadata(text)
	if err != nil {
		t.Fatal(err)
	}
	if !mt.OnlyStrict || mt.NoStrict {
		t.Errorf("flags: got onlyStrict=%v noStrict=%v", mt.OnlyStrict, mt.NoStrict)
	}
	if len(mt.Includes) != 1 || mt.Includes[0] != "compareArray.js" {
		t.Errorf("includes: got %v", mt.Includes)
	}
	if mt.NegativePhase != "parse" || mt.NegativeType != "SyntaxError" {
		t.Errorf("negative: got %q %q", mt.NegativePhase, mt.NegativeType)
	}

	if _, err := parseMetadata([]byte("/*--- flags: []")); err == nil {
		t.Errorf("unterminated metadata accepted")
	}
	if mt, err := parseMetadata([]byte("var x;")); err != nil || mt.NegativePhase != "" {
		t.Errorf("no metadata: got %+v, %v", mt, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestRoot(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "harness", "sta.js"), `
function Test262Error(message) { this.message = message || ""; }
Test262Error.prototype.toString = function () { return "Test262Error: " + this.message; };
`)
	writeFile(t, filepath.Join(root, "harness", "assert.js"), `
function assert(cond, msg) { if (!cond) throw new Test262Error(msg); }
`)
	writeFile(t, filepath.Join(root, "test", "pass.js"), `/*---
flags: [noStrict]
---*/
assert(1 + 1 === 2, "arithmetic");
`)
	writeFile(t, filepath.Join(root, "test", "fail.js"), `assert(false, "nope");`)
	writeFile(t, filepath.Join(root, "test", "negative.js"), `/*---
negative:
  phase: runtime
  type: TypeError
---*/
null.x;
`)
	writeFile(t, filepath.Join(root, "test", "wrongtype.js"), `/*---
negative:
  phase: runtime
  type: RangeError
---*/
null.x;
`)
	return root
}

func newTestRunner(root string) *runner {
	return &runner{
		root:    root,
		config:  treejs.DefaultConfig(),
		logger:  zap.NewNop(),
		timeout: 5 * time.Second,
	}
}

func TestRunTestCase(t *testing.T) {
	r := newTestRunner(newTestRoot(t))

	errStrict, errSloppy := r.runTestCase("test/pass.js")
	if !errors.Is(errStrict, ErrCaseDisabledInMetadata) {
		t.Errorf("pass.js strict: got %v", errStrict)
	}
	if errSloppy != nil {
		t.Errorf("pass.js sloppy: %v", errSloppy)
	}

	errStrict, errSloppy = r.runTestCase("test/fail.js")
	for _, err := range []error{errStrict, errSloppy} {
		var pexc *treejs.ProgramException
		if !errors.As(err, &pexc) {
			t.Errorf("fail.js: got %v, want a JS exception", err)
		}
	}

	errStrict, errSloppy = r.runTestCase("test/negative.js")
	if errStrict != nil || errSloppy != nil {
		t.Errorf("negative.js: got %v / %v", errStrict, errSloppy)
	}

	errStrict, _ = r.runTestCase("test/wrongtype.js")
	if errStrict == nil || !strings.Contains(errStrict.Error(), "expected RangeError") {
		t.Errorf("wrongtype.js: got %v", errStrict)
	}

	if errStrict, _ = r.runTestCase("test/missing.js"); errStrict == nil {
		t.Errorf("missing test case: no error")
	}
}

func TestRunManyAndOutput(t *testing.T) {
	r := newTestRunner(newTestRoot(t))
	result := r.runMany([]string{"test/fail.js", "test/pass.js"}, 2)

	if len(result.Cases) != 4 {
		t.Fatalf("got %d outcomes, want 4", len(result.Cases))
	}
	if co := result.Cases[0]; co.Path != "test/fail.js" || !co.StrictMode || co.Success {
		t.Errorf("first outcome: %+v", co)
	}

	var text bytes.Buffer
	if err := writeText(&text, result); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "summary\ttotal: 4; 2 successes; 2 failures") {
		t.Errorf("text output:\n%s", text.String())
	}

	var js bytes.Buffer
	if err := writeJSON(&js, result); err != nil {
		t.Fatal(err)
	}
	var decoded jsonResult
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Total != 4 || decoded.Failures != 2 || decoded.Cases[0].Error == "" {
		t.Errorf("json output: %+v", decoded)
	}
}

func TestRunManyWorkerCounts(t *testing.T) {
	r := newTestRunner(newTestRoot(t))
	cases := []string{"test/pass.js", "test/fail.js", "test/negative.js"}

	for _, jobs := range []int{0, 1, 2, 16} {
		result := r.runMany(cases, jobs)
		if len(result.Cases) != 2*len(cases) {
			t.Fatalf("jobs=%d: got %d outcomes, want %d", jobs, len(result.Cases), 2*len(cases))
		}
		var paths []string
		for _, co := range result.Cases {
			if co.StrictMode {
				paths = append(paths, co.Path)
			}
		}
		if strings.Join(paths, ",") != "test/fail.js,test/negative.js,test/pass.js" {
			t.Errorf("jobs=%d: strict outcomes for %v", jobs, paths)
		}
	}

	if result := r.runMany(nil, 4); len(result.Cases) != 0 {
		t.Errorf("empty list: got %d outcomes", len(result.Cases))
	}
}
