package treejs

import (
	"errors"
	"testing"

	"gopkg.in/sourcemap.v1"
)

// maps every column of generated line 1 to line 10 of orig.js
const testSourceMap = `{"version":3,"file":"out.js","sources":["orig.js"],"names":[],"mappings":"AASA;AACA"}`

func TestSourceMappedPositions(t *testing.T) {
	sm, err := sourcemap.Parse("out.js.map", []byte(testSourceMap))
	if err != nil {
		t.Fatal(err)
	}

	vm, _ := newTestVM()
	script, err := vm.ParseString("out.js", "null.x;\n", 1, sm)
	if err != nil {
		t.Fatal(err)
	}
	_, err = vm.Evaluate(script)
	var pexc *ProgramException
	if !errors.As(err, &pexc) {
		t.Fatalf("got %v, want a JS exception", err)
	}
	if pexc.Filename != "orig.js" || pexc.Line != 10 {
		t.Errorf("position %s:%d, want orig.js:10", pexc.Filename, pexc.Line)
	}
	frames := pexc.Frames()
	if len(frames) == 0 || frames[len(frames)-1].Filename != "orig.js" {
		t.Errorf("frames %v", frames)
	}
}

func TestUnmappedPositionsUseFirstLine(t *testing.T) {
	vm, _ := newTestVM()
	script, err := vm.ParseString("embedded.js", "\n\nnull.x;", 20, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = vm.Evaluate(script)
	var pexc *ProgramException
	if !errors.As(err, &pexc) {
		t.Fatalf("got %v", err)
	}
	if pexc.Filename != "embedded.js" || pexc.Line != 22 || pexc.Column != 1 {
		t.Errorf("position %s:%d:%d, want embedded.js:22:1", pexc.Filename, pexc.Line, pexc.Column)
	}
}
