package treejs

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"com.github.sebastianobarrera.modeledjs/treejs/parser"
)

func TestPrintAST(t *testing.T) {
	script, err := parser.Parse("a + 1;\nif (a) {\n  b();\n}", "t.js", 1)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := PrintAST(&out, script); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	prefixes := []string{
		"*ast.Script:  t.js:1:1",
		"|   *ast.ExpressionStatement:  t.js:1:1  a + 1",
		"|   |   *ast.BinaryExpression:  t.js:1:1  a + 1",
		"|   |   |   *ast.Identifier:  t.js:1:1  a",
		"|   |   |   *ast.NumberLiteral:  t.js:1:5  1",
		"|   *ast.IfStatement:  t.js:2:1",
	}
	if len(lines) < len(prefixes) {
		t.Fatalf("dump too short:\n%s", out.String())
	}
	for i, prefix := range prefixes {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d: %q, want prefix %q", i, lines[i], prefix)
		}
	}
	// multi-line nodes are printed without their source
	if strings.Contains(lines[5], "{") {
		t.Errorf("if statement printed with source: %q", lines[5])
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestPrintASTWriteError(t *testing.T) {
	script, err := parser.Parse("x;", "t.js", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := PrintAST(failingWriter{}, script); err == nil || err.Error() != "disk full" {
		t.Errorf("got %v", err)
	}
}
