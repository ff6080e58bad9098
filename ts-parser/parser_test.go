package tsparser

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseValid(t *testing.T) {
	sources := []string{
		"",
		"var x = 1;\n",
		"function f(a, b) { return a + b; }\nf(1, 2);\n",
		"for (var i = 0; i < 3; i++) { if (i) continue; }\n",
		"var re = /a+b/g; re.test('aab');\n",
		"try { throw new Error('x'); } catch (e) {} finally {}\n",
	}
	for _, src := range sources {
		if err := ParseBytes("<test>", []byte(src)); err != nil {
			t.Errorf("ParseBytes(%q): %v", src, err)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []struct {
		src  string
		line int
	}{
		{"var = 1;", 1},
		{"x = 1;\nfunction (", 2},
		{"if (a {", 1},
	}
	for _, tc := range cases {
		err := ParseReader("<test>", strings.NewReader(tc.src))
		var serr *SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("ParseReader(%q) = %v, want *SyntaxError", tc.src, err)
			continue
		}
		if serr.Line != tc.line {
			t.Errorf("ParseReader(%q): error on line %d, want %d", tc.src, serr.Line, tc.line)
		}
		if !strings.HasPrefix(serr.Error(), "<test>:") {
			t.Errorf("error message %q lacks the path", serr.Error())
		}
	}
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// a cancelled parse either fails or completes; it must not report a
	// syntax error for valid input
	err := ParseBytesCtx(ctx, "<test>", []byte("var x = 1;"))
	var serr *SyntaxError
	if errors.As(err, &serr) {
		t.Errorf("unexpected syntax error: %v", serr)
	}
}
